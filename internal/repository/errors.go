package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrPartnerMissing, ErrContractMissing and ErrWorkItemMissing identify the broken link of a
	// partner -> contract -> work item chain.
	ErrPartnerMissing  = errors.New("partner does not exist")
	ErrContractMissing = errors.New("contract does not exist")
	ErrWorkItemMissing = errors.New("work item does not exist")
)

const uniqueViolation = "23505"

// mapWriteError translates driver errors into repository sentinels.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/repository"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

type partnerLookup interface {
	FindByName(ctx context.Context, nama string) (*models.Mitra, error)
}

type contractLookup interface {
	FindByRef(ctx context.Context, ref models.ContractRef) (*models.Kontrak, error)
}

func partnerNotFound(name string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrPartnerNotFound, fmt.Sprintf("partner %q not found", name))
}

func contractNotFound(ref models.ContractRef) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrContractNotFound, fmt.Sprintf("contract %q not found for partner %q", ref.Nomor, ref.PartnerName))
}

func workItemNotFound(ref models.WorkItemRef) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrWorkItemNotFound, fmt.Sprintf("work item %q not found in contract %q", ref.NamaPekerjaan, ref.NomorKontrak))
}

// requirePartner fails with PARTNER_NOT_FOUND when the partner does not exist.
func requirePartner(ctx context.Context, partners partnerLookup, name string) (*models.Mitra, error) {
	mitra, err := partners.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, partnerNotFound(name)
		}
		return nil, appErrors.Internal(err, "failed to load partner")
	}
	return mitra, nil
}

// requireContract resolves partner then contract, naming the first missing link.
func requireContract(ctx context.Context, partners partnerLookup, contracts contractLookup, ref models.ContractRef) (*models.Kontrak, error) {
	if _, err := requirePartner(ctx, partners, ref.PartnerName); err != nil {
		return nil, err
	}
	kontrak, err := contracts.FindByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contractNotFound(ref)
		}
		return nil, appErrors.Internal(err, "failed to load contract")
	}
	return kontrak, nil
}

// mapChainError converts repository chain sentinels into typed not-found errors.
func mapChainError(err error, ref models.WorkItemRef) error {
	switch {
	case errors.Is(err, repository.ErrPartnerMissing):
		return partnerNotFound(ref.PartnerName)
	case errors.Is(err, repository.ErrContractMissing):
		return contractNotFound(models.ContractRef{PartnerName: ref.PartnerName, Nomor: ref.NomorKontrak})
	case errors.Is(err, repository.ErrWorkItemMissing):
		return workItemNotFound(ref)
	default:
		return appErrors.Internal(err, "failed to resolve work item")
	}
}

// authorizePartner enforces that MITRA callers only touch their own partner's data. A nil
// actor is an internal caller.
func authorizePartner(actor *models.JWTClaims, partnerName string) error {
	if actor == nil || actor.CanActFor(partnerName) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "caller may not act for this partner")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

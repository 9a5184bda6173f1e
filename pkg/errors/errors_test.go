package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := map[string]struct {
		err  error
		want Kind
	}{
		"validation":   {Clone(ErrValidation, "bad shift"), KindValidation},
		"partner link": {ErrPartnerNotFound, KindNotFound},
		"work item":    {Clone(ErrWorkItemNotFound, "work item Galian not found"), KindNotFound},
		"conflict":     {ErrConflict, KindConflict},
		"storage":      {Storage(fmt.Errorf("disk full"), "failed to store attachment"), KindStorage},
		"auth":         {ErrForbidden, KindAuth},
		"untyped":      {fmt.Errorf("boom"), KindInternal},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
			assert.Equal(t, tc.want == KindStorage || tc.want == KindInternal, KindOf(tc.err).ServerSide())
		})
	}
}

func TestClonedErrorsMatchByCode(t *testing.T) {
	err := fmt.Errorf("resolve: %w", Clone(ErrContractNotFound, "contract K-001 not found for partner Acme"))
	assert.True(t, errors.Is(err, ErrContractNotFound))
	assert.False(t, errors.Is(err, ErrPartnerNotFound))
}

func TestFromErrorWrapsUntyped(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	appErr := FromError(cause)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
}

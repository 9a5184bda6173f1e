package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

type inboxRepoStub struct {
	mu       sync.Mutex
	seq      int64
	messages []models.InboxMessage
}

func (r *inboxRepoStub) Append(_ context.Context, msg *models.InboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.Seq = r.seq
	msg.DiterimaPada = time.Now().UTC()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *inboxRepoStub) ListByPartner(_ context.Context, partner string) ([]models.InboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.InboxMessage, 0)
	for _, msg := range r.messages {
		if msg.MitraNama == partner {
			out = append(out, msg)
		}
	}
	return out, nil
}

func TestInboxServiceCreateRequiresRecipient(t *testing.T) {
	svc := NewInboxService(&inboxRepoStub{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateInboxMessageRequest{PartnerName: "  ", Subject: "Halo"}, nil)
	requireCode(t, err, appErrors.ErrValidation)

	list, err := svc.List(context.Background(), "Beta", nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInboxServiceKeepsInsertionOrder(t *testing.T) {
	svc := NewInboxService(&inboxRepoStub{}, nil, nil, nil)

	first, err := svc.Create(context.Background(), dto.CreateInboxMessageRequest{EmailOrName: "Beta", Subject: "Satu", Content: "pertama"}, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), dto.CreateInboxMessageRequest{PartnerName: "Gamma", Subject: "Lain"}, nil)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), dto.CreateInboxMessageRequest{PartnerName: "Beta", Subject: "Dua"}, nil)
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "Beta", nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, "pertama", list[0].Konten)
}

func TestInboxServiceScopesPartnerCallers(t *testing.T) {
	svc := NewInboxService(&inboxRepoStub{}, nil, nil, nil)
	actor := &models.JWTClaims{Role: models.RoleMitra, PartnerName: "Beta"}

	_, err := svc.Create(context.Background(), dto.CreateInboxMessageRequest{PartnerName: "Gamma"}, actor)
	requireCode(t, err, appErrors.ErrForbidden)

	_, err = svc.List(context.Background(), "Gamma", actor)
	requireCode(t, err, appErrors.ErrForbidden)
}

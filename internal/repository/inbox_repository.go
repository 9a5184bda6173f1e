package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
)

// InboxRepository appends and reads partner messages.
type InboxRepository struct {
	db *sqlx.DB
}

// NewInboxRepository constructs the repository.
func NewInboxRepository(db *sqlx.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// Append stores a message and records its insertion sequence.
func (r *InboxRepository) Append(ctx context.Context, msg *models.InboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.DiterimaPada.IsZero() {
		msg.DiterimaPada = time.Now().UTC()
	}
	const query = `INSERT INTO inbox (id, mitra_nama, subjek, konten, diterima_pada)
	VALUES ($1, $2, $3, $4, $5) RETURNING seq`
	if err := r.db.QueryRowxContext(ctx, query, msg.ID, msg.MitraNama, msg.Subjek, msg.Konten, msg.DiterimaPada).Scan(&msg.Seq); err != nil {
		return fmt.Errorf("append inbox message: %w", err)
	}
	return nil
}

// ListByPartner returns the partner's messages in insertion order.
func (r *InboxRepository) ListByPartner(ctx context.Context, partnerName string) ([]models.InboxMessage, error) {
	const query = `SELECT id, seq, mitra_nama, subjek, konten, diterima_pada FROM inbox WHERE mitra_nama = $1 ORDER BY seq`
	messages := make([]models.InboxMessage, 0)
	if err := r.db.SelectContext(ctx, &messages, query, partnerName); err != nil {
		return nil, fmt.Errorf("list inbox messages: %w", err)
	}
	return messages, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
)

// MitraRepository persists partners.
type MitraRepository struct {
	db *sqlx.DB
}

// NewMitraRepository constructs the repository.
func NewMitraRepository(db *sqlx.DB) *MitraRepository {
	return &MitraRepository{db: db}
}

// Create inserts a partner. A name clash yields ErrDuplicate.
func (r *MitraRepository) Create(ctx context.Context, mitra *models.Mitra) error {
	if mitra.ID == "" {
		mitra.ID = uuid.NewString()
	}
	if mitra.CreatedAt.IsZero() {
		mitra.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO mitra (id, nama, email, telepon, alamat, penanggung_jawab, created_at)
	VALUES (:id, :nama, :email, :telepon, :alamat, :penanggung_jawab, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mitra); err != nil {
		if mapped := mapWriteError(err); mapped == ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("create mitra: %w", err)
	}
	return nil
}

// FindByName fetches a partner by its unique name. Absent partners yield sql.ErrNoRows.
func (r *MitraRepository) FindByName(ctx context.Context, nama string) (*models.Mitra, error) {
	const query = `SELECT id, nama, email, telepon, alamat, penanggung_jawab, created_at FROM mitra WHERE nama = $1`
	var mitra models.Mitra
	if err := r.db.GetContext(ctx, &mitra, query, nama); err != nil {
		return nil, err
	}
	return &mitra, nil
}

// List returns every partner ordered by name.
func (r *MitraRepository) List(ctx context.Context) ([]models.Mitra, error) {
	const query = `SELECT id, nama, email, telepon, alamat, penanggung_jawab, created_at FROM mitra ORDER BY nama`
	mitras := make([]models.Mitra, 0)
	if err := r.db.SelectContext(ctx, &mitras, query); err != nil {
		return nil, fmt.Errorf("list mitra: %w", err)
	}
	return mitras, nil
}

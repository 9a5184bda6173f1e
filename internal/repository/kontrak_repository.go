package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
)

const kontrakColumns = `id, mitra_nama, nama, nomor, tanggal, nilai, jangka_waktu, created_at`

// KontrakRepository persists contracts and the work items declared with them.
type KontrakRepository struct {
	db *sqlx.DB
}

// NewKontrakRepository constructs the repository.
func NewKontrakRepository(db *sqlx.DB) *KontrakRepository {
	return &KontrakRepository{db: db}
}

// CreateWithWorkItems inserts the contract and every entry of kontrak.Pekerjaan in one
// transaction. Either all rows commit or none do. A duplicate nomor or work item name yields
// ErrDuplicate.
func (r *KontrakRepository) CreateWithWorkItems(ctx context.Context, kontrak *models.Kontrak) error {
	now := time.Now().UTC()
	if kontrak.ID == "" {
		kontrak.ID = uuid.NewString()
	}
	if kontrak.CreatedAt.IsZero() {
		kontrak.CreatedAt = now
	}
	for i := range kontrak.Pekerjaan {
		item := &kontrak.Pekerjaan[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.KontrakID = kontrak.ID
		item.Urutan = i + 1
		item.CreatedAt = kontrak.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create kontrak tx: %w", err)
	}

	const insertKontrak = `INSERT INTO kontrak (` + kontrakColumns + `)
	VALUES (:id, :mitra_nama, :nama, :nomor, :tanggal, :nilai, :jangka_waktu, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertKontrak, kontrak); err != nil {
		_ = tx.Rollback()
		if mapped := mapWriteError(err); mapped == ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("insert kontrak: %w", err)
	}

	for i := range kontrak.Pekerjaan {
		if err := insertPekerjaan(ctx, tx, &kontrak.Pekerjaan[i]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create kontrak tx: %w", err)
	}
	return nil
}

// FindByRef fetches a contract with its work items. Absent contracts yield sql.ErrNoRows.
func (r *KontrakRepository) FindByRef(ctx context.Context, ref models.ContractRef) (*models.Kontrak, error) {
	const query = `SELECT ` + kontrakColumns + ` FROM kontrak WHERE mitra_nama = $1 AND nomor = $2`
	var kontrak models.Kontrak
	if err := r.db.GetContext(ctx, &kontrak, query, ref.PartnerName, ref.Nomor); err != nil {
		return nil, err
	}
	list := []models.Kontrak{kontrak}
	if err := r.attachWorkItems(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListByPartner returns the partner's contracts ordered by start date.
func (r *KontrakRepository) ListByPartner(ctx context.Context, partnerName string) ([]models.Kontrak, error) {
	const query = `SELECT ` + kontrakColumns + ` FROM kontrak WHERE mitra_nama = $1 ORDER BY tanggal, nomor`
	return r.list(ctx, query, partnerName)
}

// ListAll returns every contract ordered by partner and start date.
func (r *KontrakRepository) ListAll(ctx context.Context) ([]models.Kontrak, error) {
	const query = `SELECT ` + kontrakColumns + ` FROM kontrak ORDER BY mitra_nama, tanggal, nomor`
	return r.list(ctx, query)
}

func (r *KontrakRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Kontrak, error) {
	kontraks := make([]models.Kontrak, 0)
	if err := r.db.SelectContext(ctx, &kontraks, query, args...); err != nil {
		return nil, fmt.Errorf("list kontrak: %w", err)
	}
	if err := r.attachWorkItems(ctx, kontraks); err != nil {
		return nil, err
	}
	return kontraks, nil
}

func (r *KontrakRepository) attachWorkItems(ctx context.Context, kontraks []models.Kontrak) error {
	if len(kontraks) == 0 {
		return nil
	}
	ids := make([]string, len(kontraks))
	index := make(map[string]int, len(kontraks))
	for i := range kontraks {
		ids[i] = kontraks[i].ID
		index[kontraks[i].ID] = i
		kontraks[i].Pekerjaan = make([]models.Pekerjaan, 0)
	}

	const query = `SELECT ` + pekerjaanColumns + ` FROM pekerjaan WHERE kontrak_id = ANY($1) ORDER BY kontrak_id, urutan`
	var items []models.Pekerjaan
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list pekerjaan for kontrak: %w", err)
	}
	for _, item := range items {
		if i, ok := index[item.KontrakID]; ok {
			kontraks[i].Pekerjaan = append(kontraks[i].Pekerjaan, item)
		}
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
)

const pekerjaanColumns = `id, kontrak_id, nama, urutan, created_at`

// PekerjaanRepository persists work items and resolves work item chains.
type PekerjaanRepository struct {
	db *sqlx.DB
}

// NewPekerjaanRepository constructs the repository.
func NewPekerjaanRepository(db *sqlx.DB) *PekerjaanRepository {
	return &PekerjaanRepository{db: db}
}

// Create appends a work item at the end of the contract's list.
func (r *PekerjaanRepository) Create(ctx context.Context, item *models.Pekerjaan) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO pekerjaan (id, kontrak_id, nama, urutan, created_at)
	SELECT $1, $2, $3, COALESCE(MAX(urutan), 0) + 1, $4 FROM pekerjaan WHERE kontrak_id = $2
	RETURNING urutan`
	if err := r.db.QueryRowxContext(ctx, query, item.ID, item.KontrakID, item.Nama, item.CreatedAt).Scan(&item.Urutan); err != nil {
		if mapped := mapWriteError(err); mapped == ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("create pekerjaan: %w", err)
	}
	return nil
}

// ListByKontrak returns a contract's work items in declared order.
func (r *PekerjaanRepository) ListByKontrak(ctx context.Context, kontrakID string) ([]models.Pekerjaan, error) {
	const query = `SELECT ` + pekerjaanColumns + ` FROM pekerjaan WHERE kontrak_id = $1 ORDER BY urutan`
	items := make([]models.Pekerjaan, 0)
	if err := r.db.SelectContext(ctx, &items, query, kontrakID); err != nil {
		return nil, fmt.Errorf("list pekerjaan: %w", err)
	}
	return items, nil
}

type chainRow struct {
	MitraNama          sql.NullString `db:"mitra_nama"`
	KontrakID          sql.NullString `db:"kontrak_id"`
	KontrakNama        sql.NullString `db:"kontrak_nama"`
	Nomor              sql.NullString `db:"nomor"`
	Tanggal            models.Date    `db:"tanggal"`
	Nilai              sql.NullInt64  `db:"nilai"`
	JangkaWaktu        sql.NullInt32  `db:"jangka_waktu"`
	KontrakCreatedAt   sql.NullTime   `db:"kontrak_created_at"`
	PekerjaanID        sql.NullString `db:"pekerjaan_id"`
	PekerjaanNama      sql.NullString `db:"pekerjaan_nama"`
	Urutan             sql.NullInt32  `db:"urutan"`
	PekerjaanCreatedAt sql.NullTime   `db:"pekerjaan_created_at"`
}

// Resolve walks partner -> contract -> work item in one query. The error names the first
// missing link: ErrPartnerMissing, ErrContractMissing or ErrWorkItemMissing.
func (r *PekerjaanRepository) Resolve(ctx context.Context, ref models.WorkItemRef) (*models.ResolvedWorkItem, error) {
	const query = `SELECT m.nama AS mitra_nama,
       k.id AS kontrak_id, k.nama AS kontrak_nama, k.nomor, k.tanggal, k.nilai, k.jangka_waktu, k.created_at AS kontrak_created_at,
       p.id AS pekerjaan_id, p.nama AS pekerjaan_nama, p.urutan, p.created_at AS pekerjaan_created_at
	FROM (SELECT $1::text AS nama) q
	LEFT JOIN mitra m ON m.nama = q.nama
	LEFT JOIN kontrak k ON k.mitra_nama = m.nama AND k.nomor = $2
	LEFT JOIN pekerjaan p ON p.kontrak_id = k.id AND p.nama = $3`

	var row chainRow
	if err := r.db.GetContext(ctx, &row, query, ref.PartnerName, ref.NomorKontrak, ref.NamaPekerjaan); err != nil {
		return nil, fmt.Errorf("resolve pekerjaan: %w", err)
	}
	switch {
	case !row.MitraNama.Valid:
		return nil, ErrPartnerMissing
	case !row.KontrakID.Valid:
		return nil, ErrContractMissing
	case !row.PekerjaanID.Valid:
		return nil, ErrWorkItemMissing
	}

	return &models.ResolvedWorkItem{
		Kontrak: models.Kontrak{
			ID:          row.KontrakID.String,
			MitraNama:   row.MitraNama.String,
			Nama:        row.KontrakNama.String,
			Nomor:       row.Nomor.String,
			Tanggal:     row.Tanggal,
			Nilai:       row.Nilai.Int64,
			JangkaWaktu: int(row.JangkaWaktu.Int32),
			CreatedAt:   row.KontrakCreatedAt.Time,
		},
		Pekerjaan: models.Pekerjaan{
			ID:        row.PekerjaanID.String,
			KontrakID: row.KontrakID.String,
			Nama:      row.PekerjaanNama.String,
			Urutan:    int(row.Urutan.Int32),
			CreatedAt: row.PekerjaanCreatedAt.Time,
		},
	}, nil
}

func insertPekerjaan(ctx context.Context, tx *sqlx.Tx, item *models.Pekerjaan) error {
	const query = `INSERT INTO pekerjaan (id, kontrak_id, nama, urutan, created_at)
	VALUES (:id, :kontrak_id, :nama, :urutan, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
		if mapped := mapWriteError(err); mapped == ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("insert pekerjaan %q: %w", item.Nama, err)
	}
	return nil
}

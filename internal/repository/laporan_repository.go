package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
)

const laporanColumns = `id, mitra_nama, nomor_kontrak, nama_pekerjaan, tanggal, shift, dibuat_oleh, created_at`

// LaporanRepository persists reports with their workforce and activity rows.
type LaporanRepository struct {
	db *sqlx.DB
}

// NewLaporanRepository constructs the repository.
func NewLaporanRepository(db *sqlx.DB) *LaporanRepository {
	return &LaporanRepository{db: db}
}

// Create writes the report and its children atomically. Inside the transaction the referenced
// work item is re-checked and share-locked so the chain cannot disappear before commit.
// A second report for the same work item, date and shift yields ErrDuplicate.
func (r *LaporanRepository) Create(ctx context.Context, laporan *models.Laporan) error {
	if laporan.ID == "" {
		laporan.ID = uuid.NewString()
	}
	if laporan.CreatedAt.IsZero() {
		laporan.CreatedAt = time.Now().UTC()
	}
	for i := range laporan.TenagaKerja {
		tk := &laporan.TenagaKerja[i]
		if tk.ID == "" {
			tk.ID = uuid.NewString()
		}
		tk.LaporanID = laporan.ID
		tk.Urutan = i + 1
	}
	for i := range laporan.Aktivitas {
		akt := &laporan.Aktivitas[i]
		if akt.ID == "" {
			akt.ID = uuid.NewString()
		}
		akt.LaporanID = laporan.ID
		akt.Urutan = i + 1
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create laporan tx: %w", err)
	}

	const lockChain = `SELECT p.id FROM pekerjaan p
	JOIN kontrak k ON k.id = p.kontrak_id
	WHERE k.mitra_nama = $1 AND k.nomor = $2 AND p.nama = $3
	FOR SHARE`
	var pekerjaanID string
	if err := tx.GetContext(ctx, &pekerjaanID, lockChain, laporan.MitraNama, laporan.NomorKontrak, laporan.NamaPekerjaan); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return ErrWorkItemMissing
		}
		return fmt.Errorf("lock pekerjaan chain: %w", err)
	}

	const insertLaporan = `INSERT INTO laporan (` + laporanColumns + `)
	VALUES (:id, :mitra_nama, :nomor_kontrak, :nama_pekerjaan, :tanggal, :shift, :dibuat_oleh, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertLaporan, laporan); err != nil {
		_ = tx.Rollback()
		if mapped := mapWriteError(err); mapped == ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("insert laporan: %w", err)
	}

	const insertTenagaKerja = `INSERT INTO tenaga_kerja (id, laporan_id, urutan, nama, jabatan, keterangan)
	VALUES (:id, :laporan_id, :urutan, :nama, :jabatan, :keterangan)`
	for i := range laporan.TenagaKerja {
		if _, err := tx.NamedExecContext(ctx, insertTenagaKerja, laporan.TenagaKerja[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert tenaga kerja: %w", err)
		}
	}

	const insertAktivitas = `INSERT INTO aktivitas (id, laporan_id, urutan, kategori, deskripsi, foto_sebelum, foto_sesudah)
	VALUES (:id, :laporan_id, :urutan, :kategori, :deskripsi, :foto_sebelum, :foto_sesudah)`
	for i := range laporan.Aktivitas {
		if _, err := tx.NamedExecContext(ctx, insertAktivitas, laporan.Aktivitas[i]); err != nil {
			_ = tx.Rollback()
			if mapped := mapWriteError(err); mapped == ErrDuplicate {
				return mapped
			}
			return fmt.Errorf("insert aktivitas: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create laporan tx: %w", err)
	}
	return nil
}

// GetByID fetches a report with its children. Absent reports yield sql.ErrNoRows.
func (r *LaporanRepository) GetByID(ctx context.Context, id string) (*models.Laporan, error) {
	const query = `SELECT ` + laporanColumns + ` FROM laporan WHERE id = $1`
	var laporan models.Laporan
	if err := r.db.GetContext(ctx, &laporan, query, id); err != nil {
		return nil, err
	}
	list := []models.Laporan{laporan}
	if err := r.attachChildren(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListByWorkItem returns the reports filed against a work item, newest first.
func (r *LaporanRepository) ListByWorkItem(ctx context.Context, ref models.WorkItemRef) ([]models.Laporan, error) {
	const query = `SELECT ` + laporanColumns + ` FROM laporan
	WHERE mitra_nama = $1 AND nomor_kontrak = $2 AND nama_pekerjaan = $3
	ORDER BY tanggal DESC, created_at DESC`
	return r.list(ctx, query, ref.PartnerName, ref.NomorKontrak, ref.NamaPekerjaan)
}

// ListAll returns every report, newest first.
func (r *LaporanRepository) ListAll(ctx context.Context) ([]models.Laporan, error) {
	const query = `SELECT ` + laporanColumns + ` FROM laporan ORDER BY tanggal DESC, created_at DESC`
	return r.list(ctx, query)
}

// ReferencedRefs returns the subset of refs held by a committed activity.
func (r *LaporanRepository) ReferencedRefs(ctx context.Context, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return []string{}, nil
	}
	const query = `SELECT foto_sebelum FROM aktivitas WHERE foto_sebelum = ANY($1)
	UNION
	SELECT foto_sesudah FROM aktivitas WHERE foto_sesudah = ANY($1)`
	found := make([]string, 0)
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(refs)); err != nil {
		return nil, fmt.Errorf("query referenced attachments: %w", err)
	}
	return found, nil
}

func (r *LaporanRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Laporan, error) {
	laporans := make([]models.Laporan, 0)
	if err := r.db.SelectContext(ctx, &laporans, query, args...); err != nil {
		return nil, fmt.Errorf("list laporan: %w", err)
	}
	if err := r.attachChildren(ctx, laporans); err != nil {
		return nil, err
	}
	return laporans, nil
}

func (r *LaporanRepository) attachChildren(ctx context.Context, laporans []models.Laporan) error {
	if len(laporans) == 0 {
		return nil
	}
	ids := make([]string, len(laporans))
	index := make(map[string]int, len(laporans))
	for i := range laporans {
		ids[i] = laporans[i].ID
		index[laporans[i].ID] = i
		laporans[i].TenagaKerja = make([]models.TenagaKerja, 0)
		laporans[i].Aktivitas = make([]models.Aktivitas, 0)
	}

	const tenagaKerjaQuery = `SELECT id, laporan_id, urutan, nama, jabatan, keterangan
	FROM tenaga_kerja WHERE laporan_id = ANY($1) ORDER BY laporan_id, urutan`
	var roster []models.TenagaKerja
	if err := r.db.SelectContext(ctx, &roster, tenagaKerjaQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("list tenaga kerja: %w", err)
	}
	for _, tk := range roster {
		if i, ok := index[tk.LaporanID]; ok {
			laporans[i].TenagaKerja = append(laporans[i].TenagaKerja, tk)
		}
	}

	const aktivitasQuery = `SELECT id, laporan_id, urutan, kategori, deskripsi, foto_sebelum, foto_sesudah
	FROM aktivitas WHERE laporan_id = ANY($1) ORDER BY laporan_id, urutan`
	var activities []models.Aktivitas
	if err := r.db.SelectContext(ctx, &activities, aktivitasQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("list aktivitas: %w", err)
	}
	for _, akt := range activities {
		if i, ok := index[akt.LaporanID]; ok {
			laporans[i].Aktivitas = append(laporans[i].Aktivitas, akt)
		}
	}
	return nil
}

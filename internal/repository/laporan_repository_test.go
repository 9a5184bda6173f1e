package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
)

func newLaporan() *models.Laporan {
	before := "lampiran/2024/03/a.jpg"
	return &models.Laporan{
		MitraNama:     "Acme",
		NomorKontrak:  "K-001",
		NamaPekerjaan: "Galian",
		Tanggal:       models.NewDate(2024, time.March, 1),
		Shift:         models.Shift1,
		DibuatOleh:    "user-1",
		TenagaKerja:   []models.TenagaKerja{{Nama: "Andi", Jabatan: "Mandor"}},
		Aktivitas:     []models.Aktivitas{{Kategori: "Galian", FotoSebelum: &before}},
	}
}

func TestLaporanRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLaporanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id FROM pekerjaan p")).
		WithArgs("Acme", "K-001", "Galian").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO laporan")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tenaga_kerja")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO aktivitas")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	laporan := newLaporan()
	require.NoError(t, repo.Create(context.Background(), laporan))
	assert.NotEmpty(t, laporan.ID)
	assert.Equal(t, laporan.ID, laporan.TenagaKerja[0].LaporanID)
	assert.Equal(t, 1, laporan.Aktivitas[0].Urutan)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLaporanRepositoryCreateRechecksChain(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLaporanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id FROM pekerjaan p")).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	require.ErrorIs(t, repo.Create(context.Background(), newLaporan()), ErrWorkItemMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLaporanRepositoryCreateDuplicateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLaporanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id FROM pekerjaan p")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO laporan")).
		WillReturnError(uniqueViolationErr("laporan_pekerjaan_tanggal_shift_key"))
	mock.ExpectRollback()

	require.ErrorIs(t, repo.Create(context.Background(), newLaporan()), ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLaporanRepositoryCreateRollsBackOnChildFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLaporanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id FROM pekerjaan p")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO laporan")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tenaga_kerja")).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), newLaporan())
	require.Error(t, err)
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLaporanRepositoryGetByIDLoadsChildrenInOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLaporanRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mitra_nama, nomor_kontrak")).
		WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "mitra_nama", "nomor_kontrak", "nama_pekerjaan", "tanggal", "shift", "dibuat_oleh", "created_at"}).
			AddRow("l-1", "Acme", "K-001", "Galian", now, "Shift2", "user-1", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tenaga_kerja WHERE laporan_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "laporan_id", "urutan", "nama", "jabatan", "keterangan"}).
			AddRow("t-1", "l-1", 1, "Andi", "Mandor", "").
			AddRow("t-2", "l-1", 2, "Budi", "Operator", "lembur"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM aktivitas WHERE laporan_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "laporan_id", "urutan", "kategori", "deskripsi", "foto_sebelum", "foto_sesudah"}).
			AddRow("a-1", "l-1", 1, "Galian", "gali", "lampiran/a.jpg", nil))

	laporan, err := repo.GetByID(context.Background(), "l-1")
	require.NoError(t, err)
	assert.Equal(t, models.Shift2, laporan.Shift)
	require.Len(t, laporan.TenagaKerja, 2)
	assert.Equal(t, "Budi", laporan.TenagaKerja[1].Nama)
	require.Len(t, laporan.Aktivitas, 1)
	require.NotNil(t, laporan.Aktivitas[0].FotoSebelum)
	assert.Nil(t, laporan.Aktivitas[0].FotoSesudah)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLaporanRepositoryListByWorkItemEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLaporanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mitra_nama, nomor_kontrak")).
		WithArgs("Acme", "K-001", "Galian").
		WillReturnRows(sqlmock.NewRows([]string{"id", "mitra_nama", "nomor_kontrak", "nama_pekerjaan", "tanggal", "shift", "dibuat_oleh", "created_at"}))

	list, err := repo.ListByWorkItem(context.Background(), models.WorkItemRef{PartnerName: "Acme", NomorKontrak: "K-001", NamaPekerjaan: "Galian"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLaporanRepositoryReferencedRefs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLaporanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT foto_sebelum FROM aktivitas")).
		WillReturnRows(sqlmock.NewRows([]string{"foto_sebelum"}).AddRow("lampiran/a.jpg"))

	refs, err := repo.ReferencedRefs(context.Background(), []string{"lampiran/a.jpg", "lampiran/orphan.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lampiran/a.jpg"}, refs)

	empty, err := repo.ReferencedRefs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
)

func newKontrak() *models.Kontrak {
	return &models.Kontrak{
		MitraNama:   "Acme",
		Nama:        "Pemeliharaan Jalan",
		Nomor:       "K-001",
		Tanggal:     models.NewDate(2024, time.January, 1),
		Nilai:       150000000,
		JangkaWaktu: 6,
		Pekerjaan:   []models.Pekerjaan{{Nama: "Galian"}, {Nama: "Pengaspalan"}},
	}
}

func TestKontrakRepositoryCreateWithWorkItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKontrakRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kontrak")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pekerjaan")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pekerjaan")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	kontrak := newKontrak()
	require.NoError(t, repo.CreateWithWorkItems(context.Background(), kontrak))
	assert.NotEmpty(t, kontrak.ID)
	for i, item := range kontrak.Pekerjaan {
		assert.Equal(t, kontrak.ID, item.KontrakID)
		assert.Equal(t, i+1, item.Urutan)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKontrakRepositoryCreateRollsBackWhenWorkItemFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKontrakRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kontrak")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pekerjaan")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pekerjaan")).WillReturnError(uniqueViolationErr("pekerjaan_kontrak_nama_key"))
	mock.ExpectRollback()

	err := repo.CreateWithWorkItems(context.Background(), newKontrak())
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKontrakRepositoryCreateDuplicateNomor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKontrakRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kontrak")).WillReturnError(uniqueViolationErr("kontrak_mitra_nomor_key"))
	mock.ExpectRollback()

	require.ErrorIs(t, repo.CreateWithWorkItems(context.Background(), newKontrak()), ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKontrakRepositoryListAllNestsWorkItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKontrakRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mitra_nama, nama, nomor")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mitra_nama", "nama", "nomor", "tanggal", "nilai", "jangka_waktu", "created_at"}).
			AddRow("k-1", "Acme", "Jalan", "K-001", now, 100, 6, now).
			AddRow("k-2", "Beta", "Jembatan", "B-001", now, 200, 12, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, kontrak_id, nama, urutan, created_at FROM pekerjaan WHERE kontrak_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kontrak_id", "nama", "urutan", "created_at"}).
			AddRow("p-1", "k-1", "Galian", 1, now).
			AddRow("p-2", "k-1", "Pengaspalan", 2, now))

	list, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Len(t, list[0].Pekerjaan, 2)
	assert.NotNil(t, list[1].Pekerjaan)
	assert.Empty(t, list[1].Pekerjaan)
	require.NoError(t, mock.ExpectationsWereMet())
}

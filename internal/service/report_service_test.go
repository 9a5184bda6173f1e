package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/storage"
)

type reportFixture struct {
	world       *world
	dir         string
	repo        *laporanRepoStub
	attachments *AttachmentService
	reports     *ReportService
}

func newReportFixture(t *testing.T, store objectStore) *reportFixture {
	t.Helper()
	w := newWorld()
	seedAcme(t, w)

	dir := t.TempDir()
	if store == nil {
		local, err := storage.NewLocalStorage(dir)
		require.NoError(t, err)
		store = local
	}
	repo := &laporanRepoStub{w: w}
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	attachments := NewAttachmentService(store, repo, signer, nil, nil, AttachmentConfig{ThumbnailSize: 16})
	workItems := NewWorkItemService(pekerjaanRepoStub{w}, mitraRepoStub{w}, kontrakRepoStub{w}, nil, nil, nil)
	reports := NewReportService(repo, workItems, attachments, nil, nil, nil, nil, ReportConfig{UploadTimeout: time.Second, StoreConcurrency: 2})
	return &reportFixture{world: w, dir: dir, repo: repo, attachments: attachments, reports: reports}
}

func (f *reportFixture) storedFiles(t *testing.T) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func payload(t *testing.T, tanggal string, activities ...dto.AktivitasInput) []byte {
	t.Helper()
	body, err := json.Marshal(dto.ReportPayload{
		PartnerName:   "Acme",
		NomorKontrak:  "K-001",
		NamaPekerjaan: "Galian",
		Tanggal:       tanggal,
		Shift:         string(models.Shift1),
		TenagaKerja:   []dto.TenagaKerjaInput{{Nama: "Budi", Jabatan: "Mandor"}},
		Aktivitas:     activities,
	})
	require.NoError(t, err)
	return body
}

func photoFiles(t *testing.T, fields ...string) map[string][]UploadedFile {
	t.Helper()
	data := samplePNG(t)
	files := make(map[string][]UploadedFile, len(fields))
	for _, field := range fields {
		files[field] = []UploadedFile{{
			Meta: models.AttachmentMeta{FieldName: field, FileName: field + ".png", ContentType: "image/png", Size: int64(len(data))},
			Data: data,
		}}
	}
	return files
}

func TestReportServiceSubmitCommitsWithAttachments(t *testing.T) {
	f := newReportFixture(t, nil)
	sub := ReportSubmission{
		Payload: payload(t, "2024-03-01",
			dto.AktivitasInput{Kategori: "Galian", Deskripsi: "Saluran utama", FotoSebelum: "a0_before", FotoSesudah: "a0_after"},
			dto.AktivitasInput{Kategori: "Angkut"},
		),
		Files: photoFiles(t, "a0_before", "a0_after"),
	}

	laporan, err := f.reports.Submit(context.Background(), sub, &models.JWTClaims{UserID: "u-1", Role: models.RoleMitra, PartnerName: "Acme"})
	require.NoError(t, err)
	require.NotEmpty(t, laporan.ID)
	assert.Equal(t, "u-1", laporan.DibuatOleh)
	require.Len(t, laporan.Aktivitas, 2)
	require.NotNil(t, laporan.Aktivitas[0].FotoSebelum)
	require.NotNil(t, laporan.Aktivitas[0].FotoSesudah)
	assert.Nil(t, laporan.Aktivitas[1].FotoSebelum)
	assert.NotEqual(t, *laporan.Aktivitas[0].FotoSebelum, *laporan.Aktivitas[0].FotoSesudah)

	original := sub.Files["a0_before"][0].Data
	got, err := f.attachments.Retrieve(context.Background(), *laporan.Aktivitas[0].FotoSebelum)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	first, err := f.reports.Get(context.Background(), laporan.ID, nil)
	require.NoError(t, err)
	second, err := f.reports.Get(context.Background(), laporan.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReportServiceSubmitDateWindow(t *testing.T) {
	f := newReportFixture(t, nil)

	_, err := f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2024-08-01")}, nil)
	requireCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "outside contract period")

	_, err = f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2024-07-01")}, nil)
	requireCode(t, err, appErrors.ErrValidation)

	_, err = f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2023-12-31")}, nil)
	requireCode(t, err, appErrors.ErrValidation)

	_, err = f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2024-03-01")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.world.reportCount())
}

func TestReportServiceSubmitMissingPhotoStoresNothing(t *testing.T) {
	f := newReportFixture(t, nil)
	sub := ReportSubmission{
		Payload: payload(t, "2024-03-01",
			dto.AktivitasInput{Kategori: "Galian", FotoSebelum: "a0_before", FotoSesudah: "a0_after"},
			dto.AktivitasInput{Kategori: "Urug", FotoSebelum: "a1_before", FotoSesudah: "a1_after"},
		),
		Files: photoFiles(t, "a0_before", "a0_after", "a1_before"),
	}

	_, err := f.reports.Submit(context.Background(), sub, nil)
	requireCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "a1_after")
	assert.Zero(t, f.world.reportCount())
	assert.Empty(t, f.storedFiles(t))
}

func TestReportServiceSubmitPlaceholderRules(t *testing.T) {
	cases := []struct {
		name       string
		activities []dto.AktivitasInput
		files      map[string][]UploadedFile
	}{
		{
			name:       "orphan upload",
			activities: []dto.AktivitasInput{{Kategori: "Galian", FotoSebelum: "p1"}},
			files:      photoFiles(t, "p1", "p2"),
		},
		{
			name: "photo used twice",
			activities: []dto.AktivitasInput{
				{Kategori: "Galian", FotoSebelum: "p1"},
				{Kategori: "Urug", FotoSesudah: "p1"},
			},
			files: photoFiles(t, "p1"),
		},
		{
			name:       "two files under one field",
			activities: []dto.AktivitasInput{{Kategori: "Galian", FotoSebelum: "p1"}},
			files: func() map[string][]UploadedFile {
				files := photoFiles(t, "p1")
				files["p1"] = append(files["p1"], files["p1"][0])
				return files
			}(),
		},
		{
			name:       "not an image",
			activities: []dto.AktivitasInput{{Kategori: "Galian", FotoSebelum: "p1"}},
			files: map[string][]UploadedFile{"p1": {{
				Meta: models.AttachmentMeta{FieldName: "p1", FileName: "p1.txt", ContentType: "text/plain"},
				Data: []byte("hello"),
			}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newReportFixture(t, nil)
			_, err := f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2024-03-01", tc.activities...), Files: tc.files}, nil)
			requireCode(t, err, appErrors.ErrValidation)
			assert.Zero(t, f.world.reportCount())
			assert.Empty(t, f.storedFiles(t))
		})
	}
}

func TestReportServiceSubmitPayloadValidation(t *testing.T) {
	f := newReportFixture(t, nil)
	cases := map[string]string{
		"malformed json": `{"partnerName":`,
		"missing fields": `{"partnerName":"Acme"}`,
		"bad shift":      `{"partnerName":"Acme","nomorKontrak":"K-001","namaPekerjaan":"Galian","tanggal":"2024-03-01","shift":"Shift3"}`,
		"bad date":       `{"partnerName":"Acme","nomorKontrak":"K-001","namaPekerjaan":"Galian","tanggal":"01/03/2024","shift":"Shift1"}`,
		"trailing data":  `{"partnerName":"Acme","nomorKontrak":"K-001","namaPekerjaan":"Galian","tanggal":"2024-03-01","shift":"Shift1"} {}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.reports.Submit(context.Background(), ReportSubmission{Payload: []byte(body)}, nil)
			requireCode(t, err, appErrors.ErrValidation)
		})
	}
}

func TestReportServiceSubmitNamesBrokenLink(t *testing.T) {
	f := newReportFixture(t, nil)
	body := `{"partnerName":"Acme","nomorKontrak":"K-404","namaPekerjaan":"Galian","tanggal":"2024-03-01","shift":"Shift1"}`

	_, err := f.reports.Submit(context.Background(), ReportSubmission{Payload: []byte(body)}, nil)
	requireCode(t, err, appErrors.ErrContractNotFound)
}

func TestReportServiceSubmitForbidsOtherPartner(t *testing.T) {
	f := newReportFixture(t, nil)

	_, err := f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2024-03-01")},
		&models.JWTClaims{UserID: "u-2", Role: models.RoleMitra, PartnerName: "Beta"})
	requireCode(t, err, appErrors.ErrForbidden)
}

func TestReportServiceSubmitDuplicateTupleConflicts(t *testing.T) {
	f := newReportFixture(t, nil)
	sub := ReportSubmission{
		Payload: payload(t, "2024-03-01", dto.AktivitasInput{Kategori: "Galian", FotoSebelum: "p1"}),
		Files:   photoFiles(t, "p1"),
	}
	_, err := f.reports.Submit(context.Background(), sub, nil)
	require.NoError(t, err)
	committed := f.storedFiles(t)

	_, err = f.reports.Submit(context.Background(), sub, nil)
	requireCode(t, err, appErrors.ErrConflict)
	assert.Equal(t, 1, f.world.reportCount())
	assert.ElementsMatch(t, committed, f.storedFiles(t))
}

func TestReportServiceSubmitPersistFailureDiscardsAttachments(t *testing.T) {
	f := newReportFixture(t, nil)
	f.world.createErr = errors.New("connection reset")
	sub := ReportSubmission{
		Payload: payload(t, "2024-03-01", dto.AktivitasInput{Kategori: "Galian", FotoSebelum: "p1", FotoSesudah: "p2"}),
		Files:   photoFiles(t, "p1", "p2"),
	}

	_, err := f.reports.Submit(context.Background(), sub, nil)
	requireCode(t, err, appErrors.ErrStorage)
	assert.Zero(t, f.world.reportCount())
	assert.Empty(t, f.storedFiles(t))
}

// failingStore fails every write after the first successful one.
type failingStore struct {
	*storage.LocalStorage
	allowed int
}

func (s *failingStore) Create(ctx context.Context, ref string, r io.Reader) (int64, error) {
	if s.allowed <= 0 {
		return 0, errors.New("disk full")
	}
	s.allowed--
	return s.LocalStorage.Create(ctx, ref, r)
}

func TestReportServiceSubmitStoreFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	f := newReportFixture(t, &failingStore{LocalStorage: local, allowed: 2})
	f.dir = dir
	f.reports.cfg.StoreConcurrency = 1
	sub := ReportSubmission{
		Payload: payload(t, "2024-03-01",
			dto.AktivitasInput{Kategori: "Galian", FotoSebelum: "p1"},
			dto.AktivitasInput{Kategori: "Urug", FotoSebelum: "p2"},
		),
		Files: photoFiles(t, "p1", "p2"),
	}

	_, err = f.reports.Submit(context.Background(), sub, nil)
	requireCode(t, err, appErrors.ErrStorage)
	assert.Zero(t, f.repo.calls)
	assert.Empty(t, f.storedFiles(t))
}

// stallingStore lets the first writes through, then holds each later write until its context ends.
type stallingStore struct {
	*storage.LocalStorage
	allowed int
}

func (s *stallingStore) Create(ctx context.Context, ref string, r io.Reader) (int64, error) {
	if s.allowed <= 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	s.allowed--
	return s.LocalStorage.Create(ctx, ref, r)
}

func TestReportServiceSubmitUploadTimeoutRollsBack(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	// p1 and its thumbnail land, p2 stalls.
	f := newReportFixture(t, &stallingStore{LocalStorage: local, allowed: 2})
	f.dir = dir
	f.reports.cfg.UploadTimeout = 100 * time.Millisecond
	f.reports.cfg.StoreConcurrency = 1
	sub := ReportSubmission{
		Payload: payload(t, "2024-03-01",
			dto.AktivitasInput{Kategori: "Galian", FotoSebelum: "p1"},
			dto.AktivitasInput{Kategori: "Urug", FotoSebelum: "p2"},
		),
		Files: photoFiles(t, "p1", "p2"),
	}

	start := time.Now()
	_, err = f.reports.Submit(context.Background(), sub, nil)
	requireCode(t, err, appErrors.ErrStorage)
	assert.Less(t, time.Since(start), 5*time.Second)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "timed out")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Zero(t, f.repo.calls)
	assert.Zero(t, f.world.reportCount())
	assert.Empty(t, f.storedFiles(t))
}

func TestReportServiceGet(t *testing.T) {
	f := newReportFixture(t, nil)
	laporan, err := f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2024-03-01")}, nil)
	require.NoError(t, err)

	_, err = f.reports.Get(context.Background(), "not-a-uuid", nil)
	requireCode(t, err, appErrors.ErrReportNotFound)

	_, err = f.reports.Get(context.Background(), "0b7f6a2e-6d1c-4c53-9a57-5b8f8b6d2a11", nil)
	requireCode(t, err, appErrors.ErrReportNotFound)

	_, err = f.reports.Get(context.Background(), laporan.ID, &models.JWTClaims{Role: models.RoleMitra, PartnerName: "Beta"})
	requireCode(t, err, appErrors.ErrForbidden)
}

func TestReportServiceListForWorkItem(t *testing.T) {
	f := newReportFixture(t, nil)
	filter := dto.ReportFilter{PartnerName: "Acme", NomorKontrak: "K-001", NamaPekerjaan: "Urug"}

	list, err := f.reports.ListForWorkItem(context.Background(), filter, nil)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = f.reports.Submit(context.Background(), ReportSubmission{Payload: payload(t, "2024-03-01")}, nil)
	require.NoError(t, err)
	filter.NamaPekerjaan = "Galian"
	list, err = f.reports.ListForWorkItem(context.Background(), filter, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	filter.NamaPekerjaan = "Beton"
	_, err = f.reports.ListForWorkItem(context.Background(), filter, nil)
	requireCode(t, err, appErrors.ErrWorkItemNotFound)

	all, err := f.reports.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/repository"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

// world is an in-memory rendition of the relational store shared by the repository stubs.
type world struct {
	mu        sync.Mutex
	mitras    map[string]models.Mitra
	kontraks  map[models.ContractRef]*models.Kontrak
	reports   map[string]models.Laporan
	createErr error
}

func newWorld() *world {
	return &world{
		mitras:   map[string]models.Mitra{},
		kontraks: map[models.ContractRef]*models.Kontrak{},
		reports:  map[string]models.Laporan{},
	}
}

type mitraRepoStub struct{ w *world }

func (r mitraRepoStub) Create(_ context.Context, m *models.Mitra) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if _, ok := r.w.mitras[m.Nama]; ok {
		return repository.ErrDuplicate
	}
	m.ID = uuid.NewString()
	r.w.mitras[m.Nama] = *m
	return nil
}

func (r mitraRepoStub) FindByName(_ context.Context, nama string) (*models.Mitra, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	m, ok := r.w.mitras[nama]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (r mitraRepoStub) List(context.Context) ([]models.Mitra, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	out := make([]models.Mitra, 0, len(r.w.mitras))
	for _, m := range r.w.mitras {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nama < out[j].Nama })
	return out, nil
}

type kontrakRepoStub struct{ w *world }

func (r kontrakRepoStub) CreateWithWorkItems(_ context.Context, k *models.Kontrak) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if r.w.createErr != nil {
		return r.w.createErr
	}
	ref := models.ContractRef{PartnerName: k.MitraNama, Nomor: k.Nomor}
	if _, ok := r.w.kontraks[ref]; ok {
		return repository.ErrDuplicate
	}
	k.ID = uuid.NewString()
	for i := range k.Pekerjaan {
		k.Pekerjaan[i].ID = uuid.NewString()
		k.Pekerjaan[i].KontrakID = k.ID
		k.Pekerjaan[i].Urutan = i + 1
	}
	stored := *k
	stored.Pekerjaan = append([]models.Pekerjaan(nil), k.Pekerjaan...)
	r.w.kontraks[ref] = &stored
	return nil
}

func (r kontrakRepoStub) FindByRef(_ context.Context, ref models.ContractRef) (*models.Kontrak, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	k, ok := r.w.kontraks[ref]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *k
	return &out, nil
}

func (r kontrakRepoStub) ListByPartner(_ context.Context, partner string) ([]models.Kontrak, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	out := make([]models.Kontrak, 0)
	for ref, k := range r.w.kontraks {
		if ref.PartnerName == partner {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (r kontrakRepoStub) ListAll(context.Context) ([]models.Kontrak, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	out := make([]models.Kontrak, 0, len(r.w.kontraks))
	for _, k := range r.w.kontraks {
		out = append(out, *k)
	}
	return out, nil
}

type pekerjaanRepoStub struct{ w *world }

func (r pekerjaanRepoStub) Create(_ context.Context, item *models.Pekerjaan) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	for _, k := range r.w.kontraks {
		if k.ID != item.KontrakID {
			continue
		}
		for _, existing := range k.Pekerjaan {
			if existing.Nama == item.Nama {
				return repository.ErrDuplicate
			}
		}
		item.ID = uuid.NewString()
		item.Urutan = len(k.Pekerjaan) + 1
		k.Pekerjaan = append(k.Pekerjaan, *item)
		return nil
	}
	return fmt.Errorf("kontrak %s: %w", item.KontrakID, sql.ErrNoRows)
}

func (r pekerjaanRepoStub) ListByKontrak(_ context.Context, kontrakID string) ([]models.Pekerjaan, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	for _, k := range r.w.kontraks {
		if k.ID == kontrakID {
			return append([]models.Pekerjaan{}, k.Pekerjaan...), nil
		}
	}
	return []models.Pekerjaan{}, nil
}

func (r pekerjaanRepoStub) Resolve(_ context.Context, ref models.WorkItemRef) (*models.ResolvedWorkItem, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return r.w.resolveLocked(ref)
}

func (w *world) resolveLocked(ref models.WorkItemRef) (*models.ResolvedWorkItem, error) {
	if _, ok := w.mitras[ref.PartnerName]; !ok {
		return nil, repository.ErrPartnerMissing
	}
	k, ok := w.kontraks[models.ContractRef{PartnerName: ref.PartnerName, Nomor: ref.NomorKontrak}]
	if !ok {
		return nil, repository.ErrContractMissing
	}
	for _, p := range k.Pekerjaan {
		if p.Nama == ref.NamaPekerjaan {
			kontrak := *k
			kontrak.Pekerjaan = nil
			return &models.ResolvedWorkItem{Kontrak: kontrak, Pekerjaan: p}, nil
		}
	}
	return nil, repository.ErrWorkItemMissing
}

type laporanRepoStub struct {
	w     *world
	calls int
}

func (r *laporanRepoStub) Create(_ context.Context, l *models.Laporan) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	r.calls++
	if r.w.createErr != nil {
		return r.w.createErr
	}
	if _, err := r.w.resolveLocked(l.WorkItem()); err != nil {
		return repository.ErrWorkItemMissing
	}
	for _, existing := range r.w.reports {
		if existing.WorkItem() == l.WorkItem() && existing.Tanggal.String() == l.Tanggal.String() && existing.Shift == l.Shift {
			return repository.ErrDuplicate
		}
	}
	l.CreatedAt = time.Now().UTC()
	r.w.reports[l.ID] = *l
	return nil
}

func (r *laporanRepoStub) GetByID(_ context.Context, id string) (*models.Laporan, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	l, ok := r.w.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (r *laporanRepoStub) ListByWorkItem(_ context.Context, ref models.WorkItemRef) ([]models.Laporan, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	out := make([]models.Laporan, 0)
	for _, l := range r.w.reports {
		if l.WorkItem() == ref {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *laporanRepoStub) ListAll(context.Context) ([]models.Laporan, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	out := make([]models.Laporan, 0, len(r.w.reports))
	for _, l := range r.w.reports {
		out = append(out, l)
	}
	return out, nil
}

func (r *laporanRepoStub) ReferencedRefs(_ context.Context, refs []string) ([]string, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	held := map[string]struct{}{}
	for _, l := range r.w.reports {
		for _, ref := range l.AttachmentRefs() {
			held[ref] = struct{}{}
		}
	}
	out := make([]string, 0)
	for _, ref := range refs {
		if _, ok := held[ref]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (w *world) reportCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.reports)
}

// seedAcme registers partner Acme with contract K-001 starting 2024-01-01 for 6 months and
// work items Galian and Urug.
func seedAcme(t *testing.T, w *world) {
	t.Helper()
	partners := NewPartnerService(mitraRepoStub{w}, nil, nil, nil)
	_, err := partners.Create(context.Background(), dtoPartner("Acme"))
	require.NoError(t, err)
	contracts := NewContractService(kontrakRepoStub{w}, mitraRepoStub{w}, nil, nil, nil)
	_, err = contracts.Create(context.Background(), dtoContract("Acme", "K-001", "2024-01-01", 6, "Galian", "Urug"))
	require.NoError(t, err)
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func requireCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want.Code, appErrors.FromError(err).Code, "unexpected error: %v", err)
}

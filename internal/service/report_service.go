package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/repository"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/logger"
)

type laporanRepository interface {
	Create(ctx context.Context, laporan *models.Laporan) error
	GetByID(ctx context.Context, id string) (*models.Laporan, error)
	ListByWorkItem(ctx context.Context, ref models.WorkItemRef) ([]models.Laporan, error)
	ListAll(ctx context.Context) ([]models.Laporan, error)
}

type workItemResolver interface {
	Resolve(ctx context.Context, ref models.WorkItemRef) (*models.ResolvedWorkItem, error)
}

type attachmentStore interface {
	Validate(meta models.AttachmentMeta, data []byte) error
	Store(ctx context.Context, data []byte, meta models.AttachmentMeta) (*models.StoredAttachment, error)
	Discard(ctx context.Context, refs []string)
}

// UploadedFile is one binary part of a submission.
type UploadedFile struct {
	Meta models.AttachmentMeta
	Data []byte
}

// ReportSubmission is the raw input of the pipeline: the JSON payload and the file parts keyed
// by multipart field name.
type ReportSubmission struct {
	Payload []byte
	Files   map[string][]UploadedFile
}

// ReportConfig tunes the submission pipeline.
type ReportConfig struct {
	UploadTimeout    time.Duration
	StoreConcurrency int
}

// ReportService runs the report submission pipeline and serves committed reports.
type ReportService struct {
	repo        laporanRepository
	workItems   workItemResolver
	attachments attachmentStore
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ReportConfig
}

// NewReportService constructs the service.
func NewReportService(repo laporanRepository, workItems workItemResolver, attachments attachmentStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ReportConfig) *ReportService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 20 * time.Second
	}
	if cfg.StoreConcurrency <= 0 {
		cfg.StoreConcurrency = 4
	}
	return &ReportService{
		repo:        repo,
		workItems:   workItems,
		attachments: attachments,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// photoSlot ties a file part to the activity field it fills.
type photoSlot struct {
	field     string
	aktivitas int
	sesudah   bool
}

// Submit validates and commits a report with its attachments as one unit. On any failure no
// report is visible and every attachment stored for this submission is discarded.
func (s *ReportService) Submit(ctx context.Context, sub ReportSubmission, actor *models.JWTClaims) (*models.Laporan, error) {
	log := logger.ForContext(ctx, s.logger)
	laporan, resolvedRef, slots, err := s.prepare(ctx, sub, actor)
	if err != nil {
		s.metrics.RecordSubmission(OutcomeRejected)
		return nil, err
	}

	stored, err := s.storeAttachments(ctx, sub.Files, slots)
	if err != nil {
		s.attachments.Discard(context.WithoutCancel(ctx), refsOf(stored))
		s.metrics.RecordSubmission(OutcomeRolledBack)
		log.Error("report submission rolled back", zap.String("stage", "attachments"), zap.Error(err))
		return nil, err
	}
	for i, slot := range slots {
		ref := stored[i].Ref
		if slot.sesudah {
			laporan.Aktivitas[slot.aktivitas].FotoSesudah = &ref
		} else {
			laporan.Aktivitas[slot.aktivitas].FotoSebelum = &ref
		}
	}

	if err := s.repo.Create(ctx, laporan); err != nil {
		s.attachments.Discard(context.WithoutCancel(ctx), refsOf(stored))
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.RecordSubmission(OutcomeRejected)
			return nil, appErrors.Clone(appErrors.ErrConflict, "report already submitted for this date and shift")
		case errors.Is(err, repository.ErrWorkItemMissing):
			s.metrics.RecordSubmission(OutcomeRejected)
			return nil, workItemNotFound(resolvedRef)
		}
		s.metrics.RecordSubmission(OutcomeRolledBack)
		log.Error("report submission rolled back", zap.String("stage", "persist"), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to persist report")
	}

	s.metrics.RecordSubmission(OutcomeCommitted)
	s.cache.Invalidate(ctx, laporanListKey(resolvedRef), laporanAllKey())
	log.Info("report committed",
		zap.String("id", laporan.ID),
		zap.String("partner", laporan.MitraNama),
		zap.String("nomor", laporan.NomorKontrak),
		zap.String("pekerjaan", laporan.NamaPekerjaan),
		zap.String("shift", string(laporan.Shift)),
		zap.Int("attachments", len(stored)),
	)
	return laporan, nil
}

// prepare runs every check that needs no writes and returns the report to persist together
// with the photo slots still to be filled.
func (s *ReportService) prepare(ctx context.Context, sub ReportSubmission, actor *models.JWTClaims) (*models.Laporan, models.WorkItemRef, []photoSlot, error) {
	var payload dto.ReportPayload
	decoder := json.NewDecoder(bytes.NewReader(sub.Payload))
	if err := decoder.Decode(&payload); err != nil {
		return nil, models.WorkItemRef{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed report payload")
	}
	if decoder.More() {
		return nil, models.WorkItemRef{}, nil, invalid("malformed report payload: trailing data")
	}
	payload.PartnerName = strings.TrimSpace(payload.PartnerName)
	payload.NomorKontrak = strings.TrimSpace(payload.NomorKontrak)
	payload.NamaPekerjaan = strings.TrimSpace(payload.NamaPekerjaan)
	if err := s.validator.Struct(payload); err != nil {
		return nil, models.WorkItemRef{}, nil, validationError(err, "invalid report payload")
	}
	tanggal, err := models.ParseDate(payload.Tanggal)
	if err != nil {
		return nil, models.WorkItemRef{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "tanggal must be a valid YYYY-MM-DD date")
	}
	if err := authorizePartner(actor, payload.PartnerName); err != nil {
		return nil, models.WorkItemRef{}, nil, err
	}

	ref := models.WorkItemRef{PartnerName: payload.PartnerName, NomorKontrak: payload.NomorKontrak, NamaPekerjaan: payload.NamaPekerjaan}
	resolved, err := s.workItems.Resolve(ctx, ref)
	if err != nil {
		return nil, ref, nil, err
	}
	if !resolved.Kontrak.Covers(tanggal) {
		return nil, ref, nil, invalid(fmt.Sprintf("report date outside contract period: %s is not within [%s, %s)",
			tanggal, resolved.Kontrak.Tanggal, resolved.Kontrak.Berakhir()))
	}

	slots, err := matchPhotos(payload.Aktivitas, sub.Files)
	if err != nil {
		return nil, ref, nil, err
	}
	for _, slot := range slots {
		file := sub.Files[slot.field][0]
		if err := s.attachments.Validate(file.Meta, file.Data); err != nil {
			return nil, ref, nil, err
		}
	}

	laporan := &models.Laporan{
		ID:            uuid.NewString(),
		MitraNama:     resolved.Kontrak.MitraNama,
		NomorKontrak:  resolved.Kontrak.Nomor,
		NamaPekerjaan: resolved.Pekerjaan.Nama,
		Tanggal:       tanggal,
		Shift:         models.Shift(payload.Shift),
		TenagaKerja:   make([]models.TenagaKerja, 0, len(payload.TenagaKerja)),
		Aktivitas:     make([]models.Aktivitas, 0, len(payload.Aktivitas)),
	}
	if actor != nil {
		laporan.DibuatOleh = actor.UserID
	}
	for _, tk := range payload.TenagaKerja {
		laporan.TenagaKerja = append(laporan.TenagaKerja, models.TenagaKerja{
			Nama:       strings.TrimSpace(tk.Nama),
			Jabatan:    strings.TrimSpace(tk.Jabatan),
			Keterangan: strings.TrimSpace(tk.Keterangan),
		})
	}
	for _, akt := range payload.Aktivitas {
		laporan.Aktivitas = append(laporan.Aktivitas, models.Aktivitas{
			Kategori:  strings.TrimSpace(akt.Kategori),
			Deskripsi: strings.TrimSpace(akt.Deskripsi),
		})
	}
	return laporan, ref, slots, nil
}

// matchPhotos pairs activity placeholders with uploaded parts. Every placeholder needs exactly
// one part, a part may fill only one placeholder, and every part must be used.
func matchPhotos(activities []dto.AktivitasInput, files map[string][]UploadedFile) ([]photoSlot, error) {
	slots := make([]photoSlot, 0)
	used := make(map[string]int)
	for i, akt := range activities {
		for _, candidate := range []struct {
			field   string
			sesudah bool
			label   string
		}{
			{strings.TrimSpace(akt.FotoSebelum), false, "fotoSebelum"},
			{strings.TrimSpace(akt.FotoSesudah), true, "fotoSesudah"},
		} {
			if candidate.field == "" {
				continue
			}
			parts := files[candidate.field]
			if len(parts) == 0 {
				return nil, invalid(fmt.Sprintf("aktivitas[%d].%s references file %q but no such file was uploaded", i, candidate.label, candidate.field))
			}
			if len(parts) > 1 {
				return nil, invalid(fmt.Sprintf("file field %q carries %d files; exactly one is allowed", candidate.field, len(parts)))
			}
			if prev, dup := used[candidate.field]; dup {
				return nil, invalid(fmt.Sprintf("file %q is referenced by aktivitas[%d] and aktivitas[%d]; each photo may be used once", candidate.field, prev, i))
			}
			used[candidate.field] = i
			slots = append(slots, photoSlot{field: candidate.field, aktivitas: i, sesudah: candidate.sesudah})
		}
	}

	orphans := make([]string, 0)
	for field, parts := range files {
		if _, ok := used[field]; !ok && len(parts) > 0 {
			orphans = append(orphans, field)
		}
	}
	if len(orphans) > 0 {
		sort.Strings(orphans)
		return nil, invalid(fmt.Sprintf("uploaded files not referenced by any activity: %s", strings.Join(orphans, ", ")))
	}
	return slots, nil
}

// storeAttachments writes every slot concurrently under the upload timeout. The returned slice
// is index-aligned with slots; on error it holds whatever was stored before the failure.
func (s *ReportService) storeAttachments(ctx context.Context, files map[string][]UploadedFile, slots []photoSlot) ([]*models.StoredAttachment, error) {
	stored := make([]*models.StoredAttachment, len(slots))
	if len(slots) == 0 {
		return stored, nil
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(uploadCtx)
	g.SetLimit(s.cfg.StoreConcurrency)
	for i, slot := range slots {
		i, file := i, files[slot.field][0]
		g.Go(func() error {
			res, err := s.attachments.Store(gctx, file.Data, file.Meta)
			if err != nil {
				return err
			}
			stored[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return stored, err
		}
		return stored, appErrors.Storage(err, "failed to store attachments")
	}
	return stored, nil
}

// Get returns a committed report.
func (s *ReportService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Laporan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrReportNotFound, fmt.Sprintf("report %q not found", id))
	}
	laporan, err := cached(ctx, s.cache, laporanKey(id), func(ctx context.Context) (*models.Laporan, error) {
		laporan, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return nil, appErrors.Clone(appErrors.ErrReportNotFound, fmt.Sprintf("report %q not found", id))
			}
			return nil, appErrors.Internal(err, "failed to load report")
		}
		return laporan, nil
	})
	if err != nil {
		return nil, err
	}
	if err := authorizePartner(actor, laporan.MitraNama); err != nil {
		return nil, err
	}
	return laporan, nil
}

// ListForWorkItem returns the reports filed against a work item. An existing work item
// without reports yields an empty slice.
func (s *ReportService) ListForWorkItem(ctx context.Context, filter dto.ReportFilter, actor *models.JWTClaims) ([]models.Laporan, error) {
	ref := models.WorkItemRef{
		PartnerName:   strings.TrimSpace(filter.PartnerName),
		NomorKontrak:  strings.TrimSpace(filter.NomorKontrak),
		NamaPekerjaan: strings.TrimSpace(filter.NamaPekerjaan),
	}
	if ref.PartnerName == "" || ref.NomorKontrak == "" || ref.NamaPekerjaan == "" {
		return nil, invalid("partnerName, nomorKontrak and namaPekerjaan are required")
	}
	if err := authorizePartner(actor, ref.PartnerName); err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, laporanListKey(ref), func(ctx context.Context) ([]models.Laporan, error) {
		if _, err := s.workItems.Resolve(ctx, ref); err != nil {
			return nil, err
		}
		list, err := s.repo.ListByWorkItem(ctx, ref)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list reports")
		}
		return list, nil
	})
}

// ListAll returns every committed report.
func (s *ReportService) ListAll(ctx context.Context) ([]models.Laporan, error) {
	return cached(ctx, s.cache, laporanAllKey(), func(ctx context.Context) ([]models.Laporan, error) {
		list, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list reports")
		}
		return list, nil
	})
}

func refsOf(stored []*models.StoredAttachment) []string {
	refs := make([]string, 0, len(stored))
	for _, att := range stored {
		if att != nil {
			refs = append(refs, att.Ref)
		}
	}
	return refs
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/jobs"
	"github.com/noah-isme/mitra-laporan-api/pkg/logger"
	"github.com/noah-isme/mitra-laporan-api/pkg/storage"
)

const (
	attachmentPrefix = "lampiran"
	thumbSuffix      = ".thumb.jpg"
	referenceBatch   = 500
)

const (
	// JobTypeDeleteAttachment is the reaper job type for compensating deletes.
	JobTypeDeleteAttachment = "attachment.delete"
	// VariantThumb selects the thumbnail of an attachment.
	VariantThumb = "thumb"
)

type objectStore interface {
	Create(ctx context.Context, ref string, r io.Reader) (int64, error)
	Open(ref string) (*os.File, error)
	Delete(ref string) error
	ListOlderThan(cutoff time.Time) ([]string, error)
}

type referenceChecker interface {
	ReferencedRefs(ctx context.Context, refs []string) ([]string, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

type urlSigner interface {
	Generate(ref string) (string, time.Time, error)
	Parse(token string) (string, time.Time, error)
}

// AttachmentConfig bounds what the attachment store accepts.
type AttachmentConfig struct {
	MaxFileSize   int64
	AllowedMIMEs  []string
	ThumbnailSize int
	OrphanGrace   time.Duration
	DownloadPath  string
}

// AttachmentLink is a time-limited download location for a stored attachment.
type AttachmentLink struct {
	URL       string    `json:"url"`
	ThumbURL  string    `json:"thumbUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AttachmentService stores write-once photo evidence and cleans up orphans.
type AttachmentService struct {
	store   objectStore
	refs    referenceChecker
	signer  urlSigner
	reaper  jobQueue
	metrics *MetricsService
	logger  *zap.Logger
	cfg     AttachmentConfig
	now     func() time.Time
}

// NewAttachmentService constructs the service. The reaper queue may be attached later with
// SetReaper once it is started.
func NewAttachmentService(store objectStore, refs referenceChecker, signer urlSigner, metrics *MetricsService, logger *zap.Logger, cfg AttachmentConfig) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png"}
	}
	if cfg.OrphanGrace <= 0 {
		cfg.OrphanGrace = time.Hour
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/lampiran/download"
	}
	return &AttachmentService{
		store:   store,
		refs:    refs,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetReaper attaches the queue that retries failed compensating deletes.
func (s *AttachmentService) SetReaper(q jobQueue) {
	s.reaper = q
}

// Validate checks size, content type and that the content decodes as an image.
func (s *AttachmentService) Validate(meta models.AttachmentMeta, data []byte) error {
	name := meta.FieldName
	if len(data) == 0 {
		return invalid(fmt.Sprintf("file %q is empty", name))
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return invalid(fmt.Sprintf("file %q exceeds the maximum size of %d bytes", name, s.cfg.MaxFileSize))
	}
	sniffed := sniffContentType(data)
	if !s.allowed(sniffed) {
		return invalid(fmt.Sprintf("file %q has unsupported content type %s", name, sniffed))
	}
	if _, err := storage.InspectPhoto(data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("file %q is not a readable image", name))
	}
	return nil
}

// Store persists data under a fresh reference. The original bytes are written unchanged and a
// JPEG thumbnail is written next to them. Any failure, including ctx expiry, is a storage error
// and leaves nothing behind.
func (s *AttachmentService) Store(ctx context.Context, data []byte, meta models.AttachmentMeta) (*models.StoredAttachment, error) {
	contentType := sniffContentType(data)
	now := s.now().UTC()
	ref := path.Join(attachmentPrefix, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())),
		uuid.NewString()+extensionFor(contentType, meta.FileName))

	written, err := s.store.Create(ctx, ref, bytes.NewReader(data))
	s.metrics.RecordAttachmentOp("store", err, written)
	if err != nil {
		return nil, storageFailure(ctx, err, meta.FieldName)
	}

	stored := &models.StoredAttachment{Ref: ref, ContentType: contentType, Size: written}
	if s.cfg.ThumbnailSize > 0 {
		thumb, err := storage.Thumbnail(data, s.cfg.ThumbnailSize)
		if err != nil {
			s.logger.Warn("thumbnail skipped", zap.String("ref", ref), zap.Error(err))
			return stored, nil
		}
		if _, err := s.store.Create(ctx, thumbRef(ref), bytes.NewReader(thumb)); err != nil {
			if delErr := s.store.Delete(ref); delErr != nil {
				s.enqueueDelete(ref, delErr)
			}
			return nil, storageFailure(ctx, err, meta.FieldName)
		}
		stored.ThumbRef = thumbRef(ref)
	}
	return stored, nil
}

// Retrieve returns the stored bytes of ref.
func (s *AttachmentService) Retrieve(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Storage(err, "attachment retrieval cancelled")
	}
	file, err := s.store.Open(ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidRef) {
			return nil, appErrors.Clone(appErrors.ErrAttachmentNotFound, fmt.Sprintf("attachment %q not found", ref))
		}
		return nil, appErrors.Storage(err, "failed to open attachment")
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to read attachment")
	}
	return data, nil
}

// Download resolves a signed token and returns the content and its type.
func (s *AttachmentService) Download(ctx context.Context, token, variant string) ([]byte, string, error) {
	ref, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	switch variant {
	case "":
	case VariantThumb:
		ref = thumbRef(ref)
	default:
		return nil, "", invalid(fmt.Sprintf("unknown variant %q", variant))
	}
	data, err := s.Retrieve(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	return data, sniffContentType(data), nil
}

// Links signs a download URL for every ref.
func (s *AttachmentService) Links(refs []string) (map[string]AttachmentLink, error) {
	links := make(map[string]AttachmentLink, len(refs))
	for _, ref := range refs {
		token, expiresAt, err := s.signer.Generate(ref)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign attachment url")
		}
		u := s.cfg.DownloadPath + "?token=" + url.QueryEscape(token)
		links[ref] = AttachmentLink{URL: u, ThumbURL: u + "&variant=" + VariantThumb, ExpiresAt: expiresAt}
	}
	return links, nil
}

// Discard removes attachments written by a submission that did not commit. Deletes that fail
// are handed to the reaper queue; anything still left is collected by SweepOrphans.
func (s *AttachmentService) Discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		for _, target := range []string{ref, thumbRef(ref)} {
			err := s.store.Delete(target)
			s.metrics.RecordAttachmentOp("discard", err, 0)
			if err != nil {
				s.enqueueDelete(target, err)
			}
		}
	}
	if len(refs) > 0 {
		logger.ForContext(ctx, s.logger).Warn("discarded attachments of failed submission", zap.Strings("refs", refs))
	}
}

// HandleReapJob is the reaper queue handler.
func (s *AttachmentService) HandleReapJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeDeleteAttachment {
		return fmt.Errorf("unsupported job type %q", job.Type)
	}
	err := s.store.Delete(job.Payload)
	s.metrics.RecordAttachmentOp("reap", err, 0)
	return err
}

// SweepOrphans deletes stored attachments older than the grace period that no committed
// activity references, and returns the deleted refs.
func (s *AttachmentService) SweepOrphans(ctx context.Context) ([]string, error) {
	cutoff := s.now().Add(-s.cfg.OrphanGrace)
	listed, err := s.store.ListOlderThan(cutoff)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list attachments")
	}

	owners := make([]string, 0, len(listed))
	seen := make(map[string]struct{}, len(listed))
	for _, ref := range listed {
		if !strings.HasPrefix(ref, attachmentPrefix+"/") {
			continue
		}
		owner := strings.TrimSuffix(ref, thumbSuffix)
		if _, ok := seen[owner]; !ok {
			seen[owner] = struct{}{}
			owners = append(owners, owner)
		}
	}

	referenced := make(map[string]struct{}, len(owners))
	for start := 0; start < len(owners); start += referenceBatch {
		end := start + referenceBatch
		if end > len(owners) {
			end = len(owners)
		}
		found, err := s.refs.ReferencedRefs(ctx, owners[start:end])
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check attachment references")
		}
		for _, ref := range found {
			referenced[ref] = struct{}{}
		}
	}

	deleted := make([]string, 0)
	for _, ref := range listed {
		if _, ok := seen[strings.TrimSuffix(ref, thumbSuffix)]; !ok {
			continue
		}
		if _, ok := referenced[strings.TrimSuffix(ref, thumbSuffix)]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		err := s.store.Delete(ref)
		s.metrics.RecordAttachmentOp("sweep", err, 0)
		if err != nil {
			s.logger.Warn("orphan delete failed", zap.String("ref", ref), zap.Error(err))
			continue
		}
		deleted = append(deleted, ref)
	}
	if len(deleted) > 0 {
		s.logger.Info("orphan attachments swept", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

func (s *AttachmentService) enqueueDelete(ref string, cause error) {
	if s.reaper == nil {
		s.logger.Error("attachment delete failed and no reaper configured", zap.String("ref", ref), zap.Error(cause))
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeDeleteAttachment, Payload: ref}
	if err := s.reaper.Enqueue(job); err != nil {
		s.logger.Error("failed to enqueue attachment delete", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *AttachmentService) allowed(contentType string) bool {
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
	}
	return false
}

func storageFailure(ctx context.Context, err error, field string) *appErrors.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return appErrors.Storage(err, fmt.Sprintf("upload of %q timed out", field))
	}
	return appErrors.Storage(err, fmt.Sprintf("failed to store %q", field))
}

func thumbRef(ref string) string {
	return ref + thumbSuffix
}

func sniffContentType(data []byte) string {
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}

func extensionFor(contentType, fileName string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	}
	if ext := strings.ToLower(path.Ext(fileName)); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".bin"
}

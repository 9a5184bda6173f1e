package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/repository"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

type mitraRepository interface {
	Create(ctx context.Context, mitra *models.Mitra) error
	FindByName(ctx context.Context, nama string) (*models.Mitra, error)
	List(ctx context.Context) ([]models.Mitra, error)
}

// PartnerService owns the partner registry.
type PartnerService struct {
	repo      mitraRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPartnerService constructs the service.
func NewPartnerService(repo mitraRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PartnerService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create registers a partner. Names are unique and compared exactly.
func (s *PartnerService) Create(ctx context.Context, req dto.CreatePartnerRequest) (*models.Mitra, error) {
	req.Nama = strings.TrimSpace(req.Nama)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid partner payload")
	}

	mitra := &models.Mitra{
		Nama:            req.Nama,
		Email:           strings.TrimSpace(req.Email),
		Telepon:         strings.TrimSpace(req.Telepon),
		Alamat:          strings.TrimSpace(req.Alamat),
		PenanggungJawab: strings.TrimSpace(req.PenanggungJawab),
	}
	if err := s.repo.Create(ctx, mitra); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("partner %q already exists", req.Nama))
		}
		return nil, appErrors.Internal(err, "failed to create partner")
	}

	s.cache.Invalidate(ctx, mitraListKey(), mitraKey(mitra.Nama))
	s.logger.Info("partner created", zap.String("partner", mitra.Nama))
	return mitra, nil
}

// Get returns a partner by name.
func (s *PartnerService) Get(ctx context.Context, nama string) (*models.Mitra, error) {
	nama = strings.TrimSpace(nama)
	if nama == "" {
		return nil, invalid("partner name is required")
	}
	return cached(ctx, s.cache, mitraKey(nama), func(ctx context.Context) (*models.Mitra, error) {
		return requirePartner(ctx, s.repo, nama)
	})
}

// List returns every partner ordered by name.
func (s *PartnerService) List(ctx context.Context) ([]models.Mitra, error) {
	return cached(ctx, s.cache, mitraListKey(), func(ctx context.Context) ([]models.Mitra, error) {
		mitras, err := s.repo.List(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list partners")
		}
		return mitras, nil
	})
}

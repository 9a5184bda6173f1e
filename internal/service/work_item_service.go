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

type pekerjaanRepository interface {
	Create(ctx context.Context, item *models.Pekerjaan) error
	ListByKontrak(ctx context.Context, kontrakID string) ([]models.Pekerjaan, error)
	Resolve(ctx context.Context, ref models.WorkItemRef) (*models.ResolvedWorkItem, error)
}

// WorkItemService owns the work item catalog and chain resolution.
type WorkItemService struct {
	repo      pekerjaanRepository
	partners  partnerLookup
	contracts contractLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkItemService constructs the service.
func NewWorkItemService(repo pekerjaanRepository, partners partnerLookup, contracts contractLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *WorkItemService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkItemService{repo: repo, partners: partners, contracts: contracts, cache: cache, validator: validate, logger: logger}
}

// Create appends a work item to an existing contract.
func (s *WorkItemService) Create(ctx context.Context, req dto.CreateWorkItemRequest) (*models.Pekerjaan, error) {
	req.PartnerName = strings.TrimSpace(req.PartnerName)
	req.NomorKontrak = strings.TrimSpace(req.NomorKontrak)
	req.Nama = strings.TrimSpace(req.Nama)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid work item payload")
	}

	ref := models.ContractRef{PartnerName: req.PartnerName, Nomor: req.NomorKontrak}
	kontrak, err := requireContract(ctx, s.partners, s.contracts, ref)
	if err != nil {
		return nil, err
	}

	item := &models.Pekerjaan{KontrakID: kontrak.ID, Nama: req.Nama}
	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("work item %q already exists in contract %q", req.Nama, req.NomorKontrak))
		}
		return nil, appErrors.Internal(err, "failed to create work item")
	}

	s.cache.Invalidate(ctx, workItemsKey(ref), kontrakAllKey(), kontrakListKey(ref.PartnerName))
	return item, nil
}

// List returns the work items of a contract in declared order.
func (s *WorkItemService) List(ctx context.Context, ref models.ContractRef) ([]models.Pekerjaan, error) {
	ref.PartnerName = strings.TrimSpace(ref.PartnerName)
	ref.Nomor = strings.TrimSpace(ref.Nomor)
	if ref.PartnerName == "" || ref.Nomor == "" {
		return nil, invalid("partnerName and nomorKontrak are required")
	}
	return cached(ctx, s.cache, workItemsKey(ref), func(ctx context.Context) ([]models.Pekerjaan, error) {
		kontrak, err := requireContract(ctx, s.partners, s.contracts, ref)
		if err != nil {
			return nil, err
		}
		items, err := s.repo.ListByKontrak(ctx, kontrak.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list work items")
		}
		return items, nil
	})
}

// Resolve walks partner -> contract -> work item and reports which link is missing.
func (s *WorkItemService) Resolve(ctx context.Context, ref models.WorkItemRef) (*models.ResolvedWorkItem, error) {
	resolved, err := s.repo.Resolve(ctx, ref)
	if err != nil {
		return nil, mapChainError(err, ref)
	}
	return resolved, nil
}

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
	"github.com/noah-isme/mitra-laporan-api/pkg/logger"
)

type kontrakRepository interface {
	CreateWithWorkItems(ctx context.Context, kontrak *models.Kontrak) error
	FindByRef(ctx context.Context, ref models.ContractRef) (*models.Kontrak, error)
	ListByPartner(ctx context.Context, partnerName string) ([]models.Kontrak, error)
	ListAll(ctx context.Context) ([]models.Kontrak, error)
}

// ContractService owns the contract ledger.
type ContractService struct {
	repo      kontrakRepository
	partners  partnerLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContractService constructs the service.
func NewContractService(repo kontrakRepository, partners partnerLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ContractService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{repo: repo, partners: partners, cache: cache, validator: validate, logger: logger}
}

// Create stores a contract and its declared work items in one transaction.
func (s *ContractService) Create(ctx context.Context, req dto.CreateContractRequest) (*models.Kontrak, error) {
	req.PartnerName = strings.TrimSpace(req.PartnerName)
	req.Nama = strings.TrimSpace(req.Nama)
	req.Nomor = strings.TrimSpace(req.Nomor)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid contract payload")
	}
	tanggal, err := models.ParseDate(req.Tanggal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "tanggal must be a valid YYYY-MM-DD date")
	}

	items := make([]models.Pekerjaan, 0, len(req.PekerjaanArr))
	seen := make(map[string]struct{}, len(req.PekerjaanArr))
	for i, raw := range req.PekerjaanArr {
		nama := strings.TrimSpace(raw)
		if nama == "" {
			return nil, invalid(fmt.Sprintf("pekerjaan_arr[%d] must not be blank", i))
		}
		if _, dup := seen[nama]; dup {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("work item %q is declared more than once", nama))
		}
		seen[nama] = struct{}{}
		items = append(items, models.Pekerjaan{Nama: nama})
	}

	if _, err := requirePartner(ctx, s.partners, req.PartnerName); err != nil {
		return nil, err
	}

	kontrak := &models.Kontrak{
		MitraNama:   req.PartnerName,
		Nama:        req.Nama,
		Nomor:       req.Nomor,
		Tanggal:     tanggal,
		Nilai:       req.Nilai,
		JangkaWaktu: req.JangkaWaktu,
		Pekerjaan:   items,
	}
	if err := s.repo.CreateWithWorkItems(ctx, kontrak); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("contract %q already exists for partner %q", req.Nomor, req.PartnerName))
		}
		logger.ForContext(ctx, s.logger).Error("contract transaction rolled back", zap.String("partner", req.PartnerName), zap.String("nomor", req.Nomor), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create contract")
	}

	s.cache.Invalidate(ctx, kontrakAllKey(), kontrakListKey(kontrak.MitraNama),
		workItemsKey(models.ContractRef{PartnerName: kontrak.MitraNama, Nomor: kontrak.Nomor}))
	s.logger.Info("contract created",
		zap.String("partner", kontrak.MitraNama),
		zap.String("nomor", kontrak.Nomor),
		zap.Int("work_items", len(kontrak.Pekerjaan)),
	)
	return kontrak, nil
}

// ListForPartner returns the contracts of one partner.
func (s *ContractService) ListForPartner(ctx context.Context, partnerName string) ([]models.Kontrak, error) {
	partnerName = strings.TrimSpace(partnerName)
	return cached(ctx, s.cache, kontrakListKey(partnerName), func(ctx context.Context) ([]models.Kontrak, error) {
		if _, err := requirePartner(ctx, s.partners, partnerName); err != nil {
			return nil, err
		}
		kontraks, err := s.repo.ListByPartner(ctx, partnerName)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list contracts")
		}
		return kontraks, nil
	})
}

// ListAll returns every contract.
func (s *ContractService) ListAll(ctx context.Context) ([]models.Kontrak, error) {
	return cached(ctx, s.cache, kontrakAllKey(), func(ctx context.Context) ([]models.Kontrak, error) {
		kontraks, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list contracts")
		}
		return kontraks, nil
	})
}

// Get returns one contract with its work items.
func (s *ContractService) Get(ctx context.Context, ref models.ContractRef) (*models.Kontrak, error) {
	return requireContract(ctx, s.partners, s.repo, ref)
}

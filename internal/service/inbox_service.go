package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

type inboxRepository interface {
	Append(ctx context.Context, msg *models.InboxMessage) error
	ListByPartner(ctx context.Context, partnerName string) ([]models.InboxMessage, error)
}

// InboxService is the append-only message channel addressed by partner name. Messages are not
// tied to a registered partner.
type InboxService struct {
	repo      inboxRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInboxService constructs the service.
func NewInboxService(repo inboxRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *InboxService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboxService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create appends a message.
func (s *InboxService) Create(ctx context.Context, req dto.CreateInboxMessageRequest, actor *models.JWTClaims) (*models.InboxMessage, error) {
	recipient := req.Recipient()
	if recipient == "" {
		return nil, invalid("partnerName is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid inbox message")
	}
	if err := authorizePartner(actor, recipient); err != nil {
		return nil, err
	}

	msg := &models.InboxMessage{
		MitraNama: recipient,
		Subjek:    strings.TrimSpace(req.Subject),
		Konten:    req.Content,
	}
	if err := s.repo.Append(ctx, msg); err != nil {
		return nil, appErrors.Internal(err, "failed to store inbox message")
	}
	s.cache.Invalidate(ctx, inboxKey(recipient))
	s.logger.Debug("inbox message stored", zap.String("partner", recipient), zap.Int64("seq", msg.Seq))
	return msg, nil
}

// List returns a partner's messages in the order they were received.
func (s *InboxService) List(ctx context.Context, partnerName string, actor *models.JWTClaims) ([]models.InboxMessage, error) {
	partnerName = strings.TrimSpace(partnerName)
	if partnerName == "" {
		return nil, invalid("partnerName is required")
	}
	if err := authorizePartner(actor, partnerName); err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, inboxKey(partnerName), func(ctx context.Context) ([]models.InboxMessage, error) {
		messages, err := s.repo.ListByPartner(ctx, partnerName)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list inbox messages")
		}
		return messages, nil
	})
}

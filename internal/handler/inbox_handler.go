package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/middleware"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/response"
)

type inboxService interface {
	Create(ctx context.Context, req dto.CreateInboxMessageRequest, actor *models.JWTClaims) (*models.InboxMessage, error)
	List(ctx context.Context, partnerName string, actor *models.JWTClaims) ([]models.InboxMessage, error)
}

// InboxHandler exposes the partner message channel.
type InboxHandler struct {
	inbox inboxService
}

// NewInboxHandler constructs the handler.
func NewInboxHandler(inbox inboxService) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

// Create godoc
// @Summary Send inbox message
// @Tags Inbox
// @Accept json
// @Produce json
// @Param payload body dto.CreateInboxMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inbox [post]
func (h *InboxHandler) Create(c *gin.Context) {
	var req dto.CreateInboxMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inbox message"))
		return
	}
	msg, err := h.inbox.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg, middleware.ExtractMeta(c))
}

// List godoc
// @Summary Read inbox messages
// @Tags Inbox
// @Produce json
// @Param partnerName query string true "Partner name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inbox [get]
func (h *InboxHandler) List(c *gin.Context) {
	partner, err := scopedPartner(c, c.Query("partnerName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	messages, err := h.inbox.List(c.Request.Context(), partner, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, messages, middleware.ExtractMeta(c))
}

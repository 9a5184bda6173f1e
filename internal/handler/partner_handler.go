package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/middleware"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/response"
)

type partnerService interface {
	Create(ctx context.Context, req dto.CreatePartnerRequest) (*models.Mitra, error)
	Get(ctx context.Context, nama string) (*models.Mitra, error)
	List(ctx context.Context) ([]models.Mitra, error)
}

// PartnerHandler exposes the partner registry.
type PartnerHandler struct {
	partners partnerService
}

// NewPartnerHandler constructs the handler.
func NewPartnerHandler(partners partnerService) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

// Create godoc
// @Summary Register partner
// @Tags Mitra
// @Accept json
// @Produce json
// @Param payload body dto.CreatePartnerRequest true "Partner"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mitra [post]
func (h *PartnerHandler) Create(c *gin.Context) {
	var req dto.CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid partner payload"))
		return
	}
	mitra, err := h.partners.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mitra, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List partners
// @Tags Mitra
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /mitra [get]
func (h *PartnerHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims != nil && !claims.IsAdmin() {
		mitra, err := h.partners.Get(c.Request.Context(), claims.PartnerName)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, []models.Mitra{*mitra}, nil, middleware.ExtractMeta(c))
		return
	}
	mitras, err := h.partners.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, mitras, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get partner
// @Tags Mitra
// @Produce json
// @Param nama path string true "Partner name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mitra/{nama} [get]
func (h *PartnerHandler) Get(c *gin.Context) {
	nama, err := scopedPartner(c, c.Param("nama"))
	if err != nil {
		response.Error(c, err)
		return
	}
	mitra, err := h.partners.Get(c.Request.Context(), nama)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mitra, nil, middleware.ExtractMeta(c))
}

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

type contractService interface {
	Create(ctx context.Context, req dto.CreateContractRequest) (*models.Kontrak, error)
	ListForPartner(ctx context.Context, partnerName string) ([]models.Kontrak, error)
	ListAll(ctx context.Context) ([]models.Kontrak, error)
	Get(ctx context.Context, ref models.ContractRef) (*models.Kontrak, error)
}

type workItemService interface {
	Create(ctx context.Context, req dto.CreateWorkItemRequest) (*models.Pekerjaan, error)
	List(ctx context.Context, ref models.ContractRef) ([]models.Pekerjaan, error)
}

// ContractHandler exposes the contract ledger and the work item catalog.
type ContractHandler struct {
	contracts contractService
	workItems workItemService
}

// NewContractHandler constructs the handler.
func NewContractHandler(contracts contractService, workItems workItemService) *ContractHandler {
	return &ContractHandler{contracts: contracts, workItems: workItems}
}

// Create godoc
// @Summary Create contract with its work items
// @Tags Kontrak
// @Accept json
// @Produce json
// @Param payload body dto.CreateContractRequest true "Contract"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /kontrak [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var req dto.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contract payload"))
		return
	}
	kontrak, err := h.contracts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, kontrak, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List contracts
// @Tags Kontrak
// @Produce json
// @Param partnerName query string false "Partner name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /kontrak [get]
func (h *ContractHandler) List(c *gin.Context) {
	partner, err := scopedPartner(c, c.Query("partnerName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var kontraks []models.Kontrak
	if partner == "" {
		kontraks, err = h.contracts.ListAll(c.Request.Context())
	} else {
		kontraks, err = h.contracts.ListForPartner(c.Request.Context(), partner)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, kontraks, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Contract detail
// @Tags Kontrak
// @Produce json
// @Param nomor path string true "Contract number"
// @Param partnerName query string false "Partner name"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /kontrak/{nomor} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	partner, err := scopedPartner(c, c.Query("partnerName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	kontrak, err := h.contracts.Get(c.Request.Context(), models.ContractRef{PartnerName: partner, Nomor: c.Param("nomor")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kontrak, nil, middleware.ExtractMeta(c))
}

// WorkItems godoc
// @Summary Work items of a contract
// @Tags Kontrak
// @Produce json
// @Param partnerName query string true "Partner name"
// @Param nomorKontrak query string true "Contract number"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /kontrak/pekerjaan [get]
func (h *ContractHandler) WorkItems(c *gin.Context) {
	partner, err := scopedPartner(c, c.Query("partnerName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.workItems.List(c.Request.Context(), models.ContractRef{PartnerName: partner, Nomor: c.Query("nomorKontrak")})
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, items, middleware.ExtractMeta(c))
}

// AddWorkItem godoc
// @Summary Append work item to a contract
// @Tags Kontrak
// @Accept json
// @Produce json
// @Param payload body dto.CreateWorkItemRequest true "Work item"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /kontrak/pekerjaan [post]
func (h *ContractHandler) AddWorkItem(c *gin.Context) {
	var req dto.CreateWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work item payload"))
		return
	}
	item, err := h.workItems.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item, middleware.ExtractMeta(c))
}

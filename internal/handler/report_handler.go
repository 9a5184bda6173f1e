package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mitra-laporan-api/internal/dto"
	"github.com/noah-isme/mitra-laporan-api/internal/middleware"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/service"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
	"github.com/noah-isme/mitra-laporan-api/pkg/response"
)

// payloadField is the multipart field carrying the JSON part of a submission.
const payloadField = "data"

type reportService interface {
	Submit(ctx context.Context, sub service.ReportSubmission, actor *models.JWTClaims) (*models.Laporan, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Laporan, error)
	ListForWorkItem(ctx context.Context, filter dto.ReportFilter, actor *models.JWTClaims) ([]models.Laporan, error)
	ListAll(ctx context.Context) ([]models.Laporan, error)
}

type reportExporter interface {
	Render(ctx context.Context, id string, format service.ExportFormat, actor *models.JWTClaims) (*service.ExportResult, error)
}

type attachmentLinker interface {
	Links(refs []string) (map[string]service.AttachmentLink, error)
}

// ReportHandler exposes report submission and retrieval.
type ReportHandler struct {
	reports      reportService
	exports      reportExporter
	links        attachmentLinker
	maxBodyBytes int64
}

// NewReportHandler constructs the handler. maxBodyBytes bounds a whole multipart submission.
func NewReportHandler(reports reportService, exports reportExporter, links attachmentLinker, maxBodyBytes int64) *ReportHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 20
	}
	return &ReportHandler{reports: reports, exports: exports, links: links, maxBodyBytes: maxBodyBytes}
}

// Submit godoc
// @Summary Submit daily report
// @Description Multipart form: field "data" holds the JSON payload, photo parts are keyed by the names used in aktivitas[].fotoSebelum / fotoSesudah.
// @Tags Laporan
// @Accept mpfd
// @Produce json
// @Param data formData string true "Report payload (JSON)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /laporan [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("submission exceeds %d bytes", h.maxBodyBytes)))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "expected multipart/form-data submission"))
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll() //nolint:errcheck

	sub, err := readSubmission(form)
	if err != nil {
		response.Error(c, err)
		return
	}
	laporan, err := h.reports.Submit(c.Request.Context(), sub, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.attachLinks(c, laporan)
	response.Created(c, laporan, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get report
// @Tags Laporan
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /laporan/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	laporan, err := h.reports.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.attachLinks(c, laporan)
	response.JSON(c, http.StatusOK, laporan, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List reports
// @Description Without filters every report is returned (administrators only).
// @Tags Laporan
// @Produce json
// @Param partnerName query string false "Partner name"
// @Param nomorKontrak query string false "Contract number"
// @Param namaPekerjaan query string false "Work item name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /laporan [get]
func (h *ReportHandler) List(c *gin.Context) {
	filter := dto.ReportFilter{
		PartnerName:   c.Query("partnerName"),
		NomorKontrak:  c.Query("nomorKontrak"),
		NamaPekerjaan: c.Query("namaPekerjaan"),
	}
	claims := claimsFromContext(c)
	var (
		list []models.Laporan
		err  error
	)
	if filter.Empty() {
		if claims != nil && !claims.IsAdmin() {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "listing all reports requires administrator role"))
			return
		}
		list, err = h.reports.ListAll(c.Request.Context())
	} else {
		list, err = h.reports.ListForWorkItem(c.Request.Context(), filter, claims)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	respondPage(c, list, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export report
// @Tags Laporan
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Report ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /laporan/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	res, err := h.exports.Render(c.Request.Context(), c.Param("id"), service.ExportFormat(c.Query("format")), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, res.FileName, res.ContentType, res.Data)
}

func (h *ReportHandler) attachLinks(c *gin.Context, laporan *models.Laporan) {
	refs := laporan.AttachmentRefs()
	if h.links == nil || len(refs) == 0 {
		return
	}
	links, err := h.links.Links(refs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	middleware.SetMeta(c, "attachments", links)
}

// readSubmission splits a parsed multipart form into the JSON payload and the file parts.
func readSubmission(form *multipart.Form) (service.ReportSubmission, error) {
	sub := service.ReportSubmission{Files: make(map[string][]service.UploadedFile)}
	switch {
	case len(form.Value[payloadField]) == 1:
		sub.Payload = []byte(form.Value[payloadField][0])
	case len(form.File[payloadField]) == 1:
		data, err := readPart(form.File[payloadField][0])
		if err != nil {
			return sub, err
		}
		sub.Payload = data
	default:
		return sub, appErrors.Clone(appErrors.ErrValidation, "exactly one \"data\" field with the report payload is required")
	}

	for field, headers := range form.File {
		if field == payloadField {
			continue
		}
		for _, fh := range headers {
			data, err := readPart(fh)
			if err != nil {
				return sub, err
			}
			sub.Files[field] = append(sub.Files[field], service.UploadedFile{
				Meta: models.AttachmentMeta{
					FieldName:   field,
					FileName:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Size:        fh.Size,
				},
				Data: data,
			})
		}
	}
	return sub, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unreadable file part %q", fh.Filename))
	}
	defer f.Close() //nolint:errcheck
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unreadable file part %q", fh.Filename))
	}
	return data, nil
}

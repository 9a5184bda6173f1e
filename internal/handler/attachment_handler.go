package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mitra-laporan-api/pkg/response"
)

type attachmentDownloader interface {
	Download(ctx context.Context, token, variant string) ([]byte, string, error)
}

// AttachmentHandler serves stored photos through signed links.
type AttachmentHandler struct {
	attachments attachmentDownloader
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(attachments attachmentDownloader) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Download godoc
// @Summary Download attachment
// @Tags Lampiran
// @Produce image/jpeg
// @Produce image/png
// @Param token query string true "Signed token"
// @Param variant query string false "thumb for the thumbnail"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lampiran/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	data, contentType, err := h.attachments.Download(c.Request.Context(), c.Query("token"), c.Query("variant"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, contentType, data)
}

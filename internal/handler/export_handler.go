package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/service"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/response"
)

type exportService interface {
	ExportReplies(ctx context.Context, req dto.ExportRepliesRequest) (*dto.ExportResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes reply history exports and their signed downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Create godoc
// @Summary Export reply history
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ExportRepliesRequest false "Filters and format"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exports/replies [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRepliesRequest
	if !bindOptionalJSON(c, &req, "invalid export payload") {
		return
	}
	result, err := h.service.ExportReplies(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download a generated export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, download.Filename),
	})
}

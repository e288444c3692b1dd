package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/response"
)

type templateService interface {
	List(ctx context.Context, activeOnly bool) ([]models.ReplyTemplate, error)
	Get(ctx context.Context, id string) (*models.ReplyTemplate, error)
	Create(ctx context.Context, req dto.CreateTemplateRequest) (*models.ReplyTemplate, error)
	Update(ctx context.Context, id string, req dto.UpdateTemplateRequest) (*models.ReplyTemplate, error)
	Delete(ctx context.Context, id string) error
}

type templateChecker interface {
	ValidateTemplate(content string) dto.TemplateValidationResponse
	PreviewTemplate(req dto.TemplatePreviewRequest) (*dto.TemplatePreviewResponse, error)
}

// TemplateHandler exposes reply template management.
type TemplateHandler struct {
	templates templateService
	checker   templateChecker
}

// NewTemplateHandler builds a new handler.
func NewTemplateHandler(templates templateService, checker templateChecker) *TemplateHandler {
	return &TemplateHandler{templates: templates, checker: checker}
}

// List godoc
// @Summary List reply templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param active_only query bool false "Only active templates"
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context(), queryBool(c, "active_only"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get reply template
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}

// Create godoc
// @Summary Create reply template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	tpl, err := h.templates.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// Update godoc
// @Summary Update reply template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param payload body dto.UpdateTemplateRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}

// Delete godoc
// @Summary Delete reply template
// @Tags Templates
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Preview godoc
// @Summary Render template content with sample values
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TemplatePreviewRequest true "Preview payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /templates/preview [post]
func (h *TemplateHandler) Preview(c *gin.Context) {
	var req dto.TemplatePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preview payload"))
		return
	}
	preview, err := h.checker.PreviewTemplate(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Validate godoc
// @Summary Check the placeholders of template content
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TemplateValidateRequest true "Content to check"
// @Success 200 {object} response.Envelope
// @Router /templates/validate [post]
func (h *TemplateHandler) Validate(c *gin.Context) {
	var req dto.TemplateValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.checker.ValidateTemplate(req.Content), nil)
}

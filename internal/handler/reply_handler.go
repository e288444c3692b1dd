package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/response"
)

type replyService interface {
	Suggest(ctx context.Context, reviewID string) (*dto.SuggestReplyResponse, error)
	ListPending(ctx context.Context, query dto.PendingReplyQuery) ([]models.PendingReplyView, *models.Pagination, error)
	Approve(ctx context.Context, id string, editedReply *string) (*models.PendingReply, error)
	Reject(ctx context.Context, id string, req dto.RejectReplyRequest) (*models.PendingReply, error)
	Edit(ctx context.Context, id, text string) (*models.PendingReply, error)
}

// ReplyHandler exposes the suggestion and approval workflow.
type ReplyHandler struct {
	service replyService
}

// NewReplyHandler builds a new handler.
func NewReplyHandler(service replyService) *ReplyHandler {
	return &ReplyHandler{service: service}
}

// Suggest godoc
// @Summary Suggest a reply for a review
// @Description Selects the best matching active template and stores a PENDING reply
// @Tags Replies
// @Produce json
// @Security BearerAuth
// @Param reviewId path string true "Review ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /replies/reviews/{reviewId}/suggest [post]
func (h *ReplyHandler) Suggest(c *gin.Context) {
	suggestion, err := h.service.Suggest(c.Request.Context(), c.Param("reviewId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, suggestion)
}

// Pending godoc
// @Summary List pending replies
// @Tags Replies
// @Produce json
// @Security BearerAuth
// @Param location_id query string false "Location ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /replies/pending [get]
func (h *ReplyHandler) Pending(c *gin.Context) {
	page, size := pageParams(c)
	views, pagination, err := h.service.ListPending(c.Request.Context(), dto.PendingReplyQuery{
		LocationID: c.Query("location_id"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, pagination)
}

// Approve godoc
// @Summary Approve and publish a pending reply
// @Tags Replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pending reply ID"
// @Param payload body dto.ApproveReplyRequest false "Optional edited text"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /replies/{id}/approve [post]
func (h *ReplyHandler) Approve(c *gin.Context) {
	var req dto.ApproveReplyRequest
	if !bindOptionalJSON(c, &req, "invalid approve payload") {
		return
	}
	reply, err := h.service.Approve(c.Request.Context(), c.Param("id"), req.EditedReply)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// Reject godoc
// @Summary Reject a pending reply
// @Tags Replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pending reply ID"
// @Param payload body dto.RejectReplyRequest false "Optional reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replies/{id}/reject [post]
func (h *ReplyHandler) Reject(c *gin.Context) {
	var req dto.RejectReplyRequest
	if !bindOptionalJSON(c, &req, "invalid reject payload") {
		return
	}
	reply, err := h.service.Reject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// Edit godoc
// @Summary Replace the text of a pending reply
// @Tags Replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pending reply ID"
// @Param payload body dto.EditReplyRequest true "New text"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replies/{id}/edit [post]
func (h *ReplyHandler) Edit(c *gin.Context) {
	var req dto.EditReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid edit payload"))
		return
	}
	reply, err := h.service.Edit(c.Request.Context(), c.Param("id"), req.SuggestedReply)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// bindOptionalJSON accepts an empty body and reports false after writing the error response.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

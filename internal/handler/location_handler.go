package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	"github.com/noah-isme/review-desk-api/pkg/response"
)

type locationService interface {
	List(ctx context.Context, accountID string) ([]models.Location, error)
	Get(ctx context.Context, id string, includeReviews bool) (*dto.LocationDetail, error)
	Reviews(ctx context.Context, locationID string, query dto.ReviewQuery) ([]models.Review, *models.Pagination, error)
}

type syncService interface {
	SyncLocations(ctx context.Context, accountID string) (*dto.SyncResult, error)
	SyncReviews(ctx context.Context, locationID string) (*dto.SyncResult, error)
	EnqueueAll(ctx context.Context) (*dto.EnqueueSyncResponse, error)
}

// LocationHandler exposes synced locations, their reviews and the sync triggers.
type LocationHandler struct {
	locations locationService
	sync      syncService
}

// NewLocationHandler builds a new handler.
func NewLocationHandler(locations locationService, sync syncService) *LocationHandler {
	return &LocationHandler{locations: locations, sync: sync}
}

// List godoc
// @Summary List locations
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param account_id query string false "Account ID"
// @Success 200 {object} response.Envelope
// @Router /locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locations.List(c.Request.Context(), c.Query("account_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations, nil)
}

// Get godoc
// @Summary Get location
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Param include_reviews query bool false "Embed recent reviews"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /locations/{id} [get]
func (h *LocationHandler) Get(c *gin.Context) {
	detail, err := h.locations.Get(c.Request.Context(), c.Param("id"), queryBool(c, "include_reviews"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Reviews godoc
// @Summary List reviews of a location
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Param unreplied query bool false "Only reviews without an owner reply"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /locations/{id}/reviews [get]
func (h *LocationHandler) Reviews(c *gin.Context) {
	page, size := pageParams(c)
	reviews, pagination, err := h.locations.Reviews(c.Request.Context(), c.Param("id"), dto.ReviewQuery{
		Unreplied: queryBool(c, "unreplied"),
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, pagination)
}

// SyncLocations godoc
// @Summary Import locations of a Google account
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /accounts/{id}/locations/sync [post]
func (h *LocationHandler) SyncLocations(c *gin.Context) {
	result, err := h.sync.SyncLocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SyncReviews godoc
// @Summary Import reviews of a location
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /locations/{id}/reviews/sync [post]
func (h *LocationHandler) SyncReviews(c *gin.Context) {
	result, err := h.sync.SyncReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// EnqueueAll godoc
// @Summary Queue a review sync for every location
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Router /locations/reviews/sync [post]
func (h *LocationHandler) EnqueueAll(c *gin.Context) {
	result, err := h.sync.EnqueueAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

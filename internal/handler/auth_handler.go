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

type authService interface {
	AuthorizationURL(redirect string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (*dto.SessionResponse, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	Disconnect(ctx context.Context, id string) error
}

// AuthHandler wires the Google OAuth flow and connected accounts.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Start Google authorization
// @Description Redirects to Google consent, or returns the URL when mode=json or Accept is application/json
// @Tags Authentication
// @Produce json
// @Param redirect query string false "Path to return to after login"
// @Param mode query string false "json to receive the URL instead of a redirect"
// @Success 200 {object} response.Envelope
// @Success 302
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	url, err := h.service.AuthorizationURL(c.Query("redirect"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if wantsJSON(c) {
		response.JSON(c, http.StatusOK, dto.LoginURLResponse{AuthorizationURL: url}, nil)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback godoc
// @Summary Complete Google authorization
// @Tags Authentication
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "Signed state"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "authorization denied: "+reason))
		return
	}
	session, err := h.service.HandleCallback(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Accounts godoc
// @Summary List connected Google accounts
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/accounts [get]
func (h *AuthHandler) Accounts(c *gin.Context) {
	accounts, err := h.service.ListAccounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, nil)
}

// Disconnect godoc
// @Summary Disconnect a Google account
// @Description Removes the account with its locations, reviews and pending replies
// @Tags Authentication
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /auth/accounts/{id} [delete]
func (h *AuthHandler) Disconnect(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

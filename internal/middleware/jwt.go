package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/response"
)

// ContextUserKey is the gin context key storing operator session claims.
const ContextUserKey = "currentUser"

type sessionValidator interface {
	ValidateSession(token string) (*models.SessionClaims, error)
}

// Session protects routes with the operator session issued by the OAuth callback.
// When required is false the request always proceeds and claims are attached only if a valid token is sent.
func Session(validator sessionValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if required {
				response.Error(c, err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		claims, err := validator.ValidateSession(token)
		if err != nil {
			if required {
				response.Error(c, err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// SessionFromContext returns the claims attached by Session, or nil.
func SessionFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.SessionClaims)
	return claims
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

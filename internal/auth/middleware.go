package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
)

var (
	ErrMissingAuthHeader = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "missing Authorization header")
	ErrBadAuthHeader     = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "invalid Authorization header format")
	ErrInvalidToken      = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "invalid token")
	ErrExpiredToken      = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "token has expired")
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, ErrMissingAuthHeader)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Abort(c, ErrBadAuthHeader)
			return
		}

		claims, err := jwtManager.ParseAndValidate(parts[1])
		if errors.Is(err, ErrTokenExpired) {
			response.Abort(c, ErrExpiredToken)
			return
		}
		if err != nil {
			response.Abort(c, ErrInvalidToken)
			return
		}

		// Store user info into Gin context for later handlers.
		SetUser(c, claims.UserID(), claims.Email)

		c.Next()
	}
}

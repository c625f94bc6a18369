package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

var ErrRoleForbidden = apperror.New(http.StatusForbidden, apperror.KindForbidden, "permission denied")

// UserLoader loads an account that may currently sign in.
type UserLoader interface {
	GetActive(ctx context.Context, id string) (*user.User, error)
}

// RequireActiveUser reloads the token's user on every request so that
// deactivated, blocked or deleted accounts lose access immediately, and
// records the user's current role.
// It MUST be used after auth.AuthRequired middleware.
func RequireActiveUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.GetActive(c.Request.Context(), auth.GetUserID(c))
		if err != nil {
			response.Abort(c, err)
			return
		}

		auth.SetUserRole(c, string(u.Role))
		c.Next()
	}
}

// RequireRoles lets the request through only when the caller holds one of
// the given roles. It MUST be used after RequireActiveUser.
func RequireRoles(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, user.Role(auth.GetUserRole(c))) {
			response.Abort(c, ErrRoleForbidden)
			return
		}
		c.Next()
	}
}

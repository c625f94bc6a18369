package auth

import "github.com/gin-gonic/gin"

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

// SetUser records the identity carried by a validated token.
func SetUser(c *gin.Context, userID, email string) {
	c.Set(userIDKey, userID)
	c.Set(userEmailKey, email)
}

// SetUserRole records the role of the freshly loaded user.
func SetUserRole(c *gin.Context, role string) {
	c.Set(userRoleKey, role)
}

// GetUserRole returns the role recorded by SetUserRole or empty string.
func GetUserRole(c *gin.Context) string {
	return c.GetString(userRoleKey)
}

package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the booking endpoints. authMiddleware must establish
// the caller's id and role; idempotencyMiddleware guards retried creates.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlersChain, adminMiddleware, idempotencyMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Public Routes ===
	group.GET("/calendar/public", h.Calendar)

	// === Authenticated Routes ===
	authed := group.Group("", authMiddleware...)
	{
		authed.POST("", idempotencyMiddleware, h.Create)
		authed.GET("", h.List)
		authed.GET("/:id", h.Get)
		authed.PUT("/:id/cancel", h.Cancel)
	}

	// === Admin Routes ===
	admin := authed.Group("", adminMiddleware)
	{
		admin.PUT("/:id", h.Update)
		admin.PUT("/:id/status", h.UpdateStatus)
		admin.DELETE("/:id", h.Delete)
	}
}

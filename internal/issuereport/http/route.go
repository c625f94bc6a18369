package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlersChain, adminMiddleware, idempotencyMiddleware gin.HandlerFunc) {
	group := g.Group("/issue-reports", authMiddleware...)
	{
		group.POST("", idempotencyMiddleware, h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
	}

	// === Admin Routes ===
	admin := group.Group("", adminMiddleware)
	{
		admin.PUT("/:id/status", h.UpdateStatus)
		admin.DELETE("/:id", h.Delete)
	}
}

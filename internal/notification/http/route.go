package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlersChain) {
	group := g.Group("/notifications", authMiddleware...)
	{
		group.GET("", h.List)
		group.PUT("/:id/read", h.MarkRead)
	}
}

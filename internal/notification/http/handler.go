package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
)

type Handler struct {
	service notification.Service
}

func NewHandler(service notification.Service) *Handler {
	return &Handler{service: service}
}

// List returns the caller's inbox, newest first.
func (h *Handler) List(c *gin.Context) {
	var req ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}
	req.Normalize()

	items, total, err := h.service.List(c.Request.Context(), notification.Filter{
		UserID: auth.GetUserID(c),
		IsRead: req.IsRead,
		Page:   req.Page,
		Limit:  req.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	data := make([]NotificationResponse, len(items))
	for i, n := range items {
		data[i] = NewResponse(n)
	}

	response.OK(c, "ok", response.NewPageResponse(data, req.Page, req.Limit, total))
}

func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.service.MarkRead(c.Request.Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "notification marked as read", NewResponse(n))
}

package http

import (
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
)

type ListNotificationsRequest struct {
	request.ListParams
	IsRead *bool `form:"is_read"`
}

type NotificationResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	RelatedType string    `json:"related_type,omitempty"`
	RelatedID   string    `json:"related_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Title:       n.Title,
		Content:     n.Content,
		IsRead:      n.IsRead,
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
		CreatedAt:   n.CreatedAt,
	}
}

package notification

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.New(http.StatusNotFound, apperror.KindNotFound, "notification not found")

// EventCreated is the event type published for every new inbox entry.
const EventCreated = "notification.created"

// Notification is one inbox entry addressed to a single user.
type Notification struct {
	ID          string
	UserID      string
	Title       string
	Content     string
	IsRead      bool
	RelatedType string
	RelatedID   string
	CreatedAt   time.Time
}

// Filter defines parameters for listing one user's inbox.
type Filter struct {
	UserID string
	IsRead *bool
	Page   int
	Limit  int
}

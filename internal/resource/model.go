package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.New(http.StatusNotFound, apperror.KindResourceNotFound, "resource not found")

// Resource represents a bookable unit (a room or a device).
type Resource struct {
	ID        string
	Name      string
	Type      string
	Location  string
	Deleted   bool
	CreatedAt time.Time
}

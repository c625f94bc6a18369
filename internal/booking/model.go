package booking

import (
	"net/http"
	"slices"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

var (
	ErrInvalidPayload          = apperror.New(http.StatusBadRequest, apperror.KindInvalidPayload, "resource_id, start_time and end_time are required")
	ErrInvalidTime             = apperror.New(http.StatusBadRequest, apperror.KindInvalidTime, "invalid time value")
	ErrInvalidTimeRange        = apperror.New(http.StatusBadRequest, apperror.KindInvalidTimeRange, "end time must be after start time")
	ErrMultiDay                = apperror.New(http.StatusBadRequest, apperror.KindInvalidTimeRange, "booking must start and end on the same day")
	ErrStartTimePast           = apperror.New(http.StatusBadRequest, apperror.KindInvalidTimeRange, "cannot book a time in the past")
	ErrPartialTimeUpdate       = apperror.New(http.StatusBadRequest, apperror.KindInvalidTimeRange, "start_time and end_time must be updated together")
	ErrCalendarRange           = apperror.New(http.StatusBadRequest, apperror.KindInvalidTimeRange, "start_date and end_date are required and start_date must not be after end_date")
	ErrInvalidStatus           = apperror.New(http.StatusBadRequest, apperror.KindInvalidStatus, "invalid booking status")
	ErrInvalidStatusTransition = apperror.New(http.StatusBadRequest, apperror.KindInvalidStatusTransition, "a cancelled or rejected booking cannot be approved")
	ErrTimeConflict            = apperror.New(http.StatusBadRequest, apperror.KindTimeConflict, "time slot already booked")
	ErrResourceNotFound        = apperror.New(http.StatusNotFound, apperror.KindResourceNotFound, "resource not found")
	ErrNotFound                = apperror.New(http.StatusNotFound, apperror.KindNotFound, "booking not found")
	ErrForbidden               = apperror.New(http.StatusForbidden, apperror.KindForbidden, "you do not have access to this booking")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every valid status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled}

// Occupying statuses block a time slot for new or moved bookings.
var occupyingStatuses = []Status{StatusPending, StatusApproved}

// Only approved bookings block an approval.
var approvalBlockingStatuses = []Status{StatusApproved}

func (s Status) Valid() bool {
	return slices.Contains(AllStatuses, s)
}

// Terminal reports whether the status can no longer be approved.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

// StatusStrings returns AllStatuses as plain strings for validator registration.
func StatusStrings() []string {
	out := make([]string, len(AllStatuses))
	for i, s := range AllStatuses {
		out[i] = string(s)
	}
	return out
}

type Booking struct {
	ID           string
	UserID       string
	UserName     string
	ResourceID   string
	ResourceName string
	StartTime    time.Time
	EndTime      time.Time
	Purpose      string
	Status       Status
	RejectReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated principal an operation runs on behalf of.
type Actor = user.Actor

type Filter struct {
	UserID     string
	ResourceID string
	Status     Status
	// Intersection bounds: keep bookings with end_time >= From and start_time <= To.
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

type CalendarFilter struct {
	From   time.Time
	To     time.Time
	Status Status
}

// ConflictQuery describes an overlap probe against one resource.
type ConflictQuery struct {
	ResourceID string
	Start      time.Time
	End        time.Time
	Statuses   []Status
	ExcludeID  string
}

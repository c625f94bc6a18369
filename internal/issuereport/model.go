package issuereport

import (
	"net/http"
	"slices"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

var (
	ErrTitleRequired       = apperror.New(http.StatusBadRequest, apperror.KindInvalidPayload, "title is required")
	ErrDescriptionRequired = apperror.New(http.StatusBadRequest, apperror.KindInvalidPayload, "description is required")
	ErrInvalidStatus       = apperror.New(http.StatusBadRequest, apperror.KindInvalidStatus, "invalid issue report status")
	ErrNotFound            = apperror.New(http.StatusNotFound, apperror.KindNotFound, "issue report not found")
	ErrForbidden           = apperror.New(http.StatusForbidden, apperror.KindForbidden, "you do not have access to this issue report")
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

var AllStatuses = []Status{StatusNew, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	return slices.Contains(AllStatuses, s)
}

// StatusStrings returns AllStatuses as plain strings for validator registration.
func StatusStrings() []string {
	out := make([]string, len(AllStatuses))
	for i, s := range AllStatuses {
		out[i] = string(s)
	}
	return out
}

// IssueReport is a problem a user found with a resource.
type IssueReport struct {
	ID           string
	UserID       string
	UserName     string
	ResourceID   string
	ResourceName string
	Title        string
	Description  string
	// ImageIDs are file ids in upload order.
	ImageIDs  []string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Filter struct {
	UserID     string
	ResourceID string
	Status     Status
	Page       int
	Limit      int
}

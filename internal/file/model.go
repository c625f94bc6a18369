package file

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

// File represents an uploaded object and its stored renditions.
type File struct {
	ID            string
	UserID        string
	Filename      string
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, apperror.KindNotFound, "file not found")
	ErrThumbnailUnavailable = apperror.New(http.StatusNotFound, apperror.KindNotFound, "thumbnail not available for this file")
	ErrFileTooLarge         = apperror.New(http.StatusBadRequest, apperror.KindInvalidFileUpload, "file exceeds the maximum allowed size")
	ErrInvalidFileType      = apperror.New(http.StatusBadRequest, apperror.KindInvalidFileUpload, "file type is not allowed")
	ErrInvalidImage         = apperror.New(http.StatusBadRequest, apperror.KindInvalidFileUpload, "file is not a valid image")
)

// FileURL returns the public URL for accessing a file by its ID.
func FileURL(id string) string {
	return "/v1/files/" + id
}

// ThumbnailURL returns the public URL for accessing a file's thumbnail by its ID.
func ThumbnailURL(id string) string {
	return "/v1/files/" + id + "/thumbnail"
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/file"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

var ErrTooManyFiles = apperror.New(http.StatusBadRequest, apperror.KindInvalidFileUpload, "too many files uploaded")

// FileUploadConfig defines the rules for a multipart upload field.
type FileUploadConfig struct {
	FormFieldName string   // The name of the form field containing the files (default: "file")
	MaxFiles      int      // Maximum number of parts accepted (0 = no limit)
	MaxSizeBytes  int64    // The maximum size of a single file in bytes (0 = no limit)
	AllowedTypes  []string // The list of allowed MIME types (empty = allow all)
	ResizeImage   bool     // Re-encode images as JPEG fitted into 500x500
}

// UploadFiles stores every part of the configured multipart field.
// A missing field yields no files. If any part fails, the parts stored so far
// are removed and the error is returned.
func UploadFiles(c *gin.Context, svc file.Service, userID string, config FileUploadConfig) ([]*file.File, error) {
	fieldName := config.FormFieldName
	if fieldName == "" {
		fieldName = "file"
	}

	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}
	headers := form.File[fieldName]
	if config.MaxFiles > 0 && len(headers) > config.MaxFiles {
		return nil, ErrTooManyFiles
	}

	ctx := c.Request.Context()
	uploaded := make([]*file.File, 0, len(headers))
	for _, fh := range headers {
		f, err := svc.Upload(ctx, file.UploadInput{
			FileHeader:   fh,
			UserID:       userID,
			MaxSizeBytes: config.MaxSizeBytes,
			AllowedTypes: config.AllowedTypes,
			ResizeImage:  config.ResizeImage,
		})
		if err != nil {
			DeleteFiles(c, svc, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, f)
	}

	return uploaded, nil
}

// DeleteFiles removes uploaded files, ignoring individual failures.
func DeleteFiles(c *gin.Context, svc file.Service, files []*file.File) {
	for _, f := range files {
		_ = svc.Delete(c.Request.Context(), f.ID)
	}
}

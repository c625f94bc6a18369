package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

// Error sends a JSON error envelope.
// It checks if the error is an AppError to determine the status code and kind.
// If it's not an AppError, it defaults to 500 SYSTEM_ERROR and logs the cause.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			logFailure(c, err)
		}
		c.JSON(appErr.Code, Envelope{Success: false, Message: appErr.Message, Error: appErr.Kind})
		return
	}

	logFailure(c, err)
	c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Message: "internal server error",
		Error:   apperror.KindSystemError,
	})
}

// Abort is Error for middleware: it stops the handler chain after writing.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func logFailure(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
}

package idempotency

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
)

const HeaderName = "Idempotency-Key"

// ErrRequestInFlight rejects a retry that arrives while the first request
// with the same key is still being handled.
var ErrRequestInFlight = apperror.New(http.StatusConflict, apperror.KindConflict,
	"a request with this Idempotency-Key is still in progress")

// ReplayedHeader marks responses served from the idempotency cache.
const ReplayedHeader = "Idempotent-Replayed"

type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped by the value scope returns (usually the
// caller's user id) and the route, so two users cannot collide.
// Requests without the header pass through untouched.
func Middleware(store Store, scope func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderName)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		fullKey := scope(c) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		cached, found, err := store.Get(ctx, fullKey)
		if err != nil {
			slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		}
		if found {
			replay(c, cached)
			return
		}

		reserved, err := store.Reserve(ctx, fullKey)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "idempotency reservation failed", "error", err)
		case !reserved:
			// The holder may have finished since the lookup above.
			if cached, found, _ := store.Get(ctx, fullKey); found {
				replay(c, cached)
				return
			}
			response.Abort(c, ErrRequestInFlight)
			return
		default:
			defer func() {
				if err := store.Release(context.WithoutCancel(ctx), fullKey); err != nil {
					slog.WarnContext(ctx, "idempotency release failed", "error", err)
				}
			}()
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if status < 200 || status >= 300 {
			return
		}

		resp := &CachedResponse{
			StatusCode: status,
			Headers:    capture.Header().Clone(),
			Body:       capture.body.Bytes(),
		}
		if err := store.Set(ctx, fullKey, resp); err != nil {
			slog.WarnContext(ctx, "idempotency store failed", "error", err)
		}
	}
}

func replay(c *gin.Context, cached *CachedResponse) {
	c.Header(ReplayedHeader, "true")
	c.Data(cached.StatusCode, cached.Headers.Get("Content-Type"), cached.Body)
	c.Abort()
}

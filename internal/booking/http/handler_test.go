package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/booking"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

const (
	bookingID  = "5b0e7d64-3c38-4a55-9a0e-1f6f3c5d2a10"
	resourceID = "0d3a4c1e-8f55-4b9a-b7c2-6f1e2d3c4b5a"
	studentID  = "8e7f6a5b-4c3d-4e2f-9a1b-0c9d8e7f6a5b"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Create(ctx context.Context, actor booking.Actor, in booking.CreateInput) (*booking.Booking, error) {
	args := m.Called(actor, in)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockService) Update(ctx context.Context, id string, in booking.UpdateInput) (*booking.Booking, error) {
	args := m.Called(id, in)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockService) UpdateStatus(ctx context.Context, id string, in booking.StatusInput) (*booking.Booking, error) {
	args := m.Called(id, in)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockService) Cancel(ctx context.Context, actor booking.Actor, id string) (*booking.Booking, error) {
	args := m.Called(actor, id)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockService) List(ctx context.Context, actor booking.Actor, in booking.ListInput) ([]*booking.Booking, int, error) {
	args := m.Called(actor, in)
	items, _ := args.Get(0).([]*booking.Booking)
	return items, args.Int(1), args.Error(2)
}

func (m *mockService) Get(ctx context.Context, actor booking.Actor, id string) (*booking.Booking, error) {
	args := m.Called(actor, id)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockService) Calendar(ctx context.Context, in booking.CalendarInput) ([]*booking.Booking, error) {
	args := m.Called(in)
	items, _ := args.Get(0).([]*booking.Booking)
	return items, args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

var forbiddenAdmin = apperror.New(http.StatusForbidden, apperror.KindForbidden, "admin only")

// newEngine mounts the routes with a fake auth chain driven by the
// X-Test-User and X-Test-Role headers.
func newEngine(t *testing.T, svc booking.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, request.RegisterEnum("booking_status", booking.StatusStrings()...))

	fakeAuth := func(c *gin.Context) {
		id := c.GetHeader("X-Test-User")
		if id == "" {
			response.Abort(c, auth.ErrMissingAuthHeader)
			return
		}
		auth.SetUser(c, id, "")
		auth.SetUserRole(c, c.GetHeader("X-Test-Role"))
		c.Next()
	}
	adminOnly := func(c *gin.Context) {
		if auth.GetUserRole(c) != string(user.RoleAdmin) {
			response.Abort(c, forbiddenAdmin)
			return
		}
		c.Next()
	}

	store := idempotency.NewMemoryStore(time.Hour)
	t.Cleanup(store.Stop)

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), gin.HandlersChain{fakeAuth}, adminOnly,
		idempotency.Middleware(store, auth.GetUserID))
	return r
}

func do(r *gin.Engine, method, path, body, userID string, role user.Role, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
		req.Header.Set("X-Test-Role", string(role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleBooking(status booking.Status) *booking.Booking {
	start := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)
	return &booking.Booking{
		ID:           bookingID,
		UserID:       studentID,
		UserName:     "Student",
		ResourceID:   resourceID,
		ResourceName: "Room A",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Purpose:      "study group",
		Status:       status,
		RejectReason: "room closed",
		CreatedAt:    start.Add(-24 * time.Hour),
		UpdatedAt:    start.Add(-24 * time.Hour),
	}
}

func TestCreate(t *testing.T) {
	student := booking.Actor{UserID: studentID, Role: user.RoleStudent}
	in := booking.CreateInput{
		ResourceID: resourceID,
		StartTime:  "2030-06-01T09:00:00Z",
		EndTime:    "2030-06-01T10:00:00Z",
		Purpose:    "study group",
	}
	body := `{"resource_id":"` + resourceID + `","start_time":"2030-06-01T09:00:00Z","end_time":"2030-06-01T10:00:00Z","purpose":"study group"}`

	t.Run("created", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Create", student, in).Return(sampleBooking(booking.StatusPending), nil).Once()
		r := newEngine(t, svc)

		w := do(r, http.MethodPost, "/v1/bookings", body, studentID, user.RoleStudent)

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, bookingID, data["id"])
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, map[string]any{"id": resourceID, "name": "Room A"}, data["resource"])
		assert.Equal(t, map[string]any{"id": studentID, "name": "Student"}, data["user"])
		assert.NotContains(t, data, "reject_reason")
		svc.AssertExpectations(t)
	})

	t.Run("conflict maps to 400 TIME_CONFLICT", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Create", student, in).Return(nil, booking.ErrTimeConflict)
		r := newEngine(t, svc)

		w := do(r, http.MethodPost, "/v1/bookings", body, studentID, user.RoleStudent)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.KindTimeConflict, decode(t, w)["error"])
	})

	t.Run("missing resource maps to 404", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Create", student, in).Return(nil, booking.ErrResourceNotFound)
		r := newEngine(t, svc)

		w := do(r, http.MethodPost, "/v1/bookings", body, studentID, user.RoleStudent)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperror.KindResourceNotFound, decode(t, w)["error"])
	})

	t.Run("missing fields are rejected before the service", func(t *testing.T) {
		svc := new(mockService)
		r := newEngine(t, svc)

		w := do(r, http.MethodPost, "/v1/bookings", `{"resource_id":"`+resourceID+`"}`, studentID, user.RoleStudent)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.KindInvalidPayload, decode(t, w)["error"])
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		svc := new(mockService)
		r := newEngine(t, svc)

		w := do(r, http.MethodPost, "/v1/bookings", strings.Replace(body, "}", `,"status":"approved"}`, 1), studentID, user.RoleStudent)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("requires authentication", func(t *testing.T) {
		svc := new(mockService)
		r := newEngine(t, svc)

		w := do(r, http.MethodPost, "/v1/bookings", body, "", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("idempotency key replays the first response", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Create", student, in).Return(sampleBooking(booking.StatusPending), nil).Once()
		r := newEngine(t, svc)

		first := do(r, http.MethodPost, "/v1/bookings", body, studentID, user.RoleStudent, idempotency.HeaderName, "k1")
		second := do(r, http.MethodPost, "/v1/bookings", body, studentID, user.RoleStudent, idempotency.HeaderName, "k1")

		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "true", second.Header().Get(idempotency.ReplayedHeader))
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		svc.AssertNumberOfCalls(t, "Create", 1)
	})
}

func TestList(t *testing.T) {
	t.Run("passes filters and pages the result", func(t *testing.T) {
		svc := new(mockService)
		actor := booking.Actor{UserID: studentID, Role: user.RoleStudent}
		svc.On("List", actor, booking.ListInput{
			ResourceID: resourceID,
			Status:     booking.StatusApproved,
			StartDate:  "2030-06-01",
			EndDate:    "2030-06-30",
			Page:       2,
			Limit:      5,
		}).Return([]*booking.Booking{sampleBooking(booking.StatusApproved)}, 6, nil)
		r := newEngine(t, svc)

		w := do(r, http.MethodGet,
			"/v1/bookings?resource_id="+resourceID+"&status=approved&start_date=2030-06-01&end_date=2030-06-30&page=2&limit=5",
			"", studentID, user.RoleStudent)

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.EqualValues(t, 6, data["total"])
		assert.EqualValues(t, 2, data["page"])
		assert.Len(t, data["items"], 1)
	})

	t.Run("defaults pagination and returns an empty array", func(t *testing.T) {
		svc := new(mockService)
		actor := booking.Actor{UserID: studentID, Role: user.RoleStudent}
		svc.On("List", actor, booking.ListInput{Page: request.DefaultPage, Limit: request.DefaultLimit}).
			Return([]*booking.Booking(nil), 0, nil)
		r := newEngine(t, svc)

		w := do(r, http.MethodGet, "/v1/bookings", "", studentID, user.RoleStudent)

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, []any{}, data["items"])
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		svc := new(mockService)
		r := newEngine(t, svc)

		w := do(r, http.MethodGet, "/v1/bookings?status=done", "", studentID, user.RoleStudent)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestGet(t *testing.T) {
	t.Run("non-owner student is forbidden", func(t *testing.T) {
		svc := new(mockService)
		other := booking.Actor{UserID: "other", Role: user.RoleStudent}
		svc.On("Get", other, bookingID).Return(nil, booking.ErrForbidden)
		r := newEngine(t, svc)

		w := do(r, http.MethodGet, "/v1/bookings/"+bookingID, "", "other", user.RoleStudent)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.KindForbidden, decode(t, w)["error"])
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		svc := new(mockService)
		r := newEngine(t, svc)

		w := do(r, http.MethodGet, "/v1/bookings/not-a-uuid", "", studentID, user.RoleStudent)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperror.KindNotFound, decode(t, w)["error"])
	})

	t.Run("rejected booking carries its reason", func(t *testing.T) {
		svc := new(mockService)
		actor := booking.Actor{UserID: studentID, Role: user.RoleStudent}
		svc.On("Get", actor, bookingID).Return(sampleBooking(booking.StatusRejected), nil)
		r := newEngine(t, svc)

		w := do(r, http.MethodGet, "/v1/bookings/"+bookingID, "", studentID, user.RoleStudent)

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, "room closed", data["reject_reason"])
	})
}

func TestAdminRoutes(t *testing.T) {
	t.Run("students cannot change status", func(t *testing.T) {
		svc := new(mockService)
		r := newEngine(t, svc)

		w := do(r, http.MethodPut, "/v1/bookings/"+bookingID+"/status", `{"status":"approved"}`, studentID, user.RoleStudent)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	t.Run("status update", func(t *testing.T) {
		svc := new(mockService)
		svc.On("UpdateStatus", bookingID, booking.StatusInput{Status: booking.StatusRejected, RejectReason: "room closed"}).
			Return(sampleBooking(booking.StatusRejected), nil)
		r := newEngine(t, svc)

		w := do(r, http.MethodPut, "/v1/bookings/"+bookingID+"/status",
			`{"status":"rejected","reject_reason":"room closed"}`, "admin", user.RoleAdmin)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rejected", decode(t, w)["data"].(map[string]any)["status"])
	})

	t.Run("approval of terminal booking", func(t *testing.T) {
		svc := new(mockService)
		svc.On("UpdateStatus", bookingID, booking.StatusInput{Status: booking.StatusApproved}).
			Return(nil, booking.ErrInvalidStatusTransition)
		r := newEngine(t, svc)

		w := do(r, http.MethodPut, "/v1/bookings/"+bookingID+"/status", `{"status":"approved"}`, "admin", user.RoleAdmin)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.KindInvalidStatusTransition, decode(t, w)["error"])
	})

	t.Run("update ignores owner and resource", func(t *testing.T) {
		svc := new(mockService)
		purpose := "exam"
		svc.On("Update", bookingID, booking.UpdateInput{Purpose: &purpose}).
			Return(sampleBooking(booking.StatusPending), nil)
		r := newEngine(t, svc)

		w := do(r, http.MethodPut, "/v1/bookings/"+bookingID,
			`{"purpose":"exam","user_id":"someone","resource_id":"elsewhere"}`, "admin", user.RoleAdmin)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Delete", bookingID).Return(nil)
		r := newEngine(t, svc)

		w := do(r, http.MethodDelete, "/v1/bookings/"+bookingID, "", "admin", user.RoleAdmin)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestCancel(t *testing.T) {
	svc := new(mockService)
	actor := booking.Actor{UserID: studentID, Role: user.RoleStudent}
	svc.On("Cancel", actor, bookingID).Return(sampleBooking(booking.StatusCancelled), nil)
	r := newEngine(t, svc)

	w := do(r, http.MethodPut, "/v1/bookings/"+bookingID+"/cancel", "", studentID, user.RoleStudent)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["data"].(map[string]any)["status"])
}

func TestCalendarIsPublic(t *testing.T) {
	svc := new(mockService)
	svc.On("Calendar", booking.CalendarInput{StartDate: "2030-06-01", EndDate: "2030-06-07"}).
		Return([]*booking.Booking{sampleBooking(booking.StatusApproved)}, nil)
	r := newEngine(t, svc)

	w := do(r, http.MethodGet, "/v1/bookings/calendar/public?start_date=2030-06-01&end_date=2030-06-07", "", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["data"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.NotContains(t, entry, "user")
	assert.NotContains(t, entry, "purpose")
	assert.Equal(t, "approved", entry["status"])
}

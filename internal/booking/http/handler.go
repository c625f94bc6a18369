package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/booking"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{
		UserID: auth.GetUserID(c),
		Role:   user.Role(auth.GetUserRole(c)),
	}
}

// bindID reads the :id path parameter. Malformed ids cannot exist, so they
// are reported as not found.
func bindID(c *gin.Context) (string, bool) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, booking.ErrNotFound)
		return "", false
	}
	return uri.ID, true
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := request.BindStrictJSON(c, &req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}

	b, err := h.service.Create(c.Request.Context(), actorFrom(c), booking.CreateInput{
		ResourceID: req.ResourceID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Purpose:    req.Purpose,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "booking created", NewBookingResponse(b))
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}
	req.Normalize()

	items, total, err := h.service.List(c.Request.Context(), actorFrom(c), booking.ListInput{
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		Status:     booking.Status(req.Status),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Page:       req.Page,
		Limit:      req.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	data := make([]BookingResponse, len(items))
	for i, b := range items {
		data[i] = NewBookingResponse(b)
	}

	response.OK(c, "ok", response.NewPageResponse(data, req.Page, req.Limit, total))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "ok", NewBookingResponse(b))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := request.BindStrictJSON(c, &req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}

	b, err := h.service.Update(c.Request.Context(), id, booking.UpdateInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Purpose:   req.Purpose,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "booking updated", NewBookingResponse(b))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := request.BindStrictJSON(c, &req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), id, booking.StatusInput{
		Status:       booking.Status(req.Status),
		RejectReason: req.RejectReason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "booking status updated", NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "booking cancelled", NewBookingResponse(b))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "booking deleted", nil)
}

func (h *Handler) Calendar(c *gin.Context) {
	var req CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}

	items, err := h.service.Calendar(c.Request.Context(), booking.CalendarInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    booking.Status(req.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	data := make([]CalendarEntryResponse, len(items))
	for i, b := range items {
		data[i] = NewCalendarEntryResponse(b)
	}

	response.OK(c, "ok", data)
}

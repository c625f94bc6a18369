package http

import (
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/booking"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,booking_status"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
}

// CalendarRequest defines query parameters for the public calendar.
// Status is checked by the service so an unknown value maps to INVALID_STATUS.
type CalendarRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Status    string `form:"status"`
}

type CreateBookingRequest struct {
	ResourceID string `json:"resource_id" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
	Purpose    string `json:"purpose" binding:"max=500"`
}

// UpdateBookingRequest is a partial update. Owner and resource are accepted so
// clients can echo a full booking back, but they are never applied.
type UpdateBookingRequest struct {
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
	Purpose    *string `json:"purpose" binding:"omitempty,max=500"`
	UserID     *string `json:"user_id"`
	ResourceID *string `json:"resource_id"`
}

type UpdateStatusRequest struct {
	Status       string `json:"status" binding:"required"`
	RejectReason string `json:"reject_reason" binding:"max=500"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID           string    `json:"id"`
	Resource     Tag       `json:"resource"`
	User         Tag       `json:"user"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Purpose      string    `json:"purpose"`
	Status       string    `json:"status"`
	RejectReason *string   `json:"reject_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:        b.ID,
		Resource:  Tag{ID: b.ResourceID, Name: b.ResourceName},
		User:      Tag{ID: b.UserID, Name: b.UserName},
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Purpose:   b.Purpose,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	// The reason only exists on rejected bookings.
	if b.Status == booking.StatusRejected {
		reason := b.RejectReason
		resp.RejectReason = &reason
	}
	return resp
}

// CalendarEntryResponse is the public view of a booking: no owner data.
type CalendarEntryResponse struct {
	ID        string    `json:"id"`
	Resource  Tag       `json:"resource"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

func NewCalendarEntryResponse(b *booking.Booking) CalendarEntryResponse {
	return CalendarEntryResponse{
		ID:        b.ID,
		Resource:  Tag{ID: b.ResourceID, Name: b.ResourceName},
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
	}
}

package http

import (
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/file"
	"github.com/nekogravitycat/resource-booking-backend/internal/issuereport"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
)

// CreateIssueReportRequest is the text part of the multipart form; images
// arrive in the "images" field.
type CreateIssueReportRequest struct {
	ResourceID  string `form:"resource_id"`
	Title       string `form:"title" binding:"max=200"`
	Description string `form:"description" binding:"max=2000"`
}

type ListIssueReportsRequest struct {
	request.ListParams
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,issue_status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type IssueReportResponse struct {
	ID            string    `json:"id"`
	User          Tag       `json:"user"`
	Resource      Tag       `json:"resource"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURLs     []string  `json:"image_urls"`
	ThumbnailURLs []string  `json:"thumbnail_urls"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewResponse(ir *issuereport.IssueReport) IssueReportResponse {
	images := make([]string, len(ir.ImageIDs))
	thumbs := make([]string, len(ir.ImageIDs))
	for i, id := range ir.ImageIDs {
		images[i] = file.FileURL(id)
		thumbs[i] = file.ThumbnailURL(id)
	}

	return IssueReportResponse{
		ID:            ir.ID,
		User:          Tag{ID: ir.UserID, Name: ir.UserName},
		Resource:      Tag{ID: ir.ResourceID, Name: ir.ResourceName},
		Title:         ir.Title,
		Description:   ir.Description,
		ImageURLs:     images,
		ThumbnailURLs: thumbs,
		Status:        string(ir.Status),
		CreatedAt:     ir.CreatedAt,
		UpdatedAt:     ir.UpdatedAt,
	}
}

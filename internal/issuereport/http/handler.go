package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/file"
	filehttp "github.com/nekogravitycat/resource-booking-backend/internal/file/http"
	"github.com/nekogravitycat/resource-booking-backend/internal/issuereport"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

// imageUpload is the rule set for report photos.
var imageUpload = filehttp.FileUploadConfig{
	FormFieldName: "images",
	MaxFiles:      5,
	MaxSizeBytes:  5 << 20,
	AllowedTypes:  []string{"image/*"},
	ResizeImage:   true,
}

type Handler struct {
	service     issuereport.Service
	fileService file.Service
}

func NewHandler(service issuereport.Service, fileService file.Service) *Handler {
	return &Handler{service: service, fileService: fileService}
}

func actorFrom(c *gin.Context) user.Actor {
	return user.Actor{
		UserID: auth.GetUserID(c),
		Role:   user.Role(auth.GetUserRole(c)),
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateIssueReportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}

	ctx := c.Request.Context()
	in := issuereport.CreateInput{
		ResourceID:  req.ResourceID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := h.service.Validate(ctx, in); err != nil {
		response.Error(c, err)
		return
	}

	actor := actorFrom(c)
	images, err := filehttp.UploadFiles(c, h.fileService, actor.UserID, imageUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	for _, img := range images {
		in.ImageIDs = append(in.ImageIDs, img.ID)
	}

	ir, err := h.service.Create(ctx, actor, in)
	if err != nil {
		filehttp.DeleteFiles(c, h.fileService, images)
		response.Error(c, err)
		return
	}

	response.Created(c, "issue report created", NewResponse(ir))
}

func (h *Handler) List(c *gin.Context) {
	var req ListIssueReportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}
	req.Normalize()

	items, total, err := h.service.List(c.Request.Context(), actorFrom(c), issuereport.ListInput{
		ResourceID: req.ResourceID,
		Status:     issuereport.Status(req.Status),
		Page:       req.Page,
		Limit:      req.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	data := make([]IssueReportResponse, len(items))
	for i, ir := range items {
		data[i] = NewResponse(ir)
	}

	response.OK(c, "ok", response.NewPageResponse(data, req.Page, req.Limit, total))
}

func (h *Handler) Get(c *gin.Context) {
	ir, err := h.service.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "ok", NewResponse(ir))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := request.BindStrictJSON(c, &req); err != nil {
		response.Error(c, request.Invalid(err))
		return
	}

	ir, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), issuereport.Status(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "issue report status updated", NewResponse(ir))
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "issue report deleted", nil)
}

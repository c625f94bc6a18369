package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/file"
	"github.com/nekogravitycat/resource-booking-backend/internal/issuereport"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

const resourceID = "0d3a4c1e-8f55-4b9a-b7c2-6f1e2d3c4b5a"

type mockService struct {
	mock.Mock
}

func (m *mockService) Validate(ctx context.Context, in issuereport.CreateInput) error {
	return m.Called(in).Error(0)
}

func (m *mockService) Create(ctx context.Context, actor user.Actor, in issuereport.CreateInput) (*issuereport.IssueReport, error) {
	args := m.Called(actor, in)
	ir, _ := args.Get(0).(*issuereport.IssueReport)
	return ir, args.Error(1)
}

func (m *mockService) List(ctx context.Context, actor user.Actor, in issuereport.ListInput) ([]*issuereport.IssueReport, int, error) {
	args := m.Called(actor, in)
	items, _ := args.Get(0).([]*issuereport.IssueReport)
	return items, args.Int(1), args.Error(2)
}

func (m *mockService) Get(ctx context.Context, actor user.Actor, id string) (*issuereport.IssueReport, error) {
	args := m.Called(actor, id)
	ir, _ := args.Get(0).(*issuereport.IssueReport)
	return ir, args.Error(1)
}

func (m *mockService) UpdateStatus(ctx context.Context, id string, status issuereport.Status) (*issuereport.IssueReport, error) {
	args := m.Called(id, status)
	ir, _ := args.Get(0).(*issuereport.IssueReport)
	return ir, args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

// fakeFiles hands out sequential ids and records deletions.
type fakeFiles struct {
	uploaded []string
	deleted  []string
}

func (f *fakeFiles) Upload(ctx context.Context, in file.UploadInput) (*file.File, error) {
	id := fmt.Sprintf("file-%d", len(f.uploaded)+1)
	f.uploaded = append(f.uploaded, in.FileHeader.Filename)
	return &file.File{ID: id, UserID: in.UserID, Filename: in.FileHeader.Filename}, nil
}

func (f *fakeFiles) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeFiles) Get(ctx context.Context, id string) (*file.File, error) {
	return nil, file.ErrNotFound
}

func (f *fakeFiles) Download(ctx context.Context, id string) (io.ReadCloser, *file.File, error) {
	return nil, nil, file.ErrNotFound
}

func (f *fakeFiles) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *file.File, error) {
	return nil, nil, file.ErrNotFound
}

var student = user.Actor{UserID: "student-1", Role: user.RoleStudent}

func newEngine(t *testing.T, svc issuereport.Service, files file.Service, role user.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, request.RegisterEnum("issue_status", issuereport.StatusStrings()...))

	asUser := func(c *gin.Context) {
		auth.SetUser(c, student.UserID, "s@example.com")
		auth.SetUserRole(c, string(role))
		c.Next()
	}
	adminOnly := func(c *gin.Context) {
		if auth.GetUserRole(c) != string(user.RoleAdmin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
	passthrough := func(c *gin.Context) { c.Next() }

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, files), gin.HandlersChain{asUser}, adminOnly, passthrough)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, images int) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for i := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="photo%d.png"`, i))
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("png"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func postReport(r *gin.Engine, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/issue-reports", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreate(t *testing.T) {
	fields := map[string]string{"resource_id": resourceID, "title": "Broken projector", "description": "flickers"}
	base := issuereport.CreateInput{ResourceID: resourceID, Title: "Broken projector", Description: "flickers"}

	t.Run("stores images and links them", func(t *testing.T) {
		svc := new(mockService)
		files := &fakeFiles{}
		withImages := base
		withImages.ImageIDs = []string{"file-1", "file-2"}
		svc.On("Validate", base).Return(nil)
		svc.On("Create", student, withImages).Return(&issuereport.IssueReport{
			ID: "r-1", UserID: student.UserID, ResourceID: resourceID, ImageIDs: withImages.ImageIDs, Status: issuereport.StatusNew,
		}, nil)

		body, ct := multipartBody(t, fields, 2)
		w := postReport(newEngine(t, svc, files, user.RoleStudent), body, ct)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"/v1/files/file-1"`)
		assert.Contains(t, w.Body.String(), `"/v1/files/file-2/thumbnail"`)
		assert.Empty(t, files.deleted)
		svc.AssertExpectations(t)
	})

	t.Run("invalid text uploads nothing", func(t *testing.T) {
		svc := new(mockService)
		files := &fakeFiles{}
		svc.On("Validate", mock.Anything).Return(issuereport.ErrTitleRequired)

		body, ct := multipartBody(t, map[string]string{"resource_id": resourceID, "description": "x"}, 1)
		w := postReport(newEngine(t, svc, files, user.RoleStudent), body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, files.uploaded)
	})

	t.Run("too many images", func(t *testing.T) {
		svc := new(mockService)
		files := &fakeFiles{}
		svc.On("Validate", base).Return(nil)

		body, ct := multipartBody(t, fields, 6)
		w := postReport(newEngine(t, svc, files, user.RoleStudent), body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), apperror.KindInvalidFileUpload)
		assert.Empty(t, files.uploaded)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("failed create removes the uploaded images", func(t *testing.T) {
		svc := new(mockService)
		files := &fakeFiles{}
		svc.On("Validate", base).Return(nil)
		svc.On("Create", student, mock.Anything).Return(nil, fmt.Errorf("db down"))

		body, ct := multipartBody(t, fields, 2)
		w := postReport(newEngine(t, svc, files, user.RoleStudent), body, ct)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, []string{"file-1", "file-2"}, files.deleted)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		svc := new(mockService)
		svc.On("UpdateStatus", "r-1", issuereport.StatusResolved).
			Return(&issuereport.IssueReport{ID: "r-1", Status: issuereport.StatusResolved}, nil)

		req := httptest.NewRequest(http.MethodPut, "/v1/issue-reports/r-1/status", bytes.NewBufferString(`{"status":"resolved"}`))
		w := httptest.NewRecorder()
		newEngine(t, svc, &fakeFiles{}, user.RoleAdmin).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"resolved"`)
	})

	t.Run("students are refused", func(t *testing.T) {
		svc := new(mockService)
		req := httptest.NewRequest(http.MethodPut, "/v1/issue-reports/r-1/status", bytes.NewBufferString(`{"status":"resolved"}`))
		w := httptest.NewRecorder()
		newEngine(t, svc, &fakeFiles{}, user.RoleStudent).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := new(mockService)
	req := httptest.NewRequest(http.MethodGet, "/v1/issue-reports?status=open", nil)
	w := httptest.NewRecorder()
	newEngine(t, svc, &fakeFiles{}, user.RoleAdmin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

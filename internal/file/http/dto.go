package http

import "github.com/nekogravitycat/resource-booking-backend/internal/file"

type FileResponse struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	ContentType  string  `json:"content_type"`
	Size         int64   `json:"size"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

func NewFileResponse(f *file.File) FileResponse {
	var thumbURL *string
	if f.ThumbnailPath != nil {
		t := file.ThumbnailURL(f.ID)
		thumbURL = &t
	}
	return FileResponse{
		ID:           f.ID,
		Filename:     f.Filename,
		ContentType:  f.ContentType,
		Size:         f.Size,
		URL:          file.FileURL(f.ID),
		ThumbnailURL: thumbURL,
	}
}

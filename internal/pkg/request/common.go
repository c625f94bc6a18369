package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListParams carries the page/limit query parameters shared by list endpoints.
type ListParams struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Normalize fills in defaults for missing values.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
}

// Offset returns the number of rows to skip for the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

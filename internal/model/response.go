package model

// Response is the success envelope for every API response.
type Response struct {
	OK   bool      `json:"ok"`
	Data any       `json:"data"`
	Meta *PageMeta `json:"meta,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PageMeta describes the page returned by a list endpoint.
type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPageMeta builds the meta block for a page of a listing with total rows.
func NewPageMeta(p ListParams, total int) *PageMeta {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return &PageMeta{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams holds the common list query parameters.
type ListParams struct {
	Page  int
	Limit int
	Query string
}

// Normalize clamps page and limit into their valid ranges.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

package model

const (
	// DefaultPageSize is the page size used when a request does not set one.
	DefaultPageSize = 15

	// MaxPageSize caps the page size a request may ask for.
	MaxPageSize = 100
)

// PageRequest selects one page of a result set. Pages are 1-based.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request into the accepted range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Size
}

// Page is one page of records together with the pagination totals.
type Page struct {
	Total       int64    `json:"total"`
	PerPage     int      `json:"per_page"`
	CurrentPage int      `json:"current_page"`
	LastPage    int      `json:"last_page"`
	Data        []Record `json:"data"`
}

// NewPage assembles a Page for the given request and total row count.
func NewPage(data []Record, total int64, req PageRequest) *Page {
	req = req.Normalize()

	last := int((total + int64(req.Size) - 1) / int64(req.Size))
	if last < 1 {
		last = 1
	}
	if data == nil {
		data = []Record{}
	}

	return &Page{
		Total:       total,
		PerPage:     req.Size,
		CurrentPage: req.Page,
		LastPage:    last,
		Data:        data,
	}
}

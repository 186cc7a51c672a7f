package paging

const (
	// DefaultPageSize is the page size used when the request does not name one.
	DefaultPageSize = 25

	// MaxPageSize caps requested page sizes. Oversized requests are capped,
	// not rejected, so stale bookmarks keep working.
	MaxPageSize = 100
)

// PageArgs carries the paging controls of a listing request.
//
// Page is the legacy 1-based page number. When it is set the fetch runs in
// offset mode; otherwise the fetch is keyset driven by Cursor and Direction.
type PageArgs struct {
	Page      int
	PageSize  int
	Cursor    string
	Direction Direction
}

// OffsetMode reports whether the request pinned an explicit page number.
func (a PageArgs) OffsetMode() bool {
	return a.Page > 0
}

// EffectiveLimit returns the page size to use, applying the default and cap.
func (a PageArgs) EffectiveLimit() int {
	if a.PageSize <= 0 {
		return DefaultPageSize
	}
	if a.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return a.PageSize
}

// EffectivePage returns the 1-based page number, defaulting to the first page.
func (a PageArgs) EffectivePage() int {
	if a.Page <= 0 {
		return 1
	}
	return a.Page
}

// Offset returns the row offset of the requested page in offset mode.
func (a PageArgs) Offset() int {
	return (a.EffectivePage() - 1) * a.EffectiveLimit()
}

// Meta is the paging envelope returned with every listing page.
//
// TotalCount and TotalPages stay null when the row count is unknown, for
// example when the count query ran over its time budget. Page and the
// showing range stay null in keyset mode, where the absolute offset of the
// page is not known.
type Meta struct {
	Page        *int    `json:"page"`
	PageSize    int     `json:"page_size"`
	HasMore     bool    `json:"has_more"`
	NextCursor  *string `json:"next_cursor"`
	PrevCursor  *string `json:"prev_cursor"`
	ShowingFrom *int    `json:"showing_from"`
	ShowingTo   *int    `json:"showing_to"`
	TotalCount  *int    `json:"total_count"`
	TotalPages  *int    `json:"total_pages"`
}

// NewKeysetMeta assembles the paging envelope for a keyset page. first and
// last are the boundary positions of the returned rows, nil when the page
// came back empty.
func NewKeysetMeta(pageSize int, hasMore bool, first, last *Cursor, total *int) Meta {
	m := Meta{
		PageSize:   pageSize,
		HasMore:    hasMore,
		TotalCount: total,
	}

	if first != nil {
		prev := EncodeCursor(*first)
		m.PrevCursor = &prev
	}
	if last != nil {
		next := EncodeCursor(*last)
		m.NextCursor = &next
	}

	m.fillTotalPages()
	return m
}

// NewOffsetMeta assembles the paging envelope for a legacy offset page.
// rowCount is the number of rows actually returned on this page.
func NewOffsetMeta(page, pageSize, rowCount int, hasMore bool, total *int) Meta {
	m := Meta{
		Page:       &page,
		PageSize:   pageSize,
		HasMore:    hasMore,
		TotalCount: total,
	}

	if rowCount > 0 {
		from := (page-1)*pageSize + 1
		to := from + rowCount - 1
		m.ShowingFrom = &from
		m.ShowingTo = &to
	}

	m.fillTotalPages()
	return m
}

func (m *Meta) fillTotalPages() {
	if m.TotalCount == nil || m.PageSize <= 0 {
		return
	}
	pages := (*m.TotalCount + m.PageSize - 1) / m.PageSize
	m.TotalPages = &pages
}

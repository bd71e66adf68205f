package reconcile

// Cursor tracks the pagination offset and completion flag for one listing.
// A full refresh resets it; load-more calls advance it. Cross-page
// de-duplication itself happens in the Engine's Append reducer, which drops
// ids the collection already holds.
type Cursor struct {
	offset    int
	pageSize  int
	exhausted bool
}

// NewCursor creates a cursor requesting pageSize items per page.
func NewCursor(pageSize int) *Cursor {
	return &Cursor{pageSize: pageSize}
}

// PageSize returns the configured page size.
func (c *Cursor) PageSize() int {
	return c.pageSize
}

// Exhausted reports whether the listing has no further pages.
func (c *Cursor) Exhausted() bool {
	return c.exhausted
}

// NextOffset returns the offset to request: the current offset for a
// load-more call, zero for a refresh.
func (c *Cursor) NextOffset(loadMore bool) int {
	if loadMore {
		return c.offset
	}
	return 0
}

// CompleteRefresh records the result of a full refresh: the offset becomes
// one page size and the completion flag is re-derived.
func (c *Cursor) CompleteRefresh(returned int, hasMore *bool) {
	c.offset = c.pageSize
	c.exhausted = c.inferExhausted(returned, hasMore)
}

// CompleteLoadMore records the result of a load-more call: the offset
// advances by one page size.
func (c *Cursor) CompleteLoadMore(returned int, hasMore *bool) {
	c.offset += c.pageSize
	c.exhausted = c.inferExhausted(returned, hasMore)
}

// inferExhausted uses the server's explicit flag when provided, otherwise
// infers completion from a short page.
func (c *Cursor) inferExhausted(returned int, hasMore *bool) bool {
	if hasMore != nil {
		return !*hasMore
	}
	return returned < c.pageSize
}

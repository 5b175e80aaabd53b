package board

import "github.com/tableside/console/internal/enum"

// Query is the staff view's filter state. The zero value is not usable; use
// NewQuery.
type Query struct {
	Bucket Bucket `json:"tab"`
	Search string `json:"search"`
	Status string `json:"status"`
	Page   int    `json:"page"`
}

// NewQuery returns the state shown when the staff view mounts.
func NewQuery() Query {
	return Query{
		Bucket: BucketActive,
		Status: enum.StatusFilterAll,
		Page:   1,
	}
}

// WithBucket switches tab. Page and status filter are reset.
func (q Query) WithBucket(b Bucket) Query {
	q.Bucket = b
	q.Status = enum.StatusFilterAll
	q.Page = 1
	return q
}

// WithStatus narrows to one status ("all" clears). Page is reset.
func (q Query) WithStatus(status string) Query {
	q.Status = status
	q.Page = 1
	return q
}

// WithSearch updates the free-text filter.
func (q Query) WithSearch(search string) Query {
	q.Search = search
	return q
}

// WithPage requests a page; it is clamped when the query is evaluated.
func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

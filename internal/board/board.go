// Package board classifies, sorts, filters and paginates orders for the
// staff view.
package board

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tableside/console/internal/enum"
	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/paging"
	"github.com/tableside/console/internal/workflow"
)

// Bucket is a display partition of the order set.
type Bucket string

const (
	BucketActive     Bucket = enum.BucketActive
	BucketSettlement Bucket = enum.BucketSettlement
	BucketArchived   Bucket = enum.BucketArchived
)

var (
	ErrUnknownBucket       = errors.New("unknown bucket")
	ErrInvalidStatusFilter = errors.New("invalid status filter")
)

var bucketStatuses = map[Bucket][]workflow.Status{
	BucketActive:     {workflow.StatusPending, workflow.StatusPreparing, workflow.StatusDelivering},
	BucketSettlement: {workflow.StatusDelivered, workflow.StatusPaid},
	BucketArchived:   {workflow.StatusCancelled},
}

// Classify places a status in exactly one bucket. Unknown statuses are
// archived so they never show up on the board.
func Classify(s workflow.Status) Bucket {
	switch s {
	case workflow.StatusPending, workflow.StatusPreparing, workflow.StatusDelivering:
		return BucketActive
	case workflow.StatusDelivered, workflow.StatusPaid:
		return BucketSettlement
	default:
		return BucketArchived
	}
}

// ParseBucket accepts the two visible buckets.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketActive, BucketSettlement:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

// Statuses lists the statuses belonging to b, in path order.
func (b Bucket) Statuses() []workflow.Status {
	return slices.Clone(bucketStatuses[b])
}

// ParseStatusFilter accepts "all" or any known status.
func ParseStatusFilter(s string) (string, error) {
	if s == "" || s == enum.StatusFilterAll {
		return enum.StatusFilterAll, nil
	}
	if _, err := workflow.ParseStatus(s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatusFilter, s)
	}
	return s, nil
}

func byCreatedAsc(a, b model.Order) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func byCreatedDesc(a, b model.Order) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// settlementOrder puts every delivered order ahead of every paid one;
// delivered oldest first, paid newest first.
func settlementOrder(a, b model.Order) int {
	aDelivered := a.Status == workflow.StatusDelivered
	bDelivered := b.Status == workflow.StatusDelivered
	switch {
	case aDelivered && bDelivered:
		return byCreatedAsc(a, b)
	case aDelivered:
		return -1
	case bDelivered:
		return 1
	default:
		return byCreatedDesc(a, b)
	}
}

// Collect returns the orders of bucket b in display order. The input is not
// modified.
func Collect(orders []model.Order, b Bucket) []model.Order {
	var out []model.Order
	for _, o := range orders {
		if Classify(o.Status) == b {
			out = append(out, o)
		}
	}
	switch b {
	case BucketActive:
		slices.SortFunc(out, byCreatedAsc)
	case BucketSettlement:
		slices.SortFunc(out, settlementOrder)
	default:
		slices.SortFunc(out, byCreatedDesc)
	}
	return out
}

// Filter keeps orders whose table or status contains search
// (case-insensitive) and whose status equals status unless it is "all".
func Filter(orders []model.Order, search, status string) []model.Order {
	needle := strings.ToLower(search)
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if status != "" && status != enum.StatusFilterAll && string(o.Status) != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(o.Table), needle) &&
			!strings.Contains(strings.ToLower(string(o.Status)), needle) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Select runs the full pipeline: bucket, sort, filter, paginate.
func Select(orders []model.Order, q Query) paging.Page[model.Order] {
	rows := Filter(Collect(orders, q.Bucket), q.Search, q.Status)
	return paging.Paginate(rows, q.Page, paging.DefaultSize)
}

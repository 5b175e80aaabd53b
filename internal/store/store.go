// Package store keeps the staff board's orders keyed by id.
//
// Two writers feed it: push ingestion (Upsert) and full re-fetches
// (BeginRefresh + Replace). Keying by id makes a push and an overlapping
// fetch converge on one entry per order.
package store

import (
	"slices"
	"sync"

	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/workflow"
)

type entry struct {
	order model.Order
	seq   uint64
}

// Orders is an id-keyed order collection safe for concurrent use.
type Orders struct {
	mu      sync.RWMutex
	entries map[int64]entry
	seq     uint64
}

// New returns an empty collection.
func New() *Orders {
	return &Orders{entries: make(map[int64]entry)}
}

// Upsert inserts o or replaces the entry with the same id. An incoming order
// whose status sits before the stored one is ignored, so a late push cannot
// move an order backwards. Reports whether the collection changed.
func (s *Orders) Upsert(o model.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[o.ID]; ok && workflow.Precedes(o.Status, cur.order.Status) {
		return false
	}
	s.seq++
	s.entries[o.ID] = entry{order: o, seq: s.seq}
	return true
}

// Refresh marks the start of a full re-fetch.
type Refresh struct {
	seq uint64
}

// BeginRefresh must be called before the fetch request is issued.
func (s *Orders) BeginRefresh() Refresh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Refresh{seq: s.seq}
}

// Replace installs the fetched snapshot as the authoritative state. Entries
// upserted after r began and missing from the snapshot are kept; everything
// else not in the snapshot is dropped.
func (s *Orders) Replace(r Refresh, snapshot []model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int64]entry, len(snapshot))
	for _, o := range snapshot {
		s.seq++
		next[o.ID] = entry{order: o, seq: s.seq}
	}
	for id, e := range s.entries {
		if _, ok := next[id]; ok {
			continue
		}
		if e.seq > r.seq {
			next[id] = e
		}
	}
	s.entries = next
}

// Get returns the order with the given id.
func (s *Orders) Get(id int64) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e.order, ok
}

// Len returns the number of orders held.
func (s *Orders) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns all orders, newest insertion first. Display order is
// decided by the board, not here.
func (s *Orders) Snapshot() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	es := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		es = append(es, e)
	}
	slices.SortFunc(es, func(a, b entry) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	out := make([]model.Order, len(es))
	for i, e := range es {
		out[i] = e.order
	}
	return out
}

// Clear drops every order.
func (s *Orders) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[int64]entry)
}

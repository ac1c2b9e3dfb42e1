package rbtree

import (
	"context"
	"sync"
	"time"
)

// Operation names reported to a Recorder.
const (
	OpInsert = "insert"
	OpDelete = "delete"
	OpSearch = "search"
	OpClear  = "clear"
)

// Operation outcomes reported to a Recorder.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
)

// Recorder receives one sample per tree operation.
type Recorder interface {
	RecordRequest(ctx context.Context, op, status string, duration time.Duration)
}

// InflightTracker is implemented by recorders that also count operations
// still running or waiting for the lock. The returned func ends the operation.
type InflightTracker interface {
	TrackInflight(ctx context.Context, op string) func()
}

// Synced guards a Tree with a sync.RWMutex. Mutations take the write lock,
// lookups share the read lock.
type Synced[K any] struct {
	mu       sync.RWMutex
	tree     *Tree[K]
	recorder Recorder
}

// NewSynced wraps tree. The recorder may be nil.
func NewSynced[K any](tree *Tree[K], recorder Recorder) *Synced[K] {
	return &Synced[K]{tree: tree, recorder: recorder}
}

// Insert adds key.
func (s *Synced[K]) Insert(ctx context.Context, key K) {
	done := s.begin(ctx, OpInsert)

	s.mu.Lock()
	s.tree.Insert(key)
	s.mu.Unlock()

	done(StatusOK)
}

// Delete removes one node holding key.
func (s *Synced[K]) Delete(ctx context.Context, key K) bool {
	done := s.begin(ctx, OpDelete)

	s.mu.Lock()
	removed := s.tree.Delete(key)
	s.mu.Unlock()

	done(statusOf(removed))

	return removed
}

// Contains reports whether key is present.
func (s *Synced[K]) Contains(ctx context.Context, key K) bool {
	done := s.begin(ctx, OpSearch)

	s.mu.RLock()
	found := s.tree.Contains(key)
	s.mu.RUnlock()

	done(statusOf(found))

	return found
}

// Clear removes every node.
func (s *Synced[K]) Clear(ctx context.Context) {
	done := s.begin(ctx, OpClear)

	s.mu.Lock()
	s.tree.Clear()
	s.mu.Unlock()

	done(StatusOK)
}

// Len returns the number of nodes.
func (s *Synced[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Len()
}

// Keys returns a sorted copy of the keys.
func (s *Synced[K]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Keys()
}

// Dump returns the structural description.
func (s *Synced[K]) Dump() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Dump()
}

// View runs fn with the read lock held. fn must not retain the tree.
func (s *Synced[K]) View(fn func(tree *Tree[K])) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(s.tree)
}

// begin starts timing op. The returned func reports the outcome.
func (s *Synced[K]) begin(ctx context.Context, op string) func(status string) {
	if s.recorder == nil {
		return func(string) {}
	}

	start := time.Now()
	release := func() {}

	if tracker, ok := s.recorder.(InflightTracker); ok {
		release = tracker.TrackInflight(ctx, op)
	}

	return func(status string) {
		release()
		s.recorder.RecordRequest(ctx, op, status, time.Since(start))
	}
}

func statusOf(ok bool) string {
	if ok {
		return StatusOK
	}

	return StatusNotFound
}

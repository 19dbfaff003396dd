// Package undo keeps full-copy snapshots of label images so that editing
// operations can be reverted.
package undo

import (
	"fmt"
	"sync"

	"segtools/pkg/raster"
)

// Stack is a bounded multi-level undo history for one label image.
//
// Snapshots are grouped in batches: between Begin and End only the first Save
// stores a copy, so an edit made of several region operations is undone in a
// single step. Outside a batch every Save stores a copy.
type Stack struct {
	mu        sync.Mutex
	levels    int
	snapshots []*raster.Label
	inBatch   bool
	saved     bool
}

// New creates a stack that keeps at most levels snapshots. Levels below one
// are raised to one.
func New(levels int) *Stack {
	if levels < 1 {
		levels = 1
	}
	return &Stack{levels: levels}
}

// Begin opens a batch.
func (s *Stack) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inBatch = true
	s.saved = false
}

// End closes the current batch.
func (s *Stack) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inBatch = false
	s.saved = false
}

// Save stores a copy of label unless the current batch already has one. It is
// called by the region operations right before their first write.
func (s *Stack) Save(label *raster.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inBatch && s.saved {
		return
	}
	s.saved = true

	s.snapshots = append(s.snapshots, label.Clone())
	if len(s.snapshots) > s.levels {
		// drop the oldest level
		s.snapshots[0] = nil
		s.snapshots = s.snapshots[1:]
	}
}

// Available reports whether there is something to undo.
func (s *Stack) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots) > 0
}

// Len returns the number of stored snapshots.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// Undo restores the most recent snapshot into label and removes it from the
// stack.
func (s *Stack) Undo(label *raster.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.snapshots)
	if n == 0 {
		return fmt.Errorf("undo stack is empty")
	}
	snap := s.snapshots[n-1]
	if err := label.CopyFrom(snap); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	s.snapshots[n-1] = nil
	s.snapshots = s.snapshots[:n-1]
	return nil
}

// Clear drops every snapshot.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = nil
	s.saved = false
}

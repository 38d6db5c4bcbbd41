// Package undo keeps a bounded linear history of task collection snapshots.
package undo

import (
	"sync"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

const DefaultCapacity = 50

// Log holds past, present and future snapshots. Every snapshot crossing the
// Log boundary is deep-copied, so callers may keep using what they pass in.
type Log struct {
	mu       sync.Mutex
	capacity int
	past     []model.Collection
	present  model.Collection
	future   []model.Collection
}

func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, present: model.NewCollection(nil)}
}

// Initialize installs snapshot as present and drops past and future.
func (l *Log) Initialize(snapshot model.Collection) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.present = snapshot.Clone()
	l.past = nil
	l.future = nil
}

// Push records snapshot as the new present. Future is cleared.
func (l *Log) Push(snapshot model.Collection) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.past = append(l.past, l.present)
	if len(l.past) > l.capacity {
		l.past = append([]model.Collection(nil), l.past[len(l.past)-l.capacity:]...)
	}
	l.present = snapshot.Clone()
	l.future = nil
}

// Undo restores the most recent past snapshot. ok is false when there is
// nothing to undo.
func (l *Log) Undo() (model.Collection, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.past) == 0 {
		return model.Collection{}, false
	}
	last := len(l.past) - 1
	previous := l.past[last]
	l.past = l.past[:last]
	l.future = append([]model.Collection{l.present}, l.future...)
	l.present = previous
	return l.present.Clone(), true
}

// Redo reinstalls the earliest future snapshot.
func (l *Log) Redo() (model.Collection, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.future) == 0 {
		return model.Collection{}, false
	}
	next := l.future[0]
	l.future = l.future[1:]
	l.past = append(l.past, l.present)
	l.present = next
	return l.present.Clone(), true
}

func (l *Log) Present() model.Collection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.present.Clone()
}

func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.past) > 0
}

func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.future) > 0
}

// Depth reports the number of past and future snapshots.
func (l *Log) Depth() (past, future int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.past), len(l.future)
}

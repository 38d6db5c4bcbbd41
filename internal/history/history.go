// Package history keeps the capped audit trail of task changes.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/storage"
)

const DefaultCapacity = 100

// Trail is append-only and best-effort: persistence failures are logged and
// never returned from Add or Clear.
type Trail struct {
	mu       sync.RWMutex
	kv       storage.KV
	log      lgr.L
	now      func() time.Time
	capacity int
	entries  []model.HistoryEntry
}

type Option func(*Trail)

func WithClock(now func() time.Time) Option {
	return func(t *Trail) { t.now = now }
}

func WithCapacity(capacity int) Option {
	return func(t *Trail) {
		if capacity > 0 {
			t.capacity = capacity
		}
	}
}

func New(kv storage.KV, logger lgr.L, opts ...Option) *Trail {
	if logger == nil {
		logger = lgr.NoOp
	}
	t := &Trail{
		kv:       kv,
		log:      logger,
		now:      time.Now,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the in-memory trail with the persisted one. A missing key
// leaves the trail empty.
func (t *Trail) Load(ctx context.Context) error {
	data, err := t.kv.Get(ctx, storage.KeyHistory)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []model.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = entries
	t.trim()
	return nil
}

func (t *Trail) Add(ctx context.Context, taskID, title string, action model.Action, changes map[string]model.Change, previous *model.Task) model.HistoryEntry {
	entry := model.HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: t.now(),
		Action:    action,
		TaskID:    taskID,
		TaskTitle: title,
		Changes:   changes,
	}
	if previous != nil {
		snapshot := previous.Clone()
		entry.PreviousState = &snapshot
	}

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.trim()
	payload, err := json.Marshal(t.entries)
	t.mu.Unlock()

	if err != nil {
		t.log.Logf("[WARN] history: encode trail: %v", err)
		return entry
	}
	if err := t.kv.Put(ctx, storage.KeyHistory, payload); err != nil {
		t.log.Logf("[WARN] history: persist entry for task %s: %v", taskID, err)
	}
	return entry
}

// All returns the entries oldest first.
func (t *Trail) All() []model.HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.HistoryEntry(nil), t.entries...)
}

func (t *Trail) ForTask(taskID string) []model.HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := []model.HistoryEntry{}
	for _, entry := range t.entries {
		if entry.TaskID == taskID {
			result = append(result, entry)
		}
	}
	return result
}

func (t *Trail) Export() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := t.entries
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

func (t *Trail) Clear(ctx context.Context) {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()

	if err := t.kv.Delete(ctx, storage.KeyHistory); err != nil {
		t.log.Logf("[WARN] history: clear: %v", err)
	}
}

func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Trail) trim() {
	if over := len(t.entries) - t.capacity; over > 0 {
		t.entries = append([]model.HistoryEntry(nil), t.entries[over:]...)
	}
}

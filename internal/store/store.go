// Package store is the single-writer repository of tasks, categories,
// templates and preferences. Every task mutation installs a new collection,
// records it in the undo log, appends to the history trail and persists the
// whole state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/Joseda-hg/smarttodo/internal/history"
	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/storage"
	"github.com/Joseda-hg/smarttodo/internal/undo"
)

// State is the persisted document stored under storage.KeyState.
type State struct {
	Tasks       model.Collection      `json:"tasks"`
	Categories  []model.Category      `json:"categories"`
	Templates   []model.TaskTemplate  `json:"templates"`
	Preferences model.UserPreferences `json:"preferences"`
}

// Event describes a committed task change.
type Event struct {
	Action model.Action
	Task   model.Task
}

type Repository struct {
	mu      sync.RWMutex
	kv      storage.KV
	undo    *undo.Log
	history *history.Trail
	log     lgr.L
	now     func() time.Time
	newID   func() string

	tasks      model.Collection
	categories []model.Category
	templates  []model.TaskTemplate
	prefs      model.UserPreferences

	listeners []func(Event)
}

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

func WithLogger(logger lgr.L) Option {
	return func(r *Repository) { r.log = logger }
}

func WithUndoCapacity(capacity int) Option {
	return func(r *Repository) { r.undo = undo.New(capacity) }
}

func New(kv storage.KV, trail *history.Trail, opts ...Option) *Repository {
	r := &Repository{
		kv:      kv,
		history: trail,
		undo:    undo.New(undo.DefaultCapacity),
		log:     lgr.NoOp,
		now:     time.Now,
		newID:   uuid.NewString,
		tasks:   model.NewCollection(nil),
		prefs:   model.DefaultPreferences(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.history == nil {
		r.history = history.New(kv, r.log)
	}
	r.undo.Initialize(r.tasks)
	return r
}

// Load restores state from storage and initializes the undo log from it.
// A missing state key leaves the repository empty with default preferences.
func (r *Repository) Load(ctx context.Context) error {
	data, err := r.kv.Get(ctx, storage.KeyState)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read state: %w", err)
	}

	state := State{Tasks: model.NewCollection(nil), Preferences: model.DefaultPreferences()}
	if err == nil {
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("parse state: %w", err)
		}
	}

	r.mu.Lock()
	r.tasks = state.Tasks
	r.categories = state.Categories
	r.templates = state.Templates
	r.prefs = state.Preferences
	r.undo.Initialize(r.tasks)
	r.mu.Unlock()

	if err := r.history.Load(ctx); err != nil {
		r.log.Logf("[WARN] store: load history: %v", err)
	}
	r.log.Logf("[DEBUG] store: loaded %d tasks, %d categories, %d templates", state.Tasks.Len(), len(state.Categories), len(state.Templates))
	return nil
}

// Subscribe registers fn to be called after every committed task change.
func (r *Repository) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Repository) History() *history.Trail {
	return r.history
}

// commitTasks installs next, records it for undo and persists. Callers hold r.mu.
func (r *Repository) commitTasks(ctx context.Context, next model.Collection) {
	r.tasks = next
	r.undo.Push(next)
	r.persistLocked(ctx)
}

func (r *Repository) persistLocked(ctx context.Context) {
	state := State{
		Tasks:       r.tasks,
		Categories:  r.categories,
		Templates:   r.templates,
		Preferences: r.prefs,
	}
	data, err := json.Marshal(state)
	if err != nil {
		r.log.Logf("[WARN] store: encode state: %v", err)
		return
	}
	if err := r.kv.Put(ctx, storage.KeyState, data); err != nil {
		r.log.Logf("[WARN] store: persist state: %v", err)
	}
}

func (r *Repository) emit(events []Event) {
	r.mu.RLock()
	listeners := append(([]func(Event))(nil), r.listeners...)
	r.mu.RUnlock()

	for _, event := range events {
		for _, fn := range listeners {
			fn(event)
		}
	}
}

// Undo restores the previous task collection. It does not write history.
func (r *Repository) Undo(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	restored, ok := r.undo.Undo()
	if !ok {
		return false
	}
	r.tasks = restored
	r.persistLocked(ctx)
	return true
}

func (r *Repository) Redo(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	restored, ok := r.undo.Redo()
	if !ok {
		return false
	}
	r.tasks = restored
	r.persistLocked(ctx)
	return true
}

func (r *Repository) CanUndo() bool {
	return r.undo.CanUndo()
}

func (r *Repository) CanRedo() bool {
	return r.undo.CanRedo()
}

// ReplaceTasks swaps in an imported or restored task set as one undoable step.
func (r *Repository) ReplaceTasks(ctx context.Context, tasks []model.Task, categories []model.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if categories != nil {
		r.categories = append([]model.Category(nil), categories...)
	}
	r.commitTasks(ctx, model.NewCollection(tasks))
	r.log.Logf("[INFO] store: replaced task set with %d tasks", len(tasks))
}

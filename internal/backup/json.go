// Package backup encodes tasks to and from the export formats (JSON, CSV and
// iCalendar) and keeps a bounded set of named backups in storage.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

// FormatVersion is written into every JSON export.
const FormatVersion = "1.0"

// ErrInvalidImport rejects a document that cannot be imported. No state is
// changed when it is returned.
var ErrInvalidImport = errors.New("invalid import file")

func ExportJSON(w io.Writer, tasks []model.Task, categories []model.Category, exportDate time.Time) error {
	doc := model.Backup{
		Tasks:      nonNilTasks(tasks),
		Categories: nonNilCategories(categories),
		ExportDate: exportDate,
		Version:    FormatVersion,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ImportJSON accepts a document only when it carries a well-typed tasks
// array. Tasks without an id get one; timestamps are filled from now and the
// completedAt invariant is restored.
func ImportJSON(r io.Reader, now time.Time) (model.Backup, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Backup{}, fmt.Errorf("read import: %w", err)
	}

	var raw struct {
		Tasks      json.RawMessage  `json:"tasks"`
		Categories []model.Category `json:"categories"`
		ExportDate time.Time        `json:"exportDate"`
		Version    string           `json:"version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Backup{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	trimmed := bytes.TrimSpace(raw.Tasks)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return model.Backup{}, fmt.Errorf("%w: missing tasks array", ErrInvalidImport)
	}

	var tasks []model.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return model.Backup{}, fmt.Errorf("%w: tasks: %v", ErrInvalidImport, err)
	}
	for i := range tasks {
		normalize(&tasks[i], now)
	}

	return model.Backup{
		Tasks:      tasks,
		Categories: nonNilCategories(raw.Categories),
		ExportDate: raw.ExportDate,
		Version:    raw.Version,
	}, nil
}

func normalize(task *model.Task, now time.Time) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if !task.Status.Valid() {
		task.Status = model.StatusPending
	}
	if !task.Priority.Valid() {
		task.Priority = model.PriorityMedium
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.Before(task.CreatedAt) {
		task.UpdatedAt = task.CreatedAt
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if task.Subtasks == nil {
		task.Subtasks = []model.SubTask{}
	}
	switch {
	case task.IsCompleted() && task.CompletedAt == nil:
		task.CompletedAt = model.TimePtr(task.UpdatedAt)
	case !task.IsCompleted():
		task.CompletedAt = nil
	}
}

func nonNilTasks(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return tasks
}

func nonNilCategories(categories []model.Category) []model.Category {
	if categories == nil {
		return []model.Category{}
	}
	return categories
}

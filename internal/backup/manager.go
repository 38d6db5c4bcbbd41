package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/storage"
)

// MaxBackups is how many named backups are kept; the oldest is evicted first.
const MaxBackups = 10

var ErrBackupNotFound = errors.New("backup not found")

// Manager stores each backup under its own key plus an index of metadata.
type Manager struct {
	mu    sync.Mutex
	kv    storage.KV
	log   lgr.L
	now   func() time.Time
	newID func() string
	max   int
}

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) ManagerOption {
	return func(m *Manager) { m.newID = newID }
}

func WithMaxBackups(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.max = n
		}
	}
}

func NewManager(kv storage.KV, logger lgr.L, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = lgr.NoOp
	}
	m := &Manager{
		kv:    kv,
		log:   logger,
		now:   time.Now,
		newID: uuid.NewString,
		max:   MaxBackups,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create snapshots tasks and categories under a new backup id.
func (m *Manager) Create(ctx context.Context, name string, tasks []model.Task, categories []model.Category) (model.BackupMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var buf bytes.Buffer
	if err := ExportJSON(&buf, tasks, categories, now); err != nil {
		return model.BackupMeta{}, err
	}

	meta := model.BackupMeta{
		ID:        m.newID(),
		Name:      name,
		Timestamp: now,
		TaskCount: len(tasks),
		Size:      buf.Len(),
	}
	if meta.Name == "" {
		meta.Name = "Backup " + now.Format("2006-01-02 15:04")
	}

	if err := m.kv.Put(ctx, storage.BackupKeyPrefix+meta.ID, buf.Bytes()); err != nil {
		return model.BackupMeta{}, fmt.Errorf("store backup: %w", err)
	}

	index, err := m.readIndex(ctx)
	if err != nil {
		return model.BackupMeta{}, err
	}
	index = append([]model.BackupMeta{meta}, index...)
	if len(index) > m.max {
		for _, evicted := range index[m.max:] {
			if err := m.kv.Delete(ctx, storage.BackupKeyPrefix+evicted.ID); err != nil {
				m.log.Logf("[WARN] backup: evict %s: %v", evicted.ID, err)
			}
		}
		index = index[:m.max]
	}
	if err := m.writeIndex(ctx, index); err != nil {
		return model.BackupMeta{}, err
	}

	m.log.Logf("[INFO] backup: created %q with %d tasks", meta.Name, meta.TaskCount)
	return meta, nil
}

// List returns backup metadata newest first.
func (m *Manager) List(ctx context.Context) ([]model.BackupMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readIndex(ctx)
}

func (m *Manager) Get(ctx context.Context, id string) (model.Backup, error) {
	data, err := m.kv.Get(ctx, storage.BackupKeyPrefix+id)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Backup{}, ErrBackupNotFound
	}
	if err != nil {
		return model.Backup{}, fmt.Errorf("read backup %s: %w", id, err)
	}
	return ImportJSON(bytes.NewReader(data), m.now())
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, err := m.readIndex(ctx)
	if err != nil {
		return err
	}
	kept := make([]model.BackupMeta, 0, len(index))
	for _, meta := range index {
		if meta.ID != id {
			kept = append(kept, meta)
		}
	}
	if len(kept) == len(index) {
		return ErrBackupNotFound
	}
	if err := m.kv.Delete(ctx, storage.BackupKeyPrefix+id); err != nil {
		return fmt.Errorf("delete backup %s: %w", id, err)
	}
	return m.writeIndex(ctx, kept)
}

func (m *Manager) readIndex(ctx context.Context) ([]model.BackupMeta, error) {
	data, err := m.kv.Get(ctx, storage.KeyBackupIndex)
	if errors.Is(err, storage.ErrNotFound) {
		return []model.BackupMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup index: %w", err)
	}

	var index []model.BackupMeta
	if err := json.Unmarshal(data, &index); err != nil {
		m.log.Logf("[WARN] backup: corrupt index, starting fresh: %v", err)
		return []model.BackupMeta{}, nil
	}
	sort.SliceStable(index, func(i, j int) bool { return index[i].Timestamp.After(index[j].Timestamp) })
	return index, nil
}

func (m *Manager) writeIndex(ctx context.Context, index []model.BackupMeta) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode backup index: %w", err)
	}
	if err := m.kv.Put(ctx, storage.KeyBackupIndex, data); err != nil {
		return fmt.Errorf("store backup index: %w", err)
	}
	return nil
}

package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/storage"
)

type failingKV struct {
	*storage.Memory
}

func (f failingKV) Put(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestTrailKeepsMostRecentEntries(t *testing.T) {
	trail := New(storage.NewMemory(), lgr.NoOp)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		trail.Add(ctx, fmt.Sprintf("task-%d", i), "title", model.ActionUpdate, nil, nil)
	}

	entries := trail.All()
	require.Len(t, entries, DefaultCapacity)
	assert.Equal(t, "task-50", entries[0].TaskID)
	assert.Equal(t, "task-149", entries[len(entries)-1].TaskID)
}

func TestTrailPersistsAndLoads(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	trail := New(kv, lgr.NoOp)

	previous := model.Task{ID: "a", Title: "Old", Tags: []string{"work"}}
	trail.Add(ctx, "a", "Old", model.ActionCreate, nil, nil)
	trail.Add(ctx, "a", "New", model.ActionUpdate, map[string]model.Change{"title": {From: "Old", To: "New"}}, &previous)
	trail.Add(ctx, "b", "Other", model.ActionDelete, nil, nil)

	reloaded := New(kv, lgr.NoOp)
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, 3, reloaded.Len())

	forA := reloaded.ForTask("a")
	require.Len(t, forA, 2)
	assert.Equal(t, model.ActionCreate, forA[0].Action)
	require.NotNil(t, forA[1].PreviousState)
	assert.Equal(t, "Old", forA[1].PreviousState.Title)
	assert.Equal(t, "New", forA[1].Changes["title"].To)
}

func TestTrailSwallowsPersistenceFailures(t *testing.T) {
	var logged []string
	logger := lgr.Func(func(format string, args ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, args...))
	})
	trail := New(failingKV{storage.NewMemory()}, logger)

	entry := trail.Add(context.Background(), "a", "Title", model.ActionComplete, nil, nil)

	assert.Equal(t, model.ActionComplete, entry.Action)
	assert.Equal(t, 1, trail.Len())
	require.Len(t, logged, 1)
	assert.True(t, strings.HasPrefix(logged[0], "[WARN]"))
	assert.Contains(t, logged[0], "quota exceeded")
}

func TestTrailExportAndClear(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	trail := New(kv, lgr.NoOp)

	empty, err := trail.Export()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(empty))

	trail.Add(ctx, "a", "A", model.ActionCreate, nil, nil)
	data, err := trail.Export()
	require.NoError(t, err)

	var decoded []model.HistoryEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)

	trail.Clear(ctx)
	assert.Equal(t, 0, trail.Len())
	_, err = kv.Get(ctx, storage.KeyHistory)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPreviousStateIsCopied(t *testing.T) {
	trail := New(storage.NewMemory(), lgr.NoOp)
	previous := model.Task{ID: "a", Tags: []string{"x"}}

	trail.Add(context.Background(), "a", "A", model.ActionUpdate, nil, &previous)
	previous.Tags[0] = "mutated"

	assert.Equal(t, "x", trail.All()[0].PreviousState.Tags[0])
}

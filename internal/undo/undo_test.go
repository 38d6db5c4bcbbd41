package undo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

func snapshot(titles ...string) model.Collection {
	tasks := make([]model.Task, 0, len(titles))
	for i, title := range titles {
		tasks = append(tasks, model.Task{ID: fmt.Sprintf("t%d", i), Title: title, Tags: []string{"x"}})
	}
	return model.NewCollection(tasks)
}

func TestUndoRedoInverse(t *testing.T) {
	log := New(DefaultCapacity)
	s0 := snapshot("a")
	s1 := snapshot("a", "b")
	log.Initialize(s0)
	log.Push(s1)

	restored, ok := log.Undo()
	require.True(t, ok)
	assert.True(t, restored.Equal(s0))

	redone, ok := log.Redo()
	require.True(t, ok)
	assert.True(t, redone.Equal(s1))
}

func TestUndoOnEmptyLogReportsNothing(t *testing.T) {
	log := New(DefaultCapacity)
	log.Initialize(snapshot("a"))

	_, ok := log.Undo()
	assert.False(t, ok)
	_, ok = log.Redo()
	assert.False(t, ok)
	assert.True(t, log.Present().Equal(snapshot("a")))
}

func TestPushClearsFuture(t *testing.T) {
	log := New(DefaultCapacity)
	log.Initialize(snapshot())
	log.Push(snapshot("a"))
	log.Push(snapshot("a", "b"))

	_, ok := log.Undo()
	require.True(t, ok)
	require.True(t, log.CanRedo())

	log.Push(snapshot("c"))
	assert.False(t, log.CanRedo())
	_, ok = log.Redo()
	assert.False(t, ok)
}

func TestCapacityBoundsUndoDepth(t *testing.T) {
	log := New(DefaultCapacity)
	log.Initialize(snapshot())
	for i := 0; i < 70; i++ {
		log.Push(snapshot(fmt.Sprintf("state-%d", i)))
	}

	undone := 0
	for {
		if _, ok := log.Undo(); !ok {
			break
		}
		undone++
	}
	assert.Equal(t, DefaultCapacity, undone)

	oldest := log.Present().Tasks()
	require.Len(t, oldest, 1)
	assert.Equal(t, "state-19", oldest[0].Title)
}

func TestSnapshotsDoNotAliasCallerState(t *testing.T) {
	log := New(DefaultCapacity)
	initial := snapshot("a")
	log.Initialize(initial)

	pushed := snapshot("b")
	log.Push(pushed)

	present := log.Present()
	task, _ := present.Get("t0")
	task.Tags[0] = "mutated"
	_ = present.With(task)

	again := log.Present()
	got, _ := again.Get("t0")
	assert.Equal(t, "x", got.Tags[0])

	restored, ok := log.Undo()
	require.True(t, ok)
	assert.True(t, restored.Equal(initial))
}

func TestDepth(t *testing.T) {
	log := New(2)
	log.Initialize(snapshot())
	log.Push(snapshot("a"))
	log.Push(snapshot("b"))
	log.Push(snapshot("c"))

	past, future := log.Depth()
	assert.Equal(t, 2, past)
	assert.Equal(t, 0, future)

	log.Undo()
	past, future = log.Depth()
	assert.Equal(t, 1, past)
	assert.Equal(t, 1, future)
}

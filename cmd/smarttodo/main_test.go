package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/smarttodo/internal/history"
	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/storage"
	"github.com/Joseda-hg/smarttodo/internal/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args,
		"--config", filepath.Join(dir, "config.json"),
		"--db", filepath.Join(dir, "tasks.db"),
	))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newTestRepo(t *testing.T) *store.Repository {
	t.Helper()
	kv := storage.NewMemory()
	ids := []string{"abc12345-0001", "abc12345-0002", "def99999-0001"}
	next := 0
	repo := store.New(kv, history.New(kv, lgr.NoOp), store.WithIDGenerator(func() string {
		id := ids[next%len(ids)]
		next++
		return id
	}))
	require.NoError(t, repo.Load(context.Background()))
	return repo
}

func TestAddAndList(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "add", "urgent", "finish", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "finish report")
	assert.Contains(t, out, "urgent")

	_, err = runCLI(t, dir, "add", "--raw", "low priority stays literal")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "finish report")
	assert.Contains(t, lines[1], "low priority stays literal")

	_, err = os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err, "config file is written on first run")
}

func TestDoneAndRemoveByPrefix(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "add", "--raw", "water plants")
	require.NoError(t, err)

	a, err := openApp(context.Background(), &options{
		configPath: filepath.Join(dir, "config.json"),
		dbPath:     filepath.Join(dir, "tasks.db"),
	}, false)
	require.NoError(t, err)
	tasks := a.repo.Tasks()
	a.Close()
	require.Len(t, tasks, 1)
	prefix := shortID(tasks[0].ID)

	out, err := runCLI(t, dir, "done", prefix)
	require.NoError(t, err)
	assert.Contains(t, out, "[x]")

	out, err = runCLI(t, dir, "list")
	require.NoError(t, err)
	assert.Equal(t, "no tasks\n", out)

	out, err = runCLI(t, dir, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "water plants")

	out, err = runCLI(t, dir, "rm", prefix)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = runCLI(t, dir, "rm", prefix)
	assert.ErrorIs(t, err, errNoTask)
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "add", "--raw", "first")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "add", "--raw", "second")
	require.NoError(t, err)

	file := filepath.Join(dir, "tasks.csv")
	_, err = runCLI(t, dir, "export", "-o", file)
	require.NoError(t, err)

	other := t.TempDir()
	out, err := runCLI(t, other, "import", file)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 tasks\n", out)

	out, err = runCLI(t, other, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")

	_, err = runCLI(t, dir, "export", "--format", "xml")
	assert.Error(t, err)
}

func TestBackupCreateAndRestore(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "add", "--raw", "keep me")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "backup", "create", "nightly")
	require.NoError(t, err)
	require.Contains(t, out, `"nightly"`)
	id := strings.Fields(out)[2]

	out, err = runCLI(t, dir, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, err = runCLI(t, dir, "add", "--raw", "added later")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "backup", "restore", id)
	require.NoError(t, err)
	assert.Equal(t, "restored 1 tasks\n", out)

	out, err = runCLI(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "keep me")
	assert.NotContains(t, out, "added later")
}

func TestTemplatesImportAndUse(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`templates:
  - name: Morning
    tasks:
      - title: Clear inbox
        priority: high
      - title: Stretch
`), 0o600))

	out, err := runCLI(t, dir, "templates", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"Morning" (2 tasks)`)

	out, err = runCLI(t, dir, "templates", "use", "morning")
	require.NoError(t, err)
	assert.Contains(t, out, "Clear inbox")
	assert.Contains(t, out, "Stretch")

	_, err = runCLI(t, dir, "templates", "use", "missing")
	assert.Error(t, err)
}

func TestResolveTask(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	repo.CreateTask(ctx, model.TaskDraft{Title: "one"})
	repo.CreateTask(ctx, model.TaskDraft{Title: "two"})
	repo.CreateTask(ctx, model.TaskDraft{Title: "three"})

	tests := []struct {
		ref   string
		title string
		err   error
	}{
		{ref: "abc12345-0002", title: "two"},
		{ref: "def", title: "three"},
		{ref: "abc", err: errAmbiguousTask},
		{ref: "zzz", err: errNoTask},
		{ref: " ", err: errNoTask},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("ref %q", tt.ref), func(t *testing.T) {
			task, err := resolveTask(repo, tt.ref)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, task.Title)
		})
	}
}

func TestListFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	soon := now.Add(48 * time.Hour)

	repo.CreateTask(ctx, model.TaskDraft{Title: "late", Priority: model.PriorityLow, DueDate: &yesterday, Tags: []string{"work"}})
	repo.CreateTask(ctx, model.TaskDraft{Title: "soon", Priority: model.PriorityUrgent, DueDate: &soon, Category: "home"})
	done := repo.CreateTask(ctx, model.TaskDraft{Title: "finished", Tags: []string{"work"}})
	_, ok := repo.SetTaskStatus(ctx, done.ID, model.StatusCompleted)
	require.True(t, ok)

	titles := func(f listFilter) []string {
		tasks, err := f.apply(repo, now)
		require.NoError(t, err)
		out := make([]string, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.Title)
		}
		return out
	}

	assert.Equal(t, []string{"soon", "late"}, titles(listFilter{}))
	assert.Equal(t, []string{"soon", "late", "finished"}, titles(listFilter{all: true}))
	assert.Equal(t, []string{"late"}, titles(listFilter{overdue: true}))
	assert.Equal(t, []string{"soon"}, titles(listFilter{upcoming: 7}))
	assert.Equal(t, []string{"late", "finished"}, titles(listFilter{tag: "work", all: true}))
	assert.Equal(t, []string{"soon"}, titles(listFilter{category: "home"}))
	assert.Equal(t, []string{"finished"}, titles(listFilter{status: "completed"}))

	_, err := listFilter{status: "bogus"}.apply(repo, now)
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, "csv", formatFor("CSV", "out.json"))
	assert.Equal(t, "ics", formatFor("", "calendar.ics"))
	assert.Equal(t, "json", formatFor("", ""))
	assert.Equal(t, "json", formatFor("", "-"))
}

func TestPrintPlan(t *testing.T) {
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time {
		v := day.Add(time.Duration(h) * time.Hour)
		return &v
	}
	sixty := 60
	tasks := []model.Task{
		{ID: "a", Title: "standup", Priority: model.PriorityHigh, Status: model.StatusPending, DueDate: at(10), EstimatedTime: &sixty},
		{ID: "b", Title: "review", Priority: model.PriorityLow, Status: model.StatusPending, DueDate: at(10), EstimatedTime: &sixty},
	}

	var buf bytes.Buffer
	printPlan(&buf, tasks, day)
	out := buf.String()
	assert.Contains(t, out, "Plan for Sat Oct 17 2026")
	assert.Contains(t, out, "09:00-10:00  high   standup")
	assert.Contains(t, out, "Workload: 120 min")
	assert.Contains(t, out, "standup overlaps review by 1h0m0s")
}

package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/storage"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func sampleTasks() []model.Task {
	due := time.Date(2026, 10, 20, 14, 30, 0, 0, time.UTC)
	completedAt := now
	return []model.Task{
		{
			ID:            "t1",
			Title:         `Write "quarterly" report, final`,
			Description:   "numbers; charts\nand summary",
			Status:        model.StatusPending,
			Priority:      model.PriorityUrgent,
			DueDate:       &due,
			CreatedAt:     now,
			UpdatedAt:     now,
			Tags:          []string{"work", "reports"},
			Category:      "Work",
			Subtasks:      []model.SubTask{},
			EstimatedTime: model.IntPtr(90),
		},
		{
			ID:          "t2",
			Title:       "Stretch",
			Status:      model.StatusCompleted,
			Priority:    model.PriorityLow,
			CreatedAt:   now,
			UpdatedAt:   now,
			CompletedAt: &completedAt,
			Tags:        []string{},
			Subtasks:    []model.SubTask{},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tasks := sampleTasks()
	categories := []model.Category{{ID: "c1", Name: "Work", Color: "#00f"}}

	var first bytes.Buffer
	require.NoError(t, ExportJSON(&first, tasks, categories, now))
	assert.Contains(t, first.String(), `"version": "1.0"`)
	assert.Contains(t, first.String(), `"exportDate": "2026-10-17T12:00:00Z"`)

	doc, err := ImportJSON(bytes.NewReader(first.Bytes()), now)
	require.NoError(t, err)
	assert.Equal(t, tasks, doc.Tasks)
	assert.Equal(t, categories, doc.Categories)

	var second bytes.Buffer
	require.NoError(t, ExportJSON(&second, doc.Tasks, doc.Categories, doc.ExportDate))
	assert.Equal(t, first.String(), second.String())
}

func TestImportJSONRejectsMalformedDocuments(t *testing.T) {
	cases := []string{
		`not json`,
		`{}`,
		`{"tasks": null}`,
		`{"tasks": {"id": "a"}}`,
		`{"tasks": [1, 2]}`,
		`{"tasks": [{"title": 42}]}`,
	}
	for _, input := range cases {
		_, err := ImportJSON(strings.NewReader(input), now)
		assert.ErrorIs(t, err, ErrInvalidImport, input)
	}
}

func TestImportJSONNormalizesTasks(t *testing.T) {
	doc, err := ImportJSON(strings.NewReader(`{"tasks": [{"title": "bare", "status": "completed"}]}`), now)
	require.NoError(t, err)
	require.Len(t, doc.Tasks, 1)

	task := doc.Tasks[0]
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, now, task.CreatedAt)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, []string{}, task.Tags)
	assert.Empty(t, doc.Categories)
}

func TestCSVRoundTripPreservesCoreFields(t *testing.T) {
	tasks := sampleTasks()

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, tasks))
	lines := strings.SplitN(buf.String(), "\n", 2)
	assert.Equal(t, "ID,Title,Description,Status,Priority,Due Date,Tags,Category,Completed", lines[0])
	assert.Contains(t, buf.String(), `"Write ""quarterly"" report, final"`)
	assert.Contains(t, buf.String(), `"work, reports"`)

	imported, err := ImportCSV(bytes.NewReader(buf.Bytes()), now)
	require.NoError(t, err)
	require.Len(t, imported, len(tasks))
	for i := range tasks {
		assert.Equal(t, tasks[i].ID, imported[i].ID)
		assert.Equal(t, tasks[i].Title, imported[i].Title)
		assert.Equal(t, tasks[i].Status, imported[i].Status)
		assert.Equal(t, tasks[i].Priority, imported[i].Priority)
		assert.Equal(t, tasks[i].Tags, imported[i].Tags)
	}
	require.NotNil(t, imported[0].DueDate)
	assert.True(t, tasks[0].DueDate.Equal(*imported[0].DueDate))
	assert.Equal(t, tasks[0].Description, imported[0].Description)
}

func TestCSVQuotesIDs(t *testing.T) {
	tasks := []model.Task{{ID: `imported,"7"`, Title: "Plain", Status: model.StatusPending, Priority: model.PriorityMedium}}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, tasks))
	assert.Contains(t, buf.String(), "\n\"imported,\"\"7\"\"\",\"Plain\",")

	imported, err := ImportCSV(bytes.NewReader(buf.Bytes()), now)
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, tasks[0].ID, imported[0].ID)
	assert.Equal(t, "Plain", imported[0].Title)
}

func TestImportCSVIsTolerant(t *testing.T) {
	input := strings.Join([]string{
		"ID,Title,Description,Status,Priority,Due Date,Tags,Category,Completed",
		"short,row",
		`a,"Call mom",""`,
		`b,"Done thing","",,,,"x, y",,Yes`,
		`c,"Bad date","",pending,high,not-a-date,,,No`,
	}, "\n")

	tasks, err := ImportCSV(strings.NewReader(input), now)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, model.StatusPending, tasks[0].Status)
	assert.Equal(t, model.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, []string{}, tasks[0].Tags)

	assert.Equal(t, model.StatusCompleted, tasks[1].Status)
	assert.NotNil(t, tasks[1].CompletedAt)
	assert.Equal(t, []string{"x", "y"}, tasks[1].Tags)

	assert.Equal(t, model.PriorityHigh, tasks[2].Priority)
	assert.Nil(t, tasks[2].DueDate)
}

func TestExportICS(t *testing.T) {
	tasks := sampleTasks()
	var buf bytes.Buffer
	require.NoError(t, ExportICS(&buf, tasks, now))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART:20261020T143000Z\r\n")
	assert.Contains(t, out, "DTEND:20261020T160000Z\r\n")
	assert.Contains(t, out, `SUMMARY:Write "quarterly" report\, final`)
	assert.Contains(t, out, `DESCRIPTION:numbers\; charts\nand summary`)
	assert.Contains(t, out, "PRIORITY:1\r\n")
	assert.Contains(t, out, "STATUS:TODO\r\n")
	assert.Contains(t, out, "CATEGORIES:work,reports\r\n")
}

func TestICSDefaultsAndMappings(t *testing.T) {
	due := now
	task := model.Task{ID: "x", Title: `a\b`, Status: model.StatusInProgress, Priority: model.PriorityHigh, DueDate: &due}

	var buf bytes.Buffer
	require.NoError(t, ExportICS(&buf, []model.Task{task}, now))
	out := buf.String()
	assert.Contains(t, out, "DTEND:20261017T130000Z")
	assert.Contains(t, out, `SUMMARY:a\\b`)
	assert.Contains(t, out, "PRIORITY:3")
	assert.Contains(t, out, "STATUS:IN-PROCESS")
}

func TestICSFoldsLongLines(t *testing.T) {
	due := now
	title := strings.Repeat("é", 60) + strings.Repeat("x", 100)
	task := model.Task{ID: "long", Title: title, DueDate: &due}

	var buf bytes.Buffer
	require.NoError(t, ExportICS(&buf, []model.Task{task}, now))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	var summary strings.Builder
	inSummary := false
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 75, "line %q", l)
		assert.True(t, utf8.ValidString(l), "line %q splits a rune", l)
		switch {
		case strings.HasPrefix(l, "SUMMARY:"):
			inSummary = true
			summary.WriteString(l)
		case inSummary && strings.HasPrefix(l, " "):
			summary.WriteString(l[1:])
		default:
			inSummary = false
		}
	}
	assert.Equal(t, "SUMMARY:"+title, summary.String())
}

func TestFoldICSKeepsShortLines(t *testing.T) {
	assert.Equal(t, "STATUS:TODO", foldICS("STATUS:TODO"))
	exact := strings.Repeat("a", 75)
	assert.Equal(t, exact, foldICS(exact))
	assert.Equal(t, exact+"\r\n b", foldICS(exact+"b"))
}

func newTestManager(kv storage.KV) *Manager {
	clock := now
	seq := 0
	return NewManager(kv, lgr.NoOp,
		WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("b%d", seq)
		}),
	)
}

func TestManagerKeepsTenNewest(t *testing.T) {
	kv := storage.NewMemory()
	m := newTestManager(kv)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := m.Create(ctx, fmt.Sprintf("backup %d", i), sampleTasks(), nil)
		require.NoError(t, err)
	}

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, MaxBackups)
	assert.Equal(t, "b12", list[0].ID)
	assert.Equal(t, "b3", list[len(list)-1].ID)
	assert.Equal(t, 2, list[0].TaskCount)
	assert.Positive(t, list[0].Size)

	_, err = m.Get(ctx, "b1")
	assert.ErrorIs(t, err, ErrBackupNotFound)

	keys, err := kv.Keys(ctx, storage.BackupKeyPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, MaxBackups)
}

func TestManagerGetAndDelete(t *testing.T) {
	m := newTestManager(storage.NewMemory())
	ctx := context.Background()

	meta, err := m.Create(ctx, "", sampleTasks(), []model.Category{{ID: "c", Name: "Home"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(meta.Name, "Backup "))

	doc, err := m.Get(ctx, meta.ID)
	require.NoError(t, err)
	assert.Len(t, doc.Tasks, 2)
	assert.Len(t, doc.Categories, 1)
	assert.Equal(t, FormatVersion, doc.Version)

	require.NoError(t, m.Delete(ctx, meta.ID))
	assert.ErrorIs(t, m.Delete(ctx, meta.ID), ErrBackupNotFound)

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type brokenKV struct {
	*storage.Memory
}

func (b brokenKV) Put(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestManagerReportsStorageFailure(t *testing.T) {
	m := newTestManager(brokenKV{storage.NewMemory()})
	_, err := m.Create(context.Background(), "x", sampleTasks(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

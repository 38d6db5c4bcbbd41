package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/smarttodo/internal/backup"
	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/notify"
	"github.com/Joseda-hg/smarttodo/internal/storage"
	"github.com/Joseda-hg/smarttodo/internal/store"
)

var base = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Recipient() string { return "owner@example.com" }

func (f *fakeMailer) record(kind string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, kind)
	return nil
}

func (f *fakeMailer) Send(_ context.Context, _, subject, _ string) error {
	return f.record("send:" + subject)
}

func (f *fakeMailer) SendTaskReminder(_ context.Context, _ string, task model.Task) error {
	return f.record("reminder:" + task.ID)
}

func (f *fakeMailer) SendTaskCompleted(_ context.Context, _ string, task model.Task) error {
	return f.record("completed:" + task.ID)
}

func (f *fakeMailer) SendDailySummary(_ context.Context, _ string, _ []model.Task, day time.Time) error {
	return f.record("summary:" + day.Format("2006-01-02"))
}

type testEnv struct {
	repo   *store.Repository
	center *notify.Center
	server *httptest.Server
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	now := func() time.Time { return base }
	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	kv := storage.NewMemory()
	repo := store.New(kv, nil, store.WithClock(now), store.WithIDGenerator(newID))
	require.NoError(t, repo.Load(context.Background()))
	center := notify.NewCenter(notify.WithClock(now))

	all := append([]Option{
		WithClock(now),
		WithNotifications(center),
		WithBackups(backup.NewManager(kv, nil, backup.WithClock(now))),
	}, opts...)
	srv := httptest.NewServer(NewServer(repo, all...).Handler())
	t.Cleanup(srv.Close)
	return &testEnv{repo: repo, center: center, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthAndStatus(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Smart Todo API is running", decode[map[string]string](t, resp)["message"])

	resp = env.do(t, http.MethodGet, "/api/status", "")
	status := decode[map[string]any](t, resp)
	assert.Equal(t, float64(0), status["tasks"])
	assert.Equal(t, false, status["emailConfigured"])
}

func TestTaskCRUD(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/tasks", `{"title":"Write report","priority":"high","tags":["work"]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Task](t, resp)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, model.PriorityHigh, created.Priority)

	resp = env.do(t, http.MethodGet, "/api/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[struct {
		Task    model.Task           `json:"task"`
		History []model.HistoryEntry `json:"history"`
	}](t, resp)
	assert.Equal(t, "Write report", got.Task.Title)
	require.Len(t, got.History, 1)
	assert.Equal(t, model.ActionCreate, got.History[0].Action)

	resp = env.do(t, http.MethodPut, "/api/tasks/"+created.ID, `{"title":"Write final report"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Write final report", decode[model.Task](t, resp).Title)

	resp = env.do(t, http.MethodPut, "/api/tasks/"+created.ID, `{"priority":"asap"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/tasks?tag=work", "")
	assert.Len(t, decode[[]model.Task](t, resp), 1)
	resp = env.do(t, http.MethodGet, "/api/tasks?status=completed", "")
	assert.Empty(t, decode[[]model.Task](t, resp))

	resp = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/tasks/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTasksDueFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	late := base.Add(-time.Hour)
	soon := base.Add(48 * time.Hour)
	later := base.Add(10 * 24 * time.Hour)

	env.repo.CreateTask(ctx, model.TaskDraft{Title: "late report", DueDate: &late})
	env.repo.CreateTask(ctx, model.TaskDraft{Title: "soon call", DueDate: &soon})
	env.repo.CreateTask(ctx, model.TaskDraft{Title: "later trip", DueDate: &later})
	done := env.repo.CreateTask(ctx, model.TaskDraft{Title: "late but done", DueDate: &late})
	_, ok := env.repo.SetTaskStatus(ctx, done.ID, model.StatusCompleted)
	require.True(t, ok)

	titles := func(path string) []string {
		resp := env.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		out := []string{}
		for _, task := range decode[[]model.Task](t, resp) {
			out = append(out, task.Title)
		}
		return out
	}

	assert.Equal(t, []string{"late report"}, titles("/api/tasks?overdue=true"))
	assert.Equal(t, []string{"soon call"}, titles("/api/tasks?upcoming=7"))
	assert.Equal(t, []string{"soon call", "later trip"}, titles("/api/tasks?upcoming=10"))
	assert.Equal(t, []string{"later trip"}, titles("/api/tasks?upcoming=10&q=trip"))
	assert.Empty(t, titles("/api/tasks?overdue=true&upcoming=7"))
	assert.Len(t, titles("/api/tasks?upcoming=bogus"), 4)
}

func TestCreateTaskRejectsBadJSON(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, env.repo.Tasks())
}

func TestToggleAnnouncesCompletion(t *testing.T) {
	env := newTestEnv(t)
	task := env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Ship"})

	resp := env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decode[model.Task](t, resp)
	assert.Equal(t, model.StatusCompleted, toggled.Status)
	require.NotNil(t, toggled.CompletedAt)

	resp = env.do(t, http.MethodGet, "/api/notifications?unread=true", "")
	notes := decode[[]model.Notification](t, resp)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationCompletion, notes[0].Type)

	resp = env.do(t, http.MethodPost, "/api/notifications/"+notes[0].ID+"/read", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, env.center.Unread())

	resp = env.do(t, http.MethodPost, "/api/notifications/missing/read", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubtaskEndpoints(t *testing.T) {
	env := newTestEnv(t)
	task := env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Move"})

	resp := env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/subtasks", `{"title":"Pack"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	withSub := decode[model.Task](t, resp)
	require.Len(t, withSub.Subtasks, 1)
	subID := withSub.Subtasks[0].ID

	resp = env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/subtasks/"+subID+"/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[model.Task](t, resp).Subtasks[0].Completed)

	resp = env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/subtasks/nope/toggle", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/tasks/"+task.ID+"/subtasks/"+subID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[model.Task](t, resp).Subtasks)
}

func TestParseEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/tasks/parse", `{"input":"study for exam tomorrow urgent"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	parsed := decode[parseResponse](t, resp)
	assert.Equal(t, model.PriorityUrgent, parsed.Parsed.Priority)
	assert.Nil(t, parsed.Task)
	assert.Empty(t, env.repo.Tasks())

	resp = env.do(t, http.MethodPost, "/api/tasks/parse", `{"input":"call mom today","create":true}`)
	parsed = decode[parseResponse](t, resp)
	require.NotNil(t, parsed.Task)
	assert.Len(t, env.repo.Tasks(), 1)

	resp = env.do(t, http.MethodPost, "/api/tasks/parse", `{"input":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSmartEndpoints(t *testing.T) {
	env := newTestEnv(t)
	due := base.Add(2 * time.Hour)
	task := env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Prep", DueDate: &due, Tags: []string{"work"}})

	resp := env.do(t, http.MethodPost, "/api/tasks/breakdown", `{"title":"Team presentation"}`)
	breakdown := decode[map[string]any](t, resp)
	assert.Len(t, breakdown["subtasks"], 5)

	resp = env.do(t, http.MethodPost, "/api/tasks/deadline-suggestions", `{"priority":"urgent"}`)
	deadlines := decode[map[string][]map[string]any](t, resp)
	assert.Len(t, deadlines["suggestions"], 2)

	resp = env.do(t, http.MethodGet, "/api/tasks/"+task.ID+"/schedule-suggestions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sched := decode[map[string]any](t, resp)
	assert.NotEmpty(t, sched["suggestions"])

	resp = env.do(t, http.MethodGet, "/api/tasks/stats", "")
	stats := decode[map[string]any](t, resp)
	assert.Equal(t, float64(1), stats["total"])

	resp = env.do(t, http.MethodGet, "/api/insights", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/analytics/workload?start=2026-10-12", "")
	workload := decode[map[string][]map[string]any](t, resp)
	assert.Len(t, workload["workload"], 7)

	resp = env.do(t, http.MethodGet, "/api/analytics/workload?start=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/analytics/patterns", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCalendarEndpoints(t *testing.T) {
	env := newTestEnv(t)
	due := time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)
	env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Dentist", DueDate: &due})

	resp := env.do(t, http.MethodGet, "/api/calendar/time-blocks?date=2026-10-20", "")
	blocks := decode[timeBlocksResponse](t, resp)
	require.Len(t, blocks.Blocks, 1)
	assert.Equal(t, 30, blocks.Workload)

	resp = env.do(t, http.MethodGet, "/api/calendar/week?date=2026-10-20", "")
	week := decode[[]calendarDay](t, resp)
	require.Len(t, week, 7)
	// Weeks start on Monday by default.
	assert.Equal(t, time.Monday, week[0].Date.Weekday())
	assert.Len(t, week[1].Tasks, 1)

	resp = env.do(t, http.MethodGet, "/api/calendar/month?month=2026-02", "")
	assert.Len(t, decode[[]calendarDay](t, resp), 28)

	resp = env.do(t, http.MethodGet, "/api/calendar/month?month=feb", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUndoRedoEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "One"})

	resp := env.do(t, http.MethodPost, "/api/undo", "")
	state := decode[undoState](t, resp)
	assert.True(t, state.Applied)
	assert.True(t, state.CanRedo)
	assert.Empty(t, env.repo.Tasks())

	resp = env.do(t, http.MethodPost, "/api/redo", "")
	assert.True(t, decode[undoState](t, resp).Applied)
	assert.Len(t, env.repo.Tasks(), 1)

	resp = env.do(t, http.MethodPost, "/api/redo", "")
	assert.False(t, decode[undoState](t, resp).Applied)
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	task := env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Audit"})

	resp := env.do(t, http.MethodGet, "/api/history?download=true", "")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "task-history-2026-10-17.json")
	assert.Len(t, decode[[]model.HistoryEntry](t, resp), 1)

	resp = env.do(t, http.MethodGet, "/api/history/"+task.ID, "")
	assert.Len(t, decode[[]model.HistoryEntry](t, resp), 1)

	resp = env.do(t, http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, env.repo.History().Len())
}

func TestExportFormats(t *testing.T) {
	env := newTestEnv(t)
	due := base.Add(time.Hour)
	env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Export me", DueDate: &due})

	resp := env.do(t, http.MethodGet, "/api/export?format=csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "tasks-2026-10-17.csv")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "ID,Title,Description,Status"))

	resp = env.do(t, http.MethodGet, "/api/export?format=ics", "")
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "SUMMARY:Export me")

	resp = env.do(t, http.MethodGet, "/api/export", "")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "smart-todo-backup-2026-10-17.json")

	resp = env.do(t, http.MethodGet, "/api/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportJSONReplacesAndIsUndoable(t *testing.T) {
	env := newTestEnv(t)
	env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Old"})

	doc := `{"tasks":[{"id":"a","title":"Imported A"},{"id":"b","title":"Imported B"}],"categories":[]}`
	resp := env.do(t, http.MethodPost, "/api/import", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[map[string]int](t, resp)["imported"])
	assert.Len(t, env.repo.Tasks(), 2)

	require.True(t, env.repo.Undo(context.Background()))
	tasks := env.repo.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Old", tasks[0].Title)

	resp = env.do(t, http.MethodPost, "/api/import", `{"tasks":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, env.repo.Tasks(), 1)
}

func TestImportCSVAppends(t *testing.T) {
	env := newTestEnv(t)
	env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Existing"})

	csv := "ID,Title,Description,Status,Priority,Due Date,Tags,Category,Completed\n" +
		`"x1","From CSV","","pending","low","","","","No"` + "\n"
	resp := env.do(t, http.MethodPost, "/api/import?format=csv", csv)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, env.repo.Tasks(), 2)
}

func TestBackupEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Keep me"})

	resp := env.do(t, http.MethodPost, "/api/backups", `{"name":"before cleanup"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	meta := decode[model.BackupMeta](t, resp)
	assert.Equal(t, "before cleanup", meta.Name)
	assert.Equal(t, 1, meta.TaskCount)

	resp = env.do(t, http.MethodPost, "/api/backups", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/backups", "")
	assert.Len(t, decode[[]model.BackupMeta](t, resp), 2)

	for _, task := range env.repo.Tasks() {
		env.repo.DeleteTask(context.Background(), task.ID)
	}
	resp = env.do(t, http.MethodPost, "/api/backups/"+meta.ID+"/restore", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, env.repo.Tasks(), 1)
	assert.Equal(t, "Keep me", env.repo.Tasks()[0].Title)

	resp = env.do(t, http.MethodDelete, "/api/backups/"+meta.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/backups/"+meta.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEmailEndpoints(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/email/send", `{"subject":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/email/status", "")
	assert.Equal(t, false, decode[map[string]any](t, resp)["configured"])

	mailer := &fakeMailer{}
	env = newTestEnv(t, WithMailer(mailer))
	task := env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Mail me"})

	resp = env.do(t, http.MethodGet, "/api/email/status", "")
	assert.Equal(t, "owner@example.com", decode[map[string]any](t, resp)["recipient"])

	resp = env.do(t, http.MethodPost, "/api/email/send", `{"subject":"hi","body":"<p>x</p>"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/email/task-reminder", `{"taskId":"`+task.ID+`"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/email/task-completed", `{"taskId":"`+task.ID+`"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/email/daily-summary", `{"date":"2026-10-16"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"send:hi", "reminder:" + task.ID, "completed:" + task.ID, "summary:2026-10-16"}, mailer.sent)

	resp = env.do(t, http.MethodPost, "/api/email/task-reminder", `{"taskId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	mailer.err = errors.New("relay down")
	resp = env.do(t, http.MethodPost, "/api/email/send", `{"subject":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCategoryTemplateAndPreferenceEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/categories", `{"name":"Work","color":"#00f"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cat := decode[model.Category](t, resp)
	task := env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Filed", Category: cat.ID})

	resp = env.do(t, http.MethodPost, "/api/categories", `{"name":" "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/categories/"+cat.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	got, _ := env.repo.Task(task.ID)
	assert.Empty(t, got.Category)

	resp = env.do(t, http.MethodPost, "/api/templates", `{"name":"Morning","tasks":[{"title":"Stretch"},{"title":"Plan"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tmpl := decode[model.TaskTemplate](t, resp)

	resp = env.do(t, http.MethodPost, "/api/templates/"+tmpl.ID+"/instantiate", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decode[[]model.Task](t, resp), 2)

	resp = env.do(t, http.MethodPost, "/api/templates/missing/instantiate", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/preferences", `{"defaultPriority":"high"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prefs := decode[model.UserPreferences](t, resp)
	assert.Equal(t, model.PriorityHigh, prefs.DefaultPriority)
	assert.Equal(t, "09:00", prefs.WorkingHours.Start)

	resp = env.do(t, http.MethodPut, "/api/preferences", `{"defaultPriority":"whenever"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemindersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	due := base.Add(3 * time.Hour)
	env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Soon", Priority: model.PriorityHigh, DueDate: &due})

	resp := env.do(t, http.MethodGet, "/api/reminders", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[[]model.Reminder](t, resp))
}

func TestHTMLPages(t *testing.T) {
	env := newTestEnv(t)
	task := env.repo.CreateTask(context.Background(), model.TaskDraft{Title: "Render <me>"})

	resp := env.do(t, http.MethodGet, "/ui", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Render &lt;me&gt;")
	assert.Contains(t, string(body), "Tasks (1)")

	resp = env.do(t, http.MethodGet, "/ui/tasks/"+task.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "create")

	resp = env.do(t, http.MethodGet, "/ui/tasks/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

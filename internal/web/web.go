package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/Joseda-hg/smarttodo/internal/backup"
	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/notify"
	"github.com/Joseda-hg/smarttodo/internal/store"
	"github.com/Joseda-hg/smarttodo/internal/version"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))
	taskTemplate  = template.Must(template.ParseFS(templateFS, "templates/task.tmpl"))
)

// maxBodyBytes caps request bodies, imports included.
const maxBodyBytes = 10 << 20

// Mailer is the e-mail surface the API exposes.
type Mailer interface {
	Recipient() string
	Send(ctx context.Context, to, subject, html string) error
	SendTaskReminder(ctx context.Context, to string, task model.Task) error
	SendTaskCompleted(ctx context.Context, to string, task model.Task) error
	SendDailySummary(ctx context.Context, to string, tasks []model.Task, day time.Time) error
}

type Server struct {
	repo    *store.Repository
	backups *backup.Manager
	center  *notify.Center
	mailer  Mailer
	now     func() time.Time
	log     lgr.L
}

type Option func(*Server)

func WithBackups(m *backup.Manager) Option {
	return func(s *Server) { s.backups = m }
}

func WithNotifications(c *notify.Center) Option {
	return func(s *Server) { s.center = c }
}

func WithMailer(m Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(logger lgr.L) Option {
	return func(s *Server) { s.log = logger }
}

// NewServer wires the HTTP API to repo. Completed tasks are announced in the
// notification center whichever front end completed them.
func NewServer(repo *store.Repository, opts ...Option) *Server {
	s := &Server{repo: repo, now: time.Now, log: lgr.NoOp}
	for _, opt := range opts {
		opt(s)
	}
	if s.center == nil {
		s.center = notify.NewCenter(notify.WithClock(s.now), notify.WithLogger(s.log))
	}
	repo.Subscribe(func(e store.Event) {
		if e.Action == model.ActionComplete {
			s.center.Completed(e.Task)
		}
	})
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.healthHandler)
	mux.HandleFunc("GET /api/status", s.statusHandler)
	mux.HandleFunc("GET /ui", s.indexHandler)
	mux.HandleFunc("GET /ui/tasks/{id}", s.taskHandler)

	mux.HandleFunc("GET /api/tasks", s.listTasksHandler)
	mux.HandleFunc("POST /api/tasks", s.createTaskHandler)
	mux.HandleFunc("GET /api/tasks/{id}", s.getTaskHandler)
	mux.HandleFunc("PUT /api/tasks/{id}", s.updateTaskHandler)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.deleteTaskHandler)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.toggleTaskHandler)
	mux.HandleFunc("POST /api/tasks/{id}/subtasks", s.addSubtaskHandler)
	mux.HandleFunc("POST /api/tasks/{id}/subtasks/{sid}/toggle", s.toggleSubtaskHandler)
	mux.HandleFunc("DELETE /api/tasks/{id}/subtasks/{sid}", s.deleteSubtaskHandler)

	mux.HandleFunc("POST /api/tasks/parse", s.parseHandler)
	mux.HandleFunc("POST /api/tasks/breakdown", s.breakdownHandler)
	mux.HandleFunc("POST /api/tasks/deadline-suggestions", s.deadlineHandler)
	mux.HandleFunc("GET /api/tasks/{id}/schedule-suggestions", s.scheduleSuggestionsHandler)
	mux.HandleFunc("GET /api/tasks/stats", s.statsHandler)
	mux.HandleFunc("GET /api/insights", s.insightsHandler)
	mux.HandleFunc("GET /api/analytics/workload", s.workloadHandler)
	mux.HandleFunc("GET /api/analytics/patterns", s.patternsHandler)

	mux.HandleFunc("GET /api/calendar/time-blocks", s.timeBlocksHandler)
	mux.HandleFunc("GET /api/calendar/week", s.weekHandler)
	mux.HandleFunc("GET /api/calendar/month", s.monthHandler)

	mux.HandleFunc("POST /api/undo", s.undoHandler)
	mux.HandleFunc("POST /api/redo", s.redoHandler)
	mux.HandleFunc("GET /api/history", s.historyHandler)
	mux.HandleFunc("GET /api/history/{taskId}", s.taskHistoryHandler)
	mux.HandleFunc("DELETE /api/history", s.clearHistoryHandler)

	mux.HandleFunc("GET /api/export", s.exportHandler)
	mux.HandleFunc("POST /api/import", s.importHandler)
	mux.HandleFunc("GET /api/backups", s.listBackupsHandler)
	mux.HandleFunc("POST /api/backups", s.createBackupHandler)
	mux.HandleFunc("GET /api/backups/{id}", s.getBackupHandler)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.restoreBackupHandler)
	mux.HandleFunc("DELETE /api/backups/{id}", s.deleteBackupHandler)

	mux.HandleFunc("GET /api/notifications", s.listNotificationsHandler)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.readNotificationHandler)
	mux.HandleFunc("POST /api/notifications/read-all", s.readAllNotificationsHandler)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.removeNotificationHandler)
	mux.HandleFunc("DELETE /api/notifications", s.clearNotificationsHandler)
	mux.HandleFunc("GET /api/reminders", s.remindersHandler)

	mux.HandleFunc("GET /api/email/status", s.emailStatusHandler)
	mux.HandleFunc("POST /api/email/send", s.emailSendHandler)
	mux.HandleFunc("POST /api/email/task-reminder", s.emailTaskReminderHandler)
	mux.HandleFunc("POST /api/email/task-completed", s.emailTaskCompletedHandler)
	mux.HandleFunc("POST /api/email/daily-summary", s.emailDailySummaryHandler)

	mux.HandleFunc("GET /api/categories", s.listCategoriesHandler)
	mux.HandleFunc("POST /api/categories", s.createCategoryHandler)
	mux.HandleFunc("PUT /api/categories/{id}", s.updateCategoryHandler)
	mux.HandleFunc("DELETE /api/categories/{id}", s.deleteCategoryHandler)
	mux.HandleFunc("GET /api/templates", s.listTemplatesHandler)
	mux.HandleFunc("POST /api/templates", s.createTemplateHandler)
	mux.HandleFunc("DELETE /api/templates/{id}", s.deleteTemplateHandler)
	mux.HandleFunc("POST /api/templates/{id}/instantiate", s.instantiateTemplateHandler)
	mux.HandleFunc("GET /api/preferences", s.getPreferencesHandler)
	mux.HandleFunc("PUT /api/preferences", s.putPreferencesHandler)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Logf("[DEBUG] web: %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(started).Round(time.Microsecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "Smart Todo API is running"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Version  version.Info `json:"version"`
		Tasks    int          `json:"tasks"`
		CanUndo  bool         `json:"canUndo"`
		CanRedo  bool         `json:"canRedo"`
		Unread   int          `json:"unreadNotifications"`
		EmailSet bool         `json:"emailConfigured"`
	}{
		Version:  version.Get(),
		Tasks:    len(s.repo.Tasks()),
		CanUndo:  s.repo.CanUndo(),
		CanRedo:  s.repo.CanRedo(),
		Unread:   len(s.center.Unread()),
		EmailSet: s.mailer != nil,
	})
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	tasks := s.filterTasks(r)

	data := struct {
		Total   int
		Overdue int
		Tasks   []model.Task
	}{Total: len(tasks), Overdue: len(s.repo.OverdueTasks(s.now())), Tasks: tasks}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) taskHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.repo.Task(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}

	data := struct {
		Task    model.Task
		History []model.HistoryEntry
	}{Task: task, History: s.repo.History().ForTask(task.ID)}

	if err := taskTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

var (
	errTaskNotFound = errors.New("task not found")
	errNotFound     = errors.New("not found")
	errEmptyBody    = errors.New("empty request body")
)

func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseDay reads a YYYY-MM-DD query value in the server's local zone.
func parseDay(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	return parseDate(key, r.URL.Query().Get(key), fallback)
}

func parseDate(name, value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, fallback.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONStatus(w, http.StatusOK, payload)
}

func writeJSONStatus(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSONStatus(w, status, map[string]string{"detail": err.Error()})
}

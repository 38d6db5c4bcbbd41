package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/assist"
	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/parser"
	"github.com/Joseda-hg/smarttodo/internal/schedule"
)

type parseRequest struct {
	Input  string `json:"input"`
	Create bool   `json:"create"`
}

type parseResponse struct {
	Parsed model.TaskDraft `json:"parsed"`
	Task   *model.Task     `json:"task,omitempty"`
}

func (s *Server) parseHandler(w http.ResponseWriter, r *http.Request) {
	var body parseRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Input) == "" {
		writeError(w, http.StatusBadRequest, errors.New("input is required"))
		return
	}

	resp := parseResponse{Parsed: parser.ParseExtended(body.Input, s.now())}
	if body.Create {
		task := s.repo.CreateTask(r.Context(), resp.Parsed)
		resp.Task = &task
	}
	writeJSON(w, resp)
}

func (s *Server) breakdownHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, assist.Breakdown(body.Title, body.Description))
}

func (s *Server) deadlineHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Priority      model.Priority `json:"priority"`
		EstimatedTime int            `json:"estimatedTime"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, map[string]any{
		"suggestions": assist.DeadlineSuggestions(body.Priority, body.EstimatedTime, s.now()),
	})
}

func (s *Server) scheduleSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.repo.Task(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}
	now := s.now()
	day := now
	if task.DueDate != nil {
		day = *task.DueDate
	}
	writeJSON(w, struct {
		Suggestions []assist.ScheduleSuggestion `json:"suggestions"`
		OptimalTime time.Time                   `json:"optimalTime"`
	}{
		Suggestions: assist.ScheduleSuggestions(task, now),
		OptimalTime: schedule.SuggestOptimalTime(task, s.repo.Tasks(), day),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, assist.ComputeStats(s.repo.Tasks(), s.now()))
}

func (s *Server) insightsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"insights": assist.Insights(s.repo.Tasks(), s.now())})
}

func (s *Server) patternsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, assist.ComputePatterns(s.repo.Tasks()))
}

// workloadHandler reports the week starting at ?start, or the current week
// per the WeekStartsOn preference.
func (s *Server) workloadHandler(w http.ResponseWriter, r *http.Request) {
	start, err := parseDay(r, "start", s.weekStart(s.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	week := schedule.WeeklyWorkload(s.repo.Tasks(), start)
	writeJSON(w, struct {
		Workload    []schedule.DayLoad    `json:"workload"`
		Suggestions []schedule.Suggestion `json:"suggestions"`
	}{Workload: week, Suggestions: schedule.Balance(week)})
}

func (s *Server) weekStart(now time.Time) time.Time {
	day := schedule.StartOfDay(now)
	startsOn := time.Weekday(s.repo.Preferences().WeekStartsOn % 7)
	offset := (int(day.Weekday()) - int(startsOn) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

type timeBlocksResponse struct {
	Date      time.Time            `json:"date"`
	Blocks    []schedule.TimeBlock `json:"blocks"`
	Conflicts []schedule.Conflict  `json:"conflicts"`
	Workload  int                  `json:"workload"`
}

func (s *Server) timeBlocksHandler(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r, "date", schedule.StartOfDay(s.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tasks := s.repo.Tasks()
	writeJSON(w, timeBlocksResponse{
		Date:      day,
		Blocks:    schedule.TimeBlocks(tasks, day),
		Conflicts: schedule.FindTimeConflicts(schedule.DueOn(tasks, day)),
		Workload:  schedule.Workload(tasks, day),
	})
}

type calendarDay struct {
	Date     time.Time    `json:"date"`
	Tasks    []model.Task `json:"tasks"`
	Workload int          `json:"workload"`
}

func (s *Server) calendarDays(start time.Time, days int) []calendarDay {
	tasks := s.repo.Tasks()
	out := make([]calendarDay, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		out = append(out, calendarDay{
			Date:     day,
			Tasks:    schedule.DueOn(tasks, day),
			Workload: schedule.Workload(tasks, day),
		})
	}
	return out
}

func (s *Server) weekHandler(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r, "date", s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, s.calendarDays(s.weekStart(day), 7))
}

func (s *Server) monthHandler(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if value := strings.TrimSpace(r.URL.Query().Get("month")); value != "" {
		parsed, err := time.ParseInLocation("2006-01", value, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid month, expected YYYY-MM"))
			return
		}
		first = parsed
	}
	days := first.AddDate(0, 1, -1).Day()
	writeJSON(w, s.calendarDays(first, days))
}

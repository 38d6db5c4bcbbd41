package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/store"
)

// filterTasks applies the list query: q, status, tag, category, overdue and
// upcoming (days ahead). Overdue and upcoming select from the repository's
// own queries; with both set nothing matches.
func (s *Server) filterTasks(r *http.Request) []model.Task {
	query := r.URL.Query()
	q := strings.ToLower(strings.TrimSpace(query.Get("q")))
	status := model.Status(strings.TrimSpace(query.Get("status")))
	tag := strings.TrimSpace(query.Get("tag"))
	category := strings.TrimSpace(query.Get("category"))
	overdue := query.Get("overdue") == "true"
	days, err := strconv.Atoi(query.Get("upcoming"))
	upcoming := err == nil && days >= 0

	now := s.now()
	var tasks []model.Task
	switch {
	case overdue && upcoming:
		return []model.Task{}
	case overdue:
		tasks = s.repo.OverdueTasks(now)
	case upcoming:
		tasks = s.repo.UpcomingTasks(now, days)
	default:
		tasks = s.repo.Tasks()
	}

	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if q != "" && !strings.Contains(strings.ToLower(task.Title+" "+task.Description), q) {
			continue
		}
		if status != "" && task.Status != status {
			continue
		}
		if tag != "" && !task.HasTag(tag) {
			continue
		}
		if category != "" && task.Category != category {
			continue
		}
		out = append(out, task)
	}
	return out
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.filterTasks(r))
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var draft model.TaskDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, s.repo.CreateTask(r.Context(), draft))
}

func (s *Server) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.repo.Task(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}

	payload := struct {
		Task    model.Task           `json:"task"`
		History []model.HistoryEntry `json:"history"`
	}{Task: task, History: s.repo.History().ForTask(task.ID)}

	writeJSON(w, payload)
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var patch store.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("invalid status"))
		return
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("invalid priority"))
		return
	}

	task, ok := s.repo.UpdateTask(r.Context(), r.PathValue("id"), patch)
	if !ok {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}
	writeJSON(w, task)
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !s.repo.DeleteTask(r.Context(), r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.repo.ToggleTaskStatus(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}
	writeJSON(w, task)
}

func (s *Server) addSubtaskHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	task, ok := s.repo.AddSubtask(r.Context(), r.PathValue("id"), body.Title)
	if !ok {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}
	writeJSONStatus(w, http.StatusCreated, task)
}

func (s *Server) toggleSubtaskHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.repo.ToggleSubtask(r.Context(), r.PathValue("id"), r.PathValue("sid"))
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, task)
}

func (s *Server) deleteSubtaskHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.repo.DeleteSubtask(r.Context(), r.PathValue("id"), r.PathValue("sid"))
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, task)
}

type undoState struct {
	Applied bool `json:"applied"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func (s *Server) undoHandler(w http.ResponseWriter, r *http.Request) {
	applied := s.repo.Undo(r.Context())
	writeJSON(w, undoState{Applied: applied, CanUndo: s.repo.CanUndo(), CanRedo: s.repo.CanRedo()})
}

func (s *Server) redoHandler(w http.ResponseWriter, r *http.Request) {
	applied := s.repo.Redo(r.Context())
	writeJSON(w, undoState{Applied: applied, CanUndo: s.repo.CanUndo(), CanRedo: s.repo.CanRedo()})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	data, err := s.repo.History().Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Disposition", `attachment; filename="task-history-`+s.now().Format("2006-01-02")+`.json"`)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) taskHistoryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.repo.History().ForTask(r.PathValue("taskId")))
}

func (s *Server) clearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	s.repo.History().Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.repo.Categories())
}

func (s *Server) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var body model.Category
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("category name is required"))
		return
	}
	writeJSONStatus(w, http.StatusCreated, s.repo.CreateCategory(r.Context(), body.Name, body.Color, body.Icon))
}

func (s *Server) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var body model.Category
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	body.ID = r.PathValue("id")
	if !s.repo.UpdateCategory(r.Context(), body) {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, body)
}

// deleteCategoryHandler clears the category from its tasks unless
// cascade=false is passed.
func (s *Server) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	cascade := r.URL.Query().Get("cascade") != "false"
	if !s.repo.DeleteCategory(r.Context(), r.PathValue("id"), cascade) {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.repo.Templates())
}

func (s *Server) createTemplateHandler(w http.ResponseWriter, r *http.Request) {
	var body model.TaskTemplate
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("template name is required"))
		return
	}
	writeJSONStatus(w, http.StatusCreated, s.repo.CreateTemplate(r.Context(), body.Name, body.Description, body.Tasks))
}

func (s *Server) deleteTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !s.repo.DeleteTemplate(r.Context(), r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) instantiateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	tasks, ok := s.repo.InstantiateTemplate(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSONStatus(w, http.StatusCreated, tasks)
}

func (s *Server) getPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.repo.Preferences())
}

// putPreferencesHandler merges the body over the current preferences, so
// omitted fields keep their values.
func (s *Server) putPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	next := s.repo.Preferences()
	if err := decodeJSON(r, &next); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if next.DefaultPriority != "" && !next.DefaultPriority.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("invalid default priority"))
		return
	}
	prefs := s.repo.UpdatePreferences(r.Context(), func(p *model.UserPreferences) { *p = next })
	writeJSON(w, prefs)
}

package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Joseda-hg/smarttodo/internal/backup"
	"github.com/Joseda-hg/smarttodo/internal/model"
)

var errBackupsDisabled = errors.New("backups are not configured")

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	date := now.Format("2006-01-02")
	tasks := s.repo.Tasks()

	var (
		buf         bytes.Buffer
		err         error
		contentType string
		filename    string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		contentType, filename = "application/json", "smart-todo-backup-"+date+".json"
		err = backup.ExportJSON(&buf, tasks, s.repo.Categories(), now)
	case "csv":
		contentType, filename = "text/csv", "tasks-"+date+".csv"
		err = backup.ExportCSV(&buf, tasks)
	case "ics":
		contentType, filename = "text/calendar", "tasks.ics"
		err = backup.ExportICS(&buf, tasks, now)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

// importHandler replaces tasks and categories from a JSON backup. A CSV
// import is appended to the current tasks instead.
func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	body := io.LimitReader(r.Body, maxBodyBytes)
	now := s.now()

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		doc, err := backup.ImportJSON(body, now)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.repo.ReplaceTasks(r.Context(), doc.Tasks, doc.Categories)
		writeJSON(w, map[string]int{"imported": len(doc.Tasks)})
	case "csv":
		imported, err := backup.ImportCSV(body, now)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		tasks := append(s.repo.Tasks(), imported...)
		s.repo.ReplaceTasks(r.Context(), tasks, nil)
		writeJSON(w, map[string]int{"imported": len(imported)})
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
	}
}

func (s *Server) listBackupsHandler(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeError(w, http.StatusServiceUnavailable, errBackupsDisabled)
		return
	}
	list, err := s.backups.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) createBackupHandler(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeError(w, http.StatusServiceUnavailable, errBackupsDisabled)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	meta, err := s.backups.Create(r.Context(), body.Name, s.repo.Tasks(), s.repo.Categories())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, meta)
}

func (s *Server) getBackup(w http.ResponseWriter, r *http.Request) (model.Backup, bool) {
	if s.backups == nil {
		writeError(w, http.StatusServiceUnavailable, errBackupsDisabled)
		return model.Backup{}, false
	}
	doc, err := s.backups.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, backup.ErrBackupNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return model.Backup{}, false
	}
	return doc, true
}

func (s *Server) getBackupHandler(w http.ResponseWriter, r *http.Request) {
	if doc, ok := s.getBackup(w, r); ok {
		writeJSON(w, doc)
	}
}

func (s *Server) restoreBackupHandler(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.getBackup(w, r)
	if !ok {
		return
	}
	s.repo.ReplaceTasks(r.Context(), doc.Tasks, doc.Categories)
	writeJSON(w, map[string]int{"restored": len(doc.Tasks)})
}

func (s *Server) deleteBackupHandler(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeError(w, http.StatusServiceUnavailable, errBackupsDisabled)
		return
	}
	if err := s.backups.Delete(r.Context(), r.PathValue("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, backup.ErrBackupNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

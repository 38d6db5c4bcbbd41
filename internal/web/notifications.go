package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Joseda-hg/smarttodo/internal/notify"
	"github.com/Joseda-hg/smarttodo/internal/schedule"
)

var errEmailDisabled = errors.New("email is not configured")

func (s *Server) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("unread") == "true" {
		writeJSON(w, s.center.Unread())
		return
	}
	writeJSON(w, s.center.List())
}

func (s *Server) readNotificationHandler(w http.ResponseWriter, r *http.Request) {
	if !s.center.MarkRead(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	s.center.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeNotificationHandler(w http.ResponseWriter, r *http.Request) {
	if !s.center.Remove(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	s.center.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// remindersHandler lists the reminders the notification preferences plan
// for upcoming tasks.
func (s *Server) remindersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, notify.Plan(s.repo.Tasks(), s.repo.Preferences().Notifications, s.now()))
}

func (s *Server) emailStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Configured bool   `json:"configured"`
		Recipient  string `json:"recipient,omitempty"`
	}{Configured: s.mailer != nil}
	if s.mailer != nil {
		status.Recipient = s.mailer.Recipient()
	}
	writeJSON(w, status)
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	TaskID  string `json:"taskId"`
	Date    string `json:"date"`
}

func (s *Server) decodeEmail(w http.ResponseWriter, r *http.Request) (emailRequest, bool) {
	var body emailRequest
	if s.mailer == nil {
		writeError(w, http.StatusServiceUnavailable, errEmailDisabled)
		return body, false
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return body, false
	}
	return body, true
}

func (s *Server) emailSent(w http.ResponseWriter, err error) {
	if err != nil {
		s.log.Logf("[WARN] web: send email: %v", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, map[string]string{"message": "Email sent successfully"})
}

func (s *Server) emailSendHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(body.Subject) == "" {
		writeError(w, http.StatusBadRequest, errors.New("subject is required"))
		return
	}
	s.emailSent(w, s.mailer.Send(r.Context(), body.To, body.Subject, body.Body))
}

func (s *Server) emailTaskReminderHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}
	task, found := s.repo.Task(body.TaskID)
	if !found {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}
	s.emailSent(w, s.mailer.SendTaskReminder(r.Context(), body.To, task))
}

func (s *Server) emailTaskCompletedHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}
	task, found := s.repo.Task(body.TaskID)
	if !found {
		writeError(w, http.StatusNotFound, errTaskNotFound)
		return
	}
	s.emailSent(w, s.mailer.SendTaskCompleted(r.Context(), body.To, task))
}

func (s *Server) emailDailySummaryHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}
	day, err := parseDate("date", body.Date, schedule.StartOfDay(s.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.emailSent(w, s.mailer.SendDailySummary(r.Context(), body.To, s.repo.Tasks(), day))
}

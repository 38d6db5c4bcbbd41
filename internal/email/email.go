// Package email sends HTML mails over SMTP: task reminders, completion
// notices and daily summaries.
package email

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/agalitsyn/secret"
	"github.com/go-pkgz/lgr"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

var ErrNotConfigured = errors.New("email is not configured")

type Config struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Username string        `json:"username"`
	Password secret.String `json:"-"`
	From     string        `json:"from"`
	To       string        `json:"to"`
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers through a single SMTP relay. smtp.SendMail upgrades to
// STARTTLS when the server offers it.
type SMTPSender struct {
	cfg      Config
	sendMail sendMailFunc
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Enabled() {
		return ErrNotConfigured
	}
	if msg.To == "" {
		return errors.New("email: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password.Unmask(), s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.port()))
	if err := s.sendMail(addr, auth, s.cfg.From, []string{msg.To}, compose(s.cfg.From, msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) port() int {
	if s.cfg.Port == 0 {
		return 587
	}
	return s.cfg.Port
}

func compose(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// Service renders templates and hands them to a Sender.
type Service struct {
	sender Sender
	to     string
	now    func() time.Time
	log    lgr.L
}

func NewService(sender Sender, defaultTo string, logger lgr.L) *Service {
	if logger == nil {
		logger = lgr.NoOp
	}
	return &Service{sender: sender, to: defaultTo, now: time.Now, log: logger}
}

// Recipient returns the default recipient address.
func (s *Service) Recipient() string {
	return s.to
}

func (s *Service) Send(ctx context.Context, to, subject, html string) error {
	return s.sender.Send(ctx, Message{To: s.recipient(to), Subject: subject, HTML: html})
}

func (s *Service) SendTaskReminder(ctx context.Context, to string, task model.Task) error {
	msg, err := TaskReminder(task)
	if err != nil {
		return err
	}
	msg.To = s.recipient(to)
	return s.sender.Send(ctx, msg)
}

func (s *Service) SendTaskCompleted(ctx context.Context, to string, task model.Task) error {
	at := s.now()
	if task.CompletedAt != nil {
		at = *task.CompletedAt
	}
	msg, err := TaskCompleted(task.Title, at)
	if err != nil {
		return err
	}
	msg.To = s.recipient(to)
	return s.sender.Send(ctx, msg)
}

// SendDailySummary counts tasks due on day and how many of them are done.
func (s *Service) SendDailySummary(ctx context.Context, to string, tasks []model.Task, day time.Time) error {
	total, completed := 0, 0
	y, m, d := day.Date()
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		ty, tm, td := task.DueDate.In(day.Location()).Date()
		if ty != y || tm != m || td != d {
			continue
		}
		total++
		if task.IsCompleted() {
			completed++
		}
	}

	msg, err := DailySummary(total, completed, day)
	if err != nil {
		return err
	}
	msg.To = s.recipient(to)
	return s.sender.Send(ctx, msg)
}

// Reminders returns a reminder dispatcher that follows the user's
// notification settings: no mail unless e-mail notifications are on, sent to
// the address from the settings or else the default recipient.
func (s *Service) Reminders(settings func() model.NotificationSettings) *ReminderDispatcher {
	return &ReminderDispatcher{service: s, settings: settings}
}

type ReminderDispatcher struct {
	service  *Service
	settings func() model.NotificationSettings
}

func (r *ReminderDispatcher) Dispatch(ctx context.Context, task model.Task) error {
	n := r.settings()
	if !n.Enabled || !n.Email {
		return nil
	}
	to := r.service.recipient(n.EmailAddress)
	if to == "" {
		r.service.log.Logf("[DEBUG] email: no recipient for reminder %s", task.ID)
		return nil
	}
	if err := r.service.SendTaskReminder(ctx, to, task); err != nil {
		return err
	}
	r.service.log.Logf("[DEBUG] email: reminder for %s sent to %s", task.ID, to)
	return nil
}

func (s *Service) recipient(to string) string {
	if to != "" {
		return to
	}
	return s.to
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/Joseda-hg/smarttodo/internal/backup"
	"github.com/Joseda-hg/smarttodo/internal/channel"
	"github.com/Joseda-hg/smarttodo/internal/config"
	"github.com/Joseda-hg/smarttodo/internal/email"
	"github.com/Joseda-hg/smarttodo/internal/history"
	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/notify"
	"github.com/Joseda-hg/smarttodo/internal/reminder"
	"github.com/Joseda-hg/smarttodo/internal/storage"
	"github.com/Joseda-hg/smarttodo/internal/storage/sqlite"
	"github.com/Joseda-hg/smarttodo/internal/store"
	"github.com/Joseda-hg/smarttodo/internal/web"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	debug      bool
}

// app is one opened data directory: config, database and the services
// built on top of it.
type app struct {
	cfg     config.Config
	log     lgr.L
	kv      storage.KV
	repo    *store.Repository
	backups *backup.Manager
	center  *notify.Center
	closers []io.Closer
}

func loadConfig(opts *options) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(path, cfg); err != nil {
			return config.Config{}, err
		}
	}

	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	if err := config.ApplyEnv(&cfg, os.Getenv); err != nil {
		return config.Config{}, err
	}

	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), "smarttodo.db")
	}
	if opts.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newLogger(debug bool, out io.Writer) lgr.L {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.Out(out)}
	if debug {
		logOpts = append(logOpts, lgr.Debug)
	}
	return lgr.New(logOpts...)
}

// openApp loads config and the database. A terminal front end logs to a
// file next to the database instead of the screen, and only in debug mode.
func openApp(ctx context.Context, opts *options, terminal bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	if err := config.EnsureDir(cfg.DBPath); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: newLogger(cfg.Debug, os.Stderr)}
	if terminal {
		a.log = lgr.NoOp
		if cfg.Debug {
			f, err := os.OpenFile(filepath.Join(filepath.Dir(cfg.DBPath), "smarttodo.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, f)
			a.log = newLogger(true, f)
		}
	}
	a.log.Logf("[DEBUG] config: %s", cfg)

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	a.closers = append([]io.Closer{db}, a.closers...)
	a.kv = sqlite.NewStore(db)

	trail := history.New(a.kv, a.log)
	a.repo = store.New(a.kv, trail, store.WithLogger(a.log))
	if err := a.repo.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.center = notify.NewCenter(notify.WithLogger(a.log))
	a.backups = backup.NewManager(a.kv, a.log)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Logf("[WARN] close: %v", err)
		}
	}
	a.closers = nil
}

// mailer returns the e-mail service, or nil when SMTP is not configured.
func (a *app) mailer() *email.Service {
	cfg := email.Config{
		Host:     a.cfg.SMTP.Host,
		Port:     a.cfg.SMTP.Port,
		Username: a.cfg.SMTP.Username,
		Password: a.cfg.SMTP.Password,
		From:     a.cfg.SMTP.From,
		To:       a.cfg.SMTP.To,
	}
	if !cfg.Enabled() {
		return nil
	}
	return email.NewService(email.NewSMTPSender(cfg), cfg.To, a.log)
}

func (a *app) notificationSettings() model.NotificationSettings {
	return a.repo.Preferences().Notifications
}

// dispatchers lists every configured reminder channel. The notification
// center is always one of them. E-mail follows the notification settings.
// Chat channels that fail to start are skipped with a warning.
func (a *app) dispatchers() *reminder.Multi {
	channels := []reminder.Dispatcher{a.center}
	if mail := a.mailer(); mail != nil {
		channels = append(channels, mail.Reminders(a.notificationSettings))
	}
	if a.cfg.Telegram.Token.Unmask() != "" {
		tg, err := channel.NewTelegram(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID)
		if err != nil {
			a.log.Logf("[WARN] reminders: telegram disabled: %v", err)
		} else {
			channels = append(channels, tg)
		}
	}
	if a.cfg.Discord.Token.Unmask() != "" {
		dc, err := channel.NewDiscord(a.cfg.Discord.Token, a.cfg.Discord.ChannelID)
		if err != nil {
			a.log.Logf("[WARN] reminders: discord disabled: %v", err)
		} else {
			channels = append(channels, dc)
		}
	}
	return reminder.NewMulti(channels...)
}

// startBackground runs the reminder scheduler and the overdue/upcoming
// monitor until ctx is cancelled.
func (a *app) startBackground(ctx context.Context, wg *sync.WaitGroup) error {
	dispatchers := a.dispatchers()
	scheduler := reminder.New(a.repo, dispatchers, a.kv,
		reminder.WithInterval(a.cfg.Reminder.Interval.Std()),
		reminder.WithWindow(a.cfg.Reminder.Window.Std()),
		reminder.WithWarner(a.center),
		reminder.WithSettings(a.notificationSettings),
		reminder.WithLogger(a.log),
	)
	if err := scheduler.Load(ctx); err != nil {
		return err
	}
	monitor := notify.NewMonitor(a.repo, a.center, a.log)
	monitor.Settings = a.notificationSettings
	a.log.Logf("[INFO] reminders: %d channels", dispatchers.Len())

	wg.Add(2)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()
	return nil
}

func (a *app) webServer() *web.Server {
	opts := []web.Option{
		web.WithBackups(a.backups),
		web.WithNotifications(a.center),
		web.WithLogger(a.log),
	}
	if mail := a.mailer(); mail != nil {
		opts = append(opts, web.WithMailer(mail))
	}
	return web.NewServer(a.repo, opts...)
}

// announceCompletions records completion notifications when no web server
// is running to do it.
func (a *app) announceCompletions() {
	a.repo.Subscribe(func(e store.Event) {
		if e.Action == model.ActionComplete {
			a.center.Completed(e.Task)
		}
	})
}

// serveHTTP blocks until ctx is cancelled or the listener fails.
func (a *app) serveHTTP(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.WebPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Logf("[INFO] web server running at http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown web server: %w", err)
		}
		a.log.Logf("[INFO] web server stopped")
		return nil
	}
}

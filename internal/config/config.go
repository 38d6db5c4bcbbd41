package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agalitsyn/secret"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SMARTTODO_"

type Config struct {
	DBPath     string         `json:"db_path"`
	WebEnabled bool           `json:"web_enabled"`
	WebPort    int            `json:"web_port"`
	Debug      bool           `json:"debug"`
	Reminder   ReminderConfig `json:"reminder"`
	SMTP       SMTPConfig     `json:"smtp"`
	Telegram   TelegramConfig `json:"telegram"`
	Discord    DiscordConfig  `json:"discord"`
}

type ReminderConfig struct {
	Interval Duration `json:"interval"`
	Window   Duration `json:"window"`
}

// SMTPConfig holds the mail relay. Password is never written to the config file.
type SMTPConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Username string        `json:"username"`
	From     string        `json:"from"`
	To       string        `json:"to"`
	Password secret.String `json:"-"`
}

type TelegramConfig struct {
	ChatID int64         `json:"chat_id"`
	Token  secret.String `json:"-"`
}

type DiscordConfig struct {
	ChannelID string        `json:"channel_id"`
	Token     secret.String `json:"-"`
}

func Default() Config {
	return Config{
		WebPort: 8080,
		Reminder: ReminderConfig{
			Interval: Duration(time.Minute),
			Window:   Duration(time.Minute),
		},
		SMTP: SMTPConfig{Host: "smtp.gmail.com", Port: 587},
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "smarttodo", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are skipped and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from SMARTTODO_* variables read through getenv.
// Secrets are only ever read here.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	get := func(key string) string { return getenv(EnvPrefix + key) }

	setString := func(dst *string, key string) {
		if v := get(key); v != "" {
			*dst = v
		}
	}
	setSecret := func(dst *secret.String, key string) {
		if v := get(key); v != "" {
			*dst = secret.NewString(v)
		}
	}

	setString(&cfg.DBPath, "DB_PATH")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.Username, "SMTP_USERNAME")
	setString(&cfg.SMTP.From, "SMTP_FROM")
	setString(&cfg.SMTP.To, "SMTP_TO")
	setString(&cfg.Discord.ChannelID, "DISCORD_CHANNEL_ID")
	setSecret(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setSecret(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setSecret(&cfg.Discord.Token, "DISCORD_TOKEN")

	var errs []error
	if v := get("WEB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWEB_PORT: %w", EnvPrefix, err))
		} else {
			cfg.WebPort = port
		}
	}
	if v := get("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSMTP_PORT: %w", EnvPrefix, err))
		} else {
			cfg.SMTP.Port = port
		}
	}
	if v := get("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTELEGRAM_CHAT_ID: %w", EnvPrefix, err))
		} else {
			cfg.Telegram.ChatID = id
		}
	}
	for key, dst := range map[string]*Duration{
		"REMINDER_INTERVAL": &cfg.Reminder.Interval,
		"REMINDER_WINDOW":   &cfg.Reminder.Window,
	} {
		if v := get(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				continue
			}
			*dst = Duration(d)
		}
	}
	if v := get("DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration written as "1m30s" in the config file.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v) * time.Second)
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
	return nil
}

func (c Config) String() string {
	data, _ := json.Marshal(struct {
		Config
		SMTPPassword  secret.String `json:"smtp_password"`
		TelegramToken secret.String `json:"telegram_token"`
		DiscordToken  secret.String `json:"discord_token"`
	}{c, c.SMTP.Password, c.Telegram.Token, c.Discord.Token})
	return string(data)
}

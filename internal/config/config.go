package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	// ErrReadConfig возвращается, если не удалось прочитать или разобрать файл конфигурации
	ErrReadConfig = errors.New("config: failed to read config")

	// ErrInvalidConfig возвращается, если конфигурация не прошла валидацию
	ErrInvalidConfig = errors.New("config: invalid config")
)

// Config корневая конфигурация сервиса
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Reminders     RemindersConfig     `toml:"reminders"`
	Notifications NotificationsConfig `toml:"notifications"`
	Redis         RedisConfig         `toml:"redis"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// ReminderOffset одна запись ReminderOffsetConfig
type ReminderOffset struct {
	Type    string `toml:"type"`
	Minutes int    `toml:"minutes"`
}

type RemindersConfig struct {
	PeriodMinutes int              `toml:"period_minutes"`
	Offsets       []ReminderOffset `toml:"offsets"`
	Concurrency   int              `toml:"concurrency"`
	BudgetSeconds int              `toml:"budget_seconds"`
	TriggerSecret string           `toml:"trigger_secret"`
	Channel       string           `toml:"channel"` // email | sms
	ClaimTTL      int              `toml:"claim_ttl_seconds"`
}

// Period период вызова рассылки
func (c RemindersConfig) Period() time.Duration {
	return time.Duration(c.PeriodMinutes) * time.Minute
}

// Budget бюджет одного прогона рассылки
func (c RemindersConfig) Budget() time.Duration {
	return time.Duration(c.BudgetSeconds) * time.Second
}

type NotificationsConfig struct {
	Provider string     `toml:"provider"` // smtp | webhook | noop
	SMTP     SMTPConfig `toml:"smtp"`
	SMS      SMSConfig  `toml:"sms"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	Timeout  int    `toml:"timeout"` // секунды, на весь SMTP обмен одного письма
}

type SMSConfig struct {
	WebhookURL string `toml:"webhook_url"`
	Token      string `toml:"token"`
	Timeout    int    `toml:"timeout"` // секунды
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type RateLimitConfig struct {
	Enabled       bool `toml:"enabled"`
	Requests      int  `toml:"requests"`
	WindowSeconds int  `toml:"window_seconds"`
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию,
// переменные окружения и валидирует результат
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    30,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "appointment-service",
		},
		Reminders: RemindersConfig{
			PeriodMinutes: 5,
			Offsets: []ReminderOffset{
				{Type: "24h", Minutes: 1440},
				{Type: "1h", Minutes: 60},
				{Type: "15m", Minutes: 15},
			},
			Concurrency:   8,
			BudgetSeconds: 60,
			Channel:       "email",
			ClaimTTL:      120,
		},
		Notifications: NotificationsConfig{
			Provider: "noop",
			SMTP: SMTPConfig{
				Timeout: 30,
			},
			SMS: SMSConfig{
				Timeout: 10,
			},
		},
		RateLimit: RateLimitConfig{
			Requests:      20,
			WindowSeconds: 60,
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRIGGER_SECRET"); v != "" {
		c.Reminders.TriggerSecret = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Notifications.SMTP.Password = v
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port out of range: %d", ErrInvalidConfig, c.Server.HTTPPort)
	}

	r := c.Reminders
	if r.PeriodMinutes <= 0 {
		return fmt.Errorf("%w: reminders.period_minutes must be positive", ErrInvalidConfig)
	}
	if len(r.Offsets) == 0 {
		return fmt.Errorf("%w: reminders.offsets must not be empty", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(r.Offsets))
	for _, o := range r.Offsets {
		if o.Type == "" || o.Minutes <= 0 {
			return fmt.Errorf("%w: reminders.offsets entry %q has invalid values", ErrInvalidConfig, o.Type)
		}
		if _, dup := seen[o.Type]; dup {
			return fmt.Errorf("%w: reminders.offsets type %q is duplicated", ErrInvalidConfig, o.Type)
		}
		seen[o.Type] = struct{}{}
	}
	if r.Concurrency <= 0 {
		return fmt.Errorf("%w: reminders.concurrency must be positive", ErrInvalidConfig)
	}
	if r.BudgetSeconds <= 0 {
		return fmt.Errorf("%w: reminders.budget_seconds must be positive", ErrInvalidConfig)
	}
	if r.TriggerSecret == "" {
		return fmt.Errorf("%w: reminders.trigger_secret (or TRIGGER_SECRET) is required", ErrInvalidConfig)
	}
	if r.Channel != "email" && r.Channel != "sms" {
		return fmt.Errorf("%w: reminders.channel must be email or sms, got %q", ErrInvalidConfig, r.Channel)
	}

	switch c.Notifications.Provider {
	case "noop":
	case "smtp":
		if c.Notifications.SMTP.Host == "" || c.Notifications.SMTP.From == "" {
			return fmt.Errorf("%w: notifications.smtp host and from are required", ErrInvalidConfig)
		}
	case "webhook":
		if c.Notifications.SMS.WebhookURL == "" {
			return fmt.Errorf("%w: notifications.sms.webhook_url is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown notifications.provider %q", ErrInvalidConfig, c.Notifications.Provider)
	}

	if c.RateLimit.Enabled {
		if !c.Redis.Enabled {
			return fmt.Errorf("%w: rate_limit requires redis.enabled", ErrInvalidConfig)
		}
		if c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0 {
			return fmt.Errorf("%w: rate_limit requests and window_seconds must be positive", ErrInvalidConfig)
		}
	}

	return nil
}

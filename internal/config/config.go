package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

// Store backends.
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Notification backends.
const (
	NotifySNS = "sns"
	NotifyLog = "log"
)

type Config struct {
	ServerPort   string
	AppEnv       string
	LogLevel     string
	StoreBackend string
	AWS          AWSConfig
	DynamoDB     DynamoDBConfig
	DB           DBConfig
	Reminder     ReminderConfig
	Notify       NotifyConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}

	switch c.StoreBackend {
	case StoreDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the %s backend", StoreDynamoDB)
		}
	case StorePostgres:
	case StoreMemory:
		if c.AppEnv != "local" {
			return fmt.Errorf("STORE_BACKEND=%s must not be used in %s environment", StoreMemory, c.AppEnv)
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: must be one of dynamodb, postgres, memory", c.StoreBackend)
	}

	if _, err := cron.ParseStandard(c.Reminder.Schedule); err != nil {
		return fmt.Errorf("invalid REMINDER_SCHEDULE %q: %w", c.Reminder.Schedule, err)
	}
	window, err := time.ParseDuration(c.Reminder.Window)
	if err != nil {
		return fmt.Errorf("invalid REMINDER_WINDOW %q: %w", c.Reminder.Window, err)
	}
	if window <= 0 {
		return fmt.Errorf("invalid REMINDER_WINDOW %q: must be positive", c.Reminder.Window)
	}

	switch c.Notify.Backend {
	case NotifySNS:
		if c.Reminder.Enabled && c.Notify.TopicARN == "" {
			return fmt.Errorf("SNS_TOPIC_ARN is required when reminders are enabled with the %s backend", NotifySNS)
		}
	case NotifyLog:
	default:
		return fmt.Errorf("invalid NOTIFY_BACKEND %q: must be one of sns, log", c.Notify.Backend)
	}
	if c.Notify.SubscribeEmail != "" && !strings.Contains(c.Notify.SubscribeEmail, "@") {
		return fmt.Errorf("invalid NOTIFY_SUBSCRIBE_EMAIL %q", c.Notify.SubscribeEmail)
	}
	return nil
}

// ValidateFiring is Validate for a process that fires reminders regardless of
// REMINDER_ENABLED, such as the standalone reminder command.
func (c Config) ValidateFiring() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Notify.Backend == NotifySNS && c.Notify.TopicARN == "" {
		return fmt.Errorf("SNS_TOPIC_ARN is required to fire reminders with the %s backend", NotifySNS)
	}
	return nil
}

type AWSConfig struct {
	Region string
	// EndpointURL overrides every service endpoint, e.g. for LocalStack.
	EndpointURL string
}

type DynamoDBConfig struct {
	Table       string
	CreateTable bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type ReminderConfig struct {
	Enabled  bool
	Schedule string
	Window   string
	Subject  string
	Message  string
}

// WindowDuration returns the parsed lookahead. Call Validate first; an
// unparsable value yields zero.
func (r ReminderConfig) WindowDuration() time.Duration {
	d, _ := time.ParseDuration(r.Window)
	return d
}

type NotifyConfig struct {
	Backend        string
	TopicARN       string
	SubscribeEmail string
}

func Load() Config {
	return Config{
		ServerPort:   envOrDefault("SERVER_PORT", "8080"),
		AppEnv:       envOrDefault("APP_ENV", "local"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		StoreBackend: strings.ToLower(envOrDefault("STORE_BACKEND", StoreDynamoDB)),
		AWS: AWSConfig{
			Region:      envOrDefault("AWS_REGION", "ap-northeast-1"),
			EndpointURL: os.Getenv("AWS_ENDPOINT_URL"),
		},
		DynamoDB: DynamoDBConfig{
			Table:       envOrDefault("DYNAMODB_TABLE", "Todos"),
			CreateTable: envBool("DYNAMODB_CREATE_TABLE", false),
		},
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "todo"),
			Password: envOrDefault("DB_PASSWORD", "todo"),
			Name:     envOrDefault("DB_NAME", "todo"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
		Reminder: ReminderConfig{
			Enabled:  envBool("REMINDER_ENABLED", true),
			Schedule: envOrDefault("REMINDER_SCHEDULE", "0 8 * * *"),
			Window:   envOrDefault("REMINDER_WINDOW", "24h"),
			Subject:  envOrDefault("REMINDER_SUBJECT", "Todo reminder"),
			Message:  envOrDefault("REMINDER_MESSAGE", "A todo item is due within 24 hours"),
		},
		Notify: NotifyConfig{
			Backend:        strings.ToLower(envOrDefault("NOTIFY_BACKEND", NotifySNS)),
			TopicARN:       os.Getenv("SNS_TOPIC_ARN"),
			SubscribeEmail: os.Getenv("NOTIFY_SUBSCRIBE_EMAIL"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

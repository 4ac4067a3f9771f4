package config_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kter/serverless-sample/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "APP_ENV", "LOG_LEVEL", "STORE_BACKEND",
		"AWS_REGION", "AWS_ENDPOINT_URL", "DYNAMODB_TABLE", "DYNAMODB_CREATE_TABLE",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"REMINDER_ENABLED", "REMINDER_SCHEDULE", "REMINDER_WINDOW", "REMINDER_SUBJECT", "REMINDER_MESSAGE",
		"NOTIFY_BACKEND", "SNS_TOPIC_ARN", "NOTIFY_SUBSCRIBE_EMAIL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := config.Load()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ServerPort", cfg.ServerPort, "8080"},
		{"AppEnv", cfg.AppEnv, "local"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"StoreBackend", cfg.StoreBackend, "dynamodb"},
		{"AWS.Region", cfg.AWS.Region, "ap-northeast-1"},
		{"AWS.EndpointURL", cfg.AWS.EndpointURL, ""},
		{"DynamoDB.Table", cfg.DynamoDB.Table, "Todos"},
		{"DB.Host", cfg.DB.Host, "localhost"},
		{"DB.Port", cfg.DB.Port, "5432"},
		{"DB.SSLMode", cfg.DB.SSLMode, "disable"},
		{"Reminder.Schedule", cfg.Reminder.Schedule, "0 8 * * *"},
		{"Reminder.Window", cfg.Reminder.Window, "24h"},
		{"Reminder.Subject", cfg.Reminder.Subject, "Todo reminder"},
		{"Reminder.Message", cfg.Reminder.Message, "A todo item is due within 24 hours"},
		{"Notify.Backend", cfg.Notify.Backend, "sns"},
		{"Notify.TopicARN", cfg.Notify.TopicARN, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	t.Run("Reminder.Enabled", func(t *testing.T) {
		if !cfg.Reminder.Enabled {
			t.Error("got Reminder.Enabled=false, want true")
		}
	})

	t.Run("DynamoDB.CreateTable", func(t *testing.T) {
		if cfg.DynamoDB.CreateTable {
			t.Error("got DynamoDB.CreateTable=true, want false")
		}
	})

	t.Run("WindowDuration", func(t *testing.T) {
		if got := cfg.Reminder.WindowDuration(); got != 24*time.Hour {
			t.Errorf("got %v, want 24h", got)
		}
	})
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "alpha")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ENDPOINT_URL", "http://localhost:4566")
	t.Setenv("DYNAMODB_TABLE", "TodosTest")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_USER", "admin")
	t.Setenv("REMINDER_SCHEDULE", "30 6 * * 1-5")
	t.Setenv("REMINDER_WINDOW", "12h")
	t.Setenv("REMINDER_SUBJECT", "Heads up")
	t.Setenv("NOTIFY_BACKEND", "LOG")
	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:123456789012:todo-reminders")
	t.Setenv("NOTIFY_SUBSCRIBE_EMAIL", "me@example.com")

	cfg := config.Load()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ServerPort", cfg.ServerPort, "9090"},
		{"AppEnv", cfg.AppEnv, "alpha"},
		{"LogLevel", cfg.LogLevel, "debug"},
		{"StoreBackend", cfg.StoreBackend, "postgres"},
		{"AWS.Region", cfg.AWS.Region, "us-east-1"},
		{"AWS.EndpointURL", cfg.AWS.EndpointURL, "http://localhost:4566"},
		{"DynamoDB.Table", cfg.DynamoDB.Table, "TodosTest"},
		{"DB.Host", cfg.DB.Host, "db.example.com"},
		{"DB.User", cfg.DB.User, "admin"},
		{"Reminder.Schedule", cfg.Reminder.Schedule, "30 6 * * 1-5"},
		{"Reminder.Window", cfg.Reminder.Window, "12h"},
		{"Reminder.Subject", cfg.Reminder.Subject, "Heads up"},
		{"Notify.Backend", cfg.Notify.Backend, "log"},
		{"Notify.TopicARN", cfg.Notify.TopicARN, "arn:aws:sns:us-east-1:123456789012:todo-reminders"},
		{"Notify.SubscribeEmail", cfg.Notify.SubscribeEmail, "me@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_BoolFlags(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"lowercase true", "true", true},
		{"uppercase TRUE", "TRUE", true},
		{"one", "1", true},
		{"lowercase false", "false", false},
		{"zero", "0", false},
		{"empty keeps default", "", false},
		{"garbage keeps default", "yes please", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DYNAMODB_CREATE_TABLE", tt.value)

			cfg := config.Load()
			if cfg.DynamoDB.CreateTable != tt.want {
				t.Errorf("DYNAMODB_CREATE_TABLE=%q: got %v, want %v", tt.value, cfg.DynamoDB.CreateTable, tt.want)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantSub  string
	}{
		{
			name:     "simple password",
			password: "todo",
			wantSub:  "todo:todo@",
		},
		{
			name:     "password with special chars",
			password: "p@ss/w#rd?",
			wantSub:  "todo:p%40ss%2Fw%23rd%3F@",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_PASSWORD", tt.password)

			cfg := config.Load()
			dsn := cfg.DB.DSN()

			if !strings.Contains(dsn, tt.wantSub) {
				t.Errorf("DSN=%s, want to contain %s", dsn, tt.wantSub)
			}
			if !strings.HasPrefix(dsn, "postgres://") {
				t.Errorf("DSN=%s, want postgres:// prefix", dsn)
			}
			if !strings.Contains(dsn, "sslmode=disable") {
				t.Errorf("DSN=%s, want sslmode=disable", dsn)
			}
		})
	}
}

func TestConfig_ParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Warn", "Warn", slog.LevelWarn},
		{"empty defaults to info", "", slog.LevelInfo},
		{"invalid defaults to info", "verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LOG_LEVEL", tt.value)

			cfg := config.Load()
			got := cfg.ParseLogLevel()

			if got != tt.want {
				t.Errorf("LOG_LEVEL=%q: got %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	const topic = "arn:aws:sns:ap-northeast-1:123456789012:todo-reminders"

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"defaults with topic", map[string]string{"SNS_TOPIC_ARN": topic}, ""},
		{"valid prod dynamodb", map[string]string{"APP_ENV": "prod", "SNS_TOPIC_ARN": topic}, ""},
		{"valid postgres", map[string]string{"STORE_BACKEND": "postgres", "SNS_TOPIC_ARN": topic}, ""},
		{"memory in local", map[string]string{"STORE_BACKEND": "memory", "NOTIFY_BACKEND": "log"}, ""},
		{"reminders disabled need no topic", map[string]string{"REMINDER_ENABLED": "false"}, ""},
		{"log backend needs no topic", map[string]string{"NOTIFY_BACKEND": "log"}, ""},
		{"invalid port", map[string]string{"SERVER_PORT": "abc", "SNS_TOPIC_ARN": topic}, "invalid SERVER_PORT"},
		{"invalid env", map[string]string{"APP_ENV": "staging", "SNS_TOPIC_ARN": topic}, "invalid APP_ENV"},
		{"invalid backend", map[string]string{"STORE_BACKEND": "redis", "SNS_TOPIC_ARN": topic}, "invalid STORE_BACKEND"},
		{"memory in prod", map[string]string{"APP_ENV": "prod", "STORE_BACKEND": "memory", "SNS_TOPIC_ARN": topic}, "must not be used in prod"},
		{"bad schedule", map[string]string{"REMINDER_SCHEDULE": "daily", "SNS_TOPIC_ARN": topic}, "invalid REMINDER_SCHEDULE"},
		{"bad window", map[string]string{"REMINDER_WINDOW": "a day", "SNS_TOPIC_ARN": topic}, "invalid REMINDER_WINDOW"},
		{"negative window", map[string]string{"REMINDER_WINDOW": "-1h", "SNS_TOPIC_ARN": topic}, "must be positive"},
		{"missing topic", map[string]string{}, "SNS_TOPIC_ARN is required"},
		{"invalid notify backend", map[string]string{"NOTIFY_BACKEND": "slack"}, "invalid NOTIFY_BACKEND"},
		{"invalid email", map[string]string{"NOTIFY_BACKEND": "log", "NOTIFY_SUBSCRIBE_EMAIL": "nobody"}, "invalid NOTIFY_SUBSCRIBE_EMAIL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := config.Load()
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.wantErr)
				} else if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestConfig_ValidateFiring(t *testing.T) {
	const topic = "arn:aws:sns:ap-northeast-1:123456789012:todo-reminders"

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"sns with topic", map[string]string{"SNS_TOPIC_ARN": topic}, ""},
		{"loop disabled sns with topic", map[string]string{"REMINDER_ENABLED": "false", "SNS_TOPIC_ARN": topic}, ""},
		{"loop disabled log backend", map[string]string{"REMINDER_ENABLED": "false", "NOTIFY_BACKEND": "log"}, ""},
		{"loop disabled sns without topic", map[string]string{"REMINDER_ENABLED": "false"}, "SNS_TOPIC_ARN is required"},
		{"base validation still applies", map[string]string{"REMINDER_ENABLED": "false", "NOTIFY_BACKEND": "log", "SERVER_PORT": "abc"}, "invalid SERVER_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := config.Load().ValidateFiring()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.wantErr)
				} else if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

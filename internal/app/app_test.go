package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kter/serverless-sample/internal/app"
	"github.com/kter/serverless-sample/internal/config"
	"github.com/kter/serverless-sample/internal/model"
	"github.com/kter/serverless-sample/internal/notify"
	"github.com/kter/serverless-sample/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func localConfig() config.Config {
	return config.Config{
		ServerPort:   "8080",
		AppEnv:       "local",
		StoreBackend: config.StoreMemory,
		Reminder: config.ReminderConfig{
			Enabled:  true,
			Schedule: "0 8 * * *",
			Window:   "24h",
			Subject:  "Todo reminder",
			Message:  "A todo item is due within 24 hours",
		},
		Notify: config.NotifyConfig{Backend: config.NotifyLog},
	}
}

func TestNewStore_Memory(t *testing.T) {
	store, closeFn, err := app.NewStore(context.Background(), localConfig(), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	defer closeFn()

	assert.IsType(t, &repository.MemoryTodoRepository{}, store)
}

func TestNewStore_UnknownBackend(t *testing.T) {
	cfg := localConfig()
	cfg.StoreBackend = "cassandra"

	_, closeFn, err := app.NewStore(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestNewPublisher(t *testing.T) {
	pub, err := app.NewPublisher(context.Background(), localConfig(), discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &notify.LogPublisher{}, pub)

	cfg := localConfig()
	cfg.Notify.Backend = "pager"
	_, err = app.NewPublisher(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

type capture struct{ messages []notify.Message }

func (c *capture) Publish(ctx context.Context, msg notify.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

func TestNewScheduler_UsesConfiguredTextAndWindow(t *testing.T) {
	cfg := localConfig()
	cfg.Reminder.Window = "2h"
	cfg.Reminder.Subject = "Due soon"
	cfg.Reminder.Message = "Something is due"

	store := repository.NewMemoryTodo()
	soon := time.Now().Add(time.Hour)
	later := time.Now().Add(3 * time.Hour)
	require.NoError(t, store.Put(context.Background(), model.Todo{ID: "a", Title: "soon", DueAt: &soon}))
	require.NoError(t, store.Put(context.Background(), model.Todo{ID: "b", Title: "later", DueAt: &later}))

	pub := &capture{}
	s, err := app.NewScheduler(cfg, store, pub, discardLogger())
	require.NoError(t, err)

	result := s.Fire(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Eligible)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "Due soon", pub.messages[0].Subject)
	assert.Contains(t, pub.messages[0].Body, "Something is due")
	assert.Contains(t, pub.messages[0].Body, "soon")
	assert.NotContains(t, pub.messages[0].Body, "later")
}

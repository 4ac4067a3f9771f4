// Package app assembles the store, publisher and scheduler from
// configuration. Both binaries share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/kter/serverless-sample/internal/awsutil"
	"github.com/kter/serverless-sample/internal/config"
	"github.com/kter/serverless-sample/internal/notify"
	"github.com/kter/serverless-sample/internal/reminder"
	"github.com/kter/serverless-sample/internal/repository"
)

const tableWait = 2 * time.Minute

// NewStore opens the configured backend. The returned close func is never nil.
func NewStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.TodoRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryTodo(), noop, nil

	case config.StorePostgres:
		db, err := repository.NewDB(cfg.DB.DSN())
		if err != nil {
			return nil, noop, err
		}
		repo := repository.NewPostgresTodo(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Info("database connected", "host", cfg.DB.Host, "name", cfg.DB.Name)
		return repo, db.Close, nil

	case config.StoreDynamoDB:
		awsCfg, err := awsutil.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, noop, err
		}
		repo := repository.NewDynamoTodo(awsutil.NewDynamoDB(awsCfg, cfg.AWS.EndpointURL), cfg.DynamoDB.Table)
		if cfg.DynamoDB.CreateTable {
			created, err := repo.EnsureTable(ctx, tableWait)
			if err != nil {
				return nil, noop, err
			}
			logger.Info("dynamodb table ready", "table", cfg.DynamoDB.Table, "created", created)
		}
		logger.Info("dynamodb store configured", "table", cfg.DynamoDB.Table, "region", cfg.AWS.Region)
		return repo, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewPublisher builds the notification sink. With the sns backend and a
// subscriber email configured, the subscription is requested once at startup;
// SNS treats repeated requests for the same endpoint as a no-op.
func NewPublisher(ctx context.Context, cfg config.Config, logger *slog.Logger) (notify.Publisher, error) {
	switch cfg.Notify.Backend {
	case config.NotifyLog:
		return notify.NewLogPublisher(logger), nil

	case config.NotifySNS:
		awsCfg, err := awsutil.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		pub := notify.NewSNSPublisher(awsutil.NewSNS(awsCfg, cfg.AWS.EndpointURL), cfg.Notify.TopicARN)
		if cfg.Notify.SubscribeEmail != "" {
			arn, err := pub.SubscribeEmail(ctx, cfg.Notify.SubscribeEmail)
			if err != nil {
				return nil, err
			}
			logger.Info("email subscription requested", "subscription", arn)
		}
		return pub, nil

	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Notify.Backend)
	}
}

// NewScheduler wires the reminder pipeline for the given store and publisher.
func NewScheduler(cfg config.Config, store reminder.Store, pub notify.Publisher, logger *slog.Logger, opts ...reminder.Option) (*reminder.Scheduler, error) {
	dispatcher := notify.NewDispatcher(pub, cfg.Reminder.Subject, cfg.Reminder.Message)
	return reminder.NewScheduler(store, dispatcher, cfg.Reminder.Schedule, cfg.Reminder.WindowDuration(), logger, opts...)
}

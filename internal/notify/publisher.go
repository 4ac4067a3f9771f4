package notify

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDispatch marks a failure to hand a message to the fan-out topic.
var ErrDispatch = errors.New("dispatch failed")

// Message is one notification handed to a topic.
type Message struct {
	Subject       string
	Body          string
	EligibleCount int
}

// Publisher delivers a message to a fan-out topic. Delivery to the topic's
// subscribers is the topic's responsibility.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// LogPublisher writes messages to the logger instead of a topic. It is meant
// for local runs where no SNS topic exists.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	p.logger.InfoContext(ctx, "notification",
		"subject", msg.Subject,
		"eligible_count", msg.EligibleCount,
		"body", msg.Body,
	)
	return nil
}

var _ Publisher = (*LogPublisher)(nil)

package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kter/serverless-sample/internal/model"
)

const (
	DefaultSubject = "Todo reminder"
	DefaultText    = "A todo item is due within 24 hours"
)

// Dispatcher turns one firing's eligible todos into at most one published
// message.
type Dispatcher struct {
	publisher Publisher
	subject   string
	text      string
}

func NewDispatcher(publisher Publisher, subject, text string) *Dispatcher {
	if subject == "" {
		subject = DefaultSubject
	}
	if text == "" {
		text = DefaultText
	}
	return &Dispatcher{publisher: publisher, subject: subject, text: text}
}

// Dispatch publishes a single message when todos is non-empty and does
// nothing otherwise. It reports whether a publish was attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, todos []model.Todo) (bool, error) {
	if len(todos) == 0 {
		return false, nil
	}

	msg := d.Compose(todos)
	if err := d.publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, ErrDispatch) {
			return true, fmt.Errorf("failed to publish reminder for %d todos: %w", len(todos), err)
		}
		return true, fmt.Errorf("failed to publish reminder for %d todos: %w: %w", len(todos), ErrDispatch, err)
	}
	return true, nil
}

// Compose builds the message: the fixed text, then one line per todo ordered
// by due time.
func (d *Dispatcher) Compose(todos []model.Todo) Message {
	sorted := make([]model.Todo, len(todos))
	copy(sorted, todos)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.HasDueAt() || !b.HasDueAt() {
			return a.HasDueAt()
		}
		return a.DueAt.Before(*b.DueAt)
	})

	var b strings.Builder
	b.WriteString(d.text)
	b.WriteString("\n")
	for _, todo := range sorted {
		if todo.HasDueAt() {
			fmt.Fprintf(&b, "\n- %s (due %s)", todo.Title, todo.DueAt.UTC().Format(time.RFC3339))
			continue
		}
		fmt.Fprintf(&b, "\n- %s", todo.Title)
	}

	return Message{
		Subject:       d.subject,
		Body:          b.String(),
		EligibleCount: len(sorted),
	}
}

package notifier

import (
	"context"

	"github.com/rs/zerolog/log"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// Notifier delivers plain-text alert messages.
type Notifier interface {
	Send(ctx context.Context, text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	// StartPolling blocks until ctx is cancelled.
	StartPolling(ctx context.Context, handler CommandHandler)
}

// NoopNotifier logs instead of sending; used when Telegram is not configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (NoopNotifier) Send(_ context.Context, text string) error {
	log.Debug().Int("bytes", len(text)).Msg("notification dropped, no notifier configured")
	return nil
}

func (n NoopNotifier) SendWithRetry(ctx context.Context, text string, _ int) error {
	return n.Send(ctx, text)
}

func (NoopNotifier) StartPolling(ctx context.Context, _ CommandHandler) {
	<-ctx.Done()
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yesid10/taskflow-api/internal/queue"
)

const publishTimeout = 5 * time.Second

// emitter publishes auth events off the request path. A nil publisher
// drops events.
type emitter struct {
	pub EventPublisher
	log *slog.Logger
}

func (e emitter) emit(ctx context.Context, ev queue.AuthEvent) {
	if e.pub == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := e.pub.Publish(ctx, ev); err != nil {
			e.log.Warn("failed to publish auth event", "type", ev.Type, "user_id", ev.UserID, "error", err)
		}
	}()
}

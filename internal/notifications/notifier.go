// Package notifications publishes account lifecycle events.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"accountly/internal/observability"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis channel carrying account lifecycle events.
const EventsChannel = "accounts:events"

// UserCreatedEvent is published after a successful registration. Delivery is
// fire-and-forget; a lost event never rolls back the registration.
type UserCreatedEvent struct {
	Event      string    `json:"event"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	VerifyLink string    `json:"verify_link"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier provides helpers to publish events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish marshals payload to JSON and publishes it on the events channel.
// A nil Redis client makes Publish a no-op.
func (n *Notifier) Publish(ctx context.Context, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := n.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		observability.NotifierPublishErrors.Inc()
		return err
	}
	return nil
}

// PublishUserCreated publishes a user.created event.
func (n *Notifier) PublishUserCreated(ctx context.Context, userID, email, verifyLink string) error {
	return n.Publish(ctx, UserCreatedEvent{
		Event:      "user.created",
		UserID:     userID,
		Email:      email,
		VerifyLink: verifyLink,
		OccurredAt: time.Now().UTC(),
	})
}

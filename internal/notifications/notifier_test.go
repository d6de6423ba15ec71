package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	t.Parallel()

	// Registration must not fail just because Redis is down.
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUserCreated(context.Background(), "u1", "jane@example.com", "http://localhost/verify"))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.Publish(context.Background(), "payload"))
}

func TestNotifier_PublishUserCreated(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	sub := rdb.Subscribe(context.Background(), EventsChannel)
	defer func() { _ = sub.Close() }()

	// Wait for the subscription to be established before publishing.
	_, err = sub.Receive(context.Background())
	require.NoError(t, err)

	n := NewNotifier(rdb)
	require.NoError(t, n.PublishUserCreated(context.Background(),
		"u1", "jane@example.com", "http://localhost:8080/v1/user/verify?token=abc"))

	select {
	case msg := <-sub.Channel():
		var event UserCreatedEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "user.created", event.Event)
		assert.Equal(t, "u1", event.UserID)
		assert.Equal(t, "jane@example.com", event.Email)
		assert.Equal(t, "http://localhost:8080/v1/user/verify?token=abc", event.VerifyLink)
		assert.False(t, event.OccurredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for user.created event")
	}
}

func TestNotifier_PublishUnmarshalablePayload(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	assert.Error(t, n.Publish(context.Background(), make(chan int)))
}

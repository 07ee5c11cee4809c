package events

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

func TestRedisRelayPublishesJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	relay, err := NewRedisRelay(ctx, "redis://"+mr.Addr(), "test:events")
	require.NoError(t, err)
	defer relay.Close()

	listener := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer listener.Close()

	pubsub := listener.Subscribe(ctx, relay.Channel())
	defer pubsub.Close()
	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	hub := NewHub()
	hub.AddSink(relay)
	hub.Publish(New(TypeLog, LogEntry{Type: LogSuccess, Message: "Added 919876543210"}))

	select {
	case msg := <-pubsub.Channel():
		var got struct {
			Type    string   `json:"type"`
			Payload LogEntry `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, TypeLog, got.Type)
		assert.Equal(t, "Added 919876543210", got.Payload.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed event")
	}
}

func TestNewRedisRelayRejectsBadURL(t *testing.T) {
	_, err := NewRedisRelay(context.Background(), "not a url", "")
	assert.Error(t, err)
}

func TestNewRedisRelayDefaultsChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	relay := NewRedisRelayWithClient(client, "")
	assert.Equal(t, DefaultRelayChannel, relay.Channel())
}

func TestRedisRelayPing(t *testing.T) {
	mr := miniredis.RunT(t)

	relay, err := NewRedisRelay(context.Background(), "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer relay.Close()

	assert.NoError(t, relay.Ping())
	mr.Close()
	assert.Error(t, relay.Ping())
}

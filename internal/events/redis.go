package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultRelayChannel is the Redis channel events are relayed to
const DefaultRelayChannel = "wa-group-importer:events"

// RedisRelay republishes hub events on a Redis channel so observers outside
// this process can follow a running import.
type RedisRelay struct {
	client  *redis.Client
	channel string
	timeout time.Duration
}

// NewRedisRelay connects to Redis and verifies the connection with PING
func NewRedisRelay(ctx context.Context, url, channel string) (*RedisRelay, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return NewRedisRelayWithClient(client, channel), nil
}

// NewRedisRelayWithClient wraps an existing client
func NewRedisRelayWithClient(client *redis.Client, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
	}
}

// Forward publishes evt as JSON. Failures are logged and the event is lost.
func (r *RedisRelay) Forward(evt Event) {
	body, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("event", evt.Type).Msg("failed to encode event for relay")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		log.Warn().Err(err).Str("event", evt.Type).Str("channel", r.channel).Msg("failed to relay event")
	}
}

// Channel returns the Redis channel name
func (r *RedisRelay) Channel() string {
	return r.channel
}

// Close releases the Redis connection
func (r *RedisRelay) Close() error {
	return r.client.Close()
}

// Ping checks the Redis connection
func (r *RedisRelay) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

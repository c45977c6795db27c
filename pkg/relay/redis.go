package relay

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/go-redis/redis/v8"
)

// redisPublisher is the slice of *redis.Client the dispatcher needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisDispatcher publishes event payloads over Redis pub/sub. The
// target address is a redis:// URL; the channel is the normalized
// event key, so subscribers pick channels per event.
type RedisDispatcher struct {
	target Target
	client redisPublisher
}

// NewRedisDispatcher creates a dispatcher for a redis target.
func NewRedisDispatcher(target Target) (*RedisDispatcher, error) {
	opts, err := redis.ParseURL(target.Address)
	if err != nil {
		return nil, &TargetConfigError{
			Field:   "address",
			Message: fmt.Sprintf("invalid redis address %q: %v", target.Address, err),
		}
	}

	return &RedisDispatcher{target: target, client: redis.NewClient(opts)}, nil
}

// Dispatch implements Dispatcher.
func (d *RedisDispatcher) Dispatch(ctx context.Context, event string, args Args, kwargs KWArgs) error {
	payload, err := json.Marshal(NewPayload(event, args, kwargs))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	if err := d.client.Publish(ctx, event, payload).Err(); err != nil {
		return fmt.Errorf("redis publish on %q: %w", event, err)
	}
	return nil
}

// Close implements io.Closer.
func (d *RedisDispatcher) Close() error {
	return d.client.Close()
}

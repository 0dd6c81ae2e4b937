package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBus fans events out over redis pub/sub so any node can serve the
// monitor socket.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, sessionID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events.RedisBus.Publish: %w", err)
	}
	if err := b.rdb.Publish(ctx, Channel(sessionID), payload).Err(); err != nil {
		return fmt.Errorf("events.RedisBus.Publish: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error) {
	sub := b.rdb.Subscribe(ctx, Channel(sessionID))

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("events.RedisBus.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { _ = sub.Close() }, nil
}

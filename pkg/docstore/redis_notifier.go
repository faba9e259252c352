package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier fans document change signals out over Redis pub/sub.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

// NewRedisNotifier constructs a notifier publishing on "<prefix><path>".
func NewRedisNotifier(client *redis.Client, prefix string) *RedisNotifier {
	if prefix == "" {
		prefix = "docstore:"
	}
	return &RedisNotifier{client: client, prefix: prefix}
}

// Publish implements Notifier.
func (n *RedisNotifier) Publish(ctx context.Context, path string) error {
	if err := n.client.Publish(ctx, n.prefix+path, "changed").Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", path, err)
	}
	return nil
}

// Listen implements Notifier.
func (n *RedisNotifier) Listen(ctx context.Context, path string, onSignal func()) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := n.client.Subscribe(ctx, n.prefix+path)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", path, err)
	}
	messages := pubsub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				onSignal()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = pubsub.Close()
		})
	}, nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"oip/quotesync/internal/framework"
)

// PubSub Redis publish/subscribe client. It is the default transport of the jobs channel:
// the API server publishes job descriptors, the worker consumes them through MessageSource.
type PubSub struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

// NewPubSub connects to Redis and verifies the connection.
func NewPubSub(addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewPubSubFromClient(client), nil
}

// NewPubSubFromClient wraps an existing client.
func NewPubSubFromClient(client *redis.Client) *PubSub {
	return &PubSub{
		client: client,
		subs:   make(map[string]*redis.PubSub),
	}
}

// Client exposes the underlying client so other Redis backed services share one pool.
func (p *PubSub) Client() *redis.Client {
	return p.client
}

// Publish sends data on channel and returns the number of subscribers that received it.
func (p *PubSub) Publish(ctx context.Context, channel string, data []byte) (int64, error) {
	receivers, err := p.client.Publish(ctx, channel, data).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return receivers, nil
}

// subscription returns the (lazily created) subscription of channel
func (p *PubSub) subscription(ctx context.Context, channel string) *redis.PubSub {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.subs[channel]
	if !ok {
		sub = p.client.Subscribe(ctx, channel)
		p.subs[channel] = sub
	}
	return sub
}

// Consume implements framework.MessageSource. It waits up to timeout for one message;
// (nil, nil) means nothing arrived. ttr has no meaning for pub/sub.
func (p *PubSub) Consume(ctx context.Context, queue string, timeout, ttr time.Duration) (*framework.Message, error) {
	sub := p.subscription(ctx, queue)

	received, err := sub.ReceiveTimeout(ctx, timeout)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil
		}
		return nil, fmt.Errorf("redis receive failed: %w", err)
	}

	switch msg := received.(type) {
	case *redis.Message:
		// pub/sub deliveries carry no id of their own
		return &framework.Message{
			ID:    uuid.New().String(),
			Queue: msg.Channel,
			Data:  []byte(msg.Payload),
			Extra: make(map[string]interface{}),
		}, nil
	default:
		// subscription confirmations and pongs
		return nil, nil
	}
}

// Ack implements framework.MessageSource. Pub/sub has nothing to acknowledge.
func (p *PubSub) Ack(ctx context.Context, queue string, jobID string) error {
	return nil
}

// Close drops all subscriptions and the connection pool.
func (p *PubSub) Close() error {
	p.mu.Lock()
	for channel, sub := range p.subs {
		_ = sub.Close()
		delete(p.subs, channel)
	}
	p.mu.Unlock()

	return p.client.Close()
}

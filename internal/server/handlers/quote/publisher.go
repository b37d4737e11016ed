package quote

import (
	"context"
	"time"

	"oip/quotesync/pkg/infra/redis"
	"oip/quotesync/pkg/lmstfy"
)

// RedisPublisher publishes on a Redis Pub/Sub channel
type RedisPublisher struct {
	pubsub  *redis.PubSub
	channel string
}

func NewRedisPublisher(pubsub *redis.PubSub, channel string) *RedisPublisher {
	return &RedisPublisher{pubsub: pubsub, channel: channel}
}

// PublishJob succeeds even when no worker is subscribed; the job is then lost,
// which is the delivery model of Pub/Sub.
func (p *RedisPublisher) PublishJob(ctx context.Context, data []byte) error {
	_, err := p.pubsub.Publish(ctx, p.channel, data)
	return err
}

// LmstfyPublisher publishes on an lmstfy queue
type LmstfyPublisher struct {
	client *lmstfy.Client
	queue  string
	ttl    time.Duration
}

func NewLmstfyPublisher(client *lmstfy.Client, queue string, ttl time.Duration) *LmstfyPublisher {
	return &LmstfyPublisher{client: client, queue: queue, ttl: ttl}
}

func (p *LmstfyPublisher) PublishJob(ctx context.Context, data []byte) error {
	_, err := p.client.Publish(ctx, p.queue, data, p.ttl)
	return err
}

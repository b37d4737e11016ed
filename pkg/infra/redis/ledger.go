package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ledgerKeyPrefix = "quotesync:committed_job:"

	claimedValue = "claimed"
)

// JobLedger dedup.Ledger backed by expiring Redis keys
type JobLedger struct {
	client *redis.Client
	ttl    time.Duration
	lease  time.Duration
}

// NewJobLedger creates a ledger whose claims expire after lease and marks after ttl.
func NewJobLedger(client *redis.Client, ttl, lease time.Duration) *JobLedger {
	return &JobLedger{client: client, ttl: ttl, lease: lease}
}

func (l *JobLedger) Seen(ctx context.Context, jobID string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKeyPrefix+jobID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// Claim is a SET NX, so exactly one of concurrent deliveries wins.
func (l *JobLedger) Claim(ctx context.Context, jobID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKeyPrefix+jobID, claimedValue, l.lease).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (l *JobLedger) Mark(ctx context.Context, jobID string) error {
	if err := l.client.Set(ctx, ledgerKeyPrefix+jobID, time.Now().Unix(), l.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (l *JobLedger) Release(ctx context.Context, jobID string) error {
	if err := l.client.Del(ctx, ledgerKeyPrefix+jobID).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

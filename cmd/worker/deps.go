package main

import (
	"context"
	"fmt"

	"oip/quotesync/internal/domains/common"
	"oip/quotesync/internal/framework"
	"oip/quotesync/pkg/callback"
	"oip/quotesync/pkg/config"
	"oip/quotesync/pkg/dataapi"
	"oip/quotesync/pkg/dedup"
	"oip/quotesync/pkg/infra/redis"
	"oip/quotesync/pkg/infra/sqldb"
	"oip/quotesync/pkg/lmstfy"
	"oip/quotesync/pkg/logger"
)

// components everything the worker builds once at startup
type components struct {
	source  framework.MessageSource
	deps    *common.Deps
	closers []func() error
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func buildComponents(cfg *config.Config, log logger.Logger) (*components, error) {
	c := &components{}

	var pubsub *redis.PubSub
	needRedis := cfg.Queue.Driver == config.QueueDriverRedis || cfg.Dedup.Driver == config.DedupDriverRedis
	if needRedis {
		ps, err := redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		pubsub = ps
		c.closers = append(c.closers, ps.Close)
	}

	switch cfg.Queue.Driver {
	case config.QueueDriverLmstfy:
		client, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create lmstfy client: %w", err)
		}
		c.source = client
	default:
		c.source = pubsub
	}

	ledger, err := buildLedger(cfg, pubsub, c, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	dataClient := dataapi.NewClient(cfg.DataAPI.InstanceURL, cfg.DataAPI.APIVersion, cfg.DataAPI.AccessToken,
		dataapi.WithAllOrNone(cfg.DataAPI.AllOrNone),
		dataapi.WithTimeout(cfg.DataAPI.Timeout),
	)

	c.deps = &common.Deps{
		Querier:   dataClient,
		Committer: dataClient,
		Notifier:  callback.NewHTTPNotifier(cfg.Callback.Timeout, log),
		Ledger:    ledger,
		Pricing:   cfg.Pricing,
		Logger:    log,
	}
	return c, nil
}

func buildLedger(cfg *config.Config, pubsub *redis.PubSub, c *components, log logger.Logger) (dedup.Ledger, error) {
	switch cfg.Dedup.Driver {
	case config.DedupDriverRedis:
		return redis.NewJobLedger(pubsub.Client(), cfg.Dedup.TTL, cfg.Dedup.Lease), nil
	case config.DedupDriverMySQL, config.DedupDriverPostgres:
		db, err := sqldb.Open(cfg.Dedup.Driver, cfg.Dedup.DSN)
		if err != nil {
			return nil, err
		}
		ledger, err := sqldb.NewJobLedger(db, cfg.Dedup.TTL, cfg.Dedup.Lease)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, ledger.Close)
		if n, err := ledger.Purge(context.Background()); err != nil {
			log.Warnf(context.Background(), "[Worker] Failed to purge expired ledger rows: %v", err)
		} else if n > 0 {
			log.Infof(context.Background(), "[Worker] Purged %d expired ledger rows", n)
		}
		return ledger, nil
	case config.DedupDriverMemory:
		return dedup.NewMemory(cfg.Dedup.TTL, cfg.Dedup.Lease), nil
	default:
		return dedup.Nop{}, nil
	}
}

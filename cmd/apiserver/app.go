package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"oip/quotesync/internal/business/quote/services"
	"oip/quotesync/internal/server/handlers/quote"
	"oip/quotesync/internal/server/routers"
	"oip/quotesync/pkg/config"
	"oip/quotesync/pkg/dataapi"
	"oip/quotesync/pkg/infra/redis"
	"oip/quotesync/pkg/lmstfy"
	"oip/quotesync/pkg/logger"
)

// jobTTL how long an lmstfy job may wait for a worker
const jobTTL = 24 * time.Hour

// App the API server
type App struct {
	Engine *gin.Engine
}

// InitializeApp wires the publisher, the sync quote generator and the routes.
func InitializeApp(cfg *config.Config, log logger.Logger) (*App, func(), error) {
	var (
		publisher quote.JobPublisher
		cleanup   = func() {}
	)

	switch cfg.Queue.Driver {
	case config.QueueDriverLmstfy:
		client, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create lmstfy client: %w", err)
		}
		publisher = quote.NewLmstfyPublisher(client, cfg.Queue.Channel, jobTTL)
	default:
		pubsub, err := redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		publisher = quote.NewRedisPublisher(pubsub, cfg.Queue.Channel)
		cleanup = func() { _ = pubsub.Close() }
	}

	dataClient := dataapi.NewClient(cfg.DataAPI.InstanceURL, cfg.DataAPI.APIVersion, cfg.DataAPI.AccessToken,
		dataapi.WithAllOrNone(cfg.DataAPI.AllOrNone),
		dataapi.WithTimeout(cfg.DataAPI.Timeout),
	)
	policy := services.NewDiscountPolicy(cfg.Pricing)

	// each request acts with the caller's own token
	generators := func(accessToken string) quote.Generator {
		client := dataClient.WithAccessToken(accessToken)
		return services.NewQuoteGenerator(client, client, policy)
	}

	handler := quote.NewQuoteHandler(generators, publisher, log)
	return &App{Engine: routers.SetupRoutes(handler, log)}, cleanup, nil
}

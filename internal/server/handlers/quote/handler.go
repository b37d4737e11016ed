package quote

import (
	"context"

	"oip/quotesync/pkg/logger"
)

// Generator creates one quote synchronously
type Generator interface {
	Generate(ctx context.Context, opportunityID string) (string, error)
}

// GeneratorFactory builds a Generator acting with the caller's access token
type GeneratorFactory func(accessToken string) Generator

// JobPublisher puts a job descriptor on the jobs channel
type JobPublisher interface {
	PublishJob(ctx context.Context, data []byte) error
}

// QuoteHandler HTTP handlers of the quote endpoints
type QuoteHandler struct {
	generators GeneratorFactory
	publisher  JobPublisher
	logger     logger.Logger
}

func NewQuoteHandler(generators GeneratorFactory, publisher JobPublisher, log logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		generators: generators,
		publisher:  publisher,
		logger:     log,
	}
}

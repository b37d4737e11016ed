package framework

import (
	"context"
	"time"
)

// MessageSource adapts a queue transport (Redis Pub/Sub, lmstfy) to the Subscriber.
type MessageSource interface {
	// Consume blocks until a message arrives or timeout elapses; (nil, nil) on timeout.
	Consume(ctx context.Context, queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	// Ack removes the message from the transport.
	Ack(ctx context.Context, queue string, jobID string) error
}

// Logger logging interface used by the framework
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
}

// ProcessorFunc one step of a handler chain
type ProcessorFunc func(ctx context.Context) error

// BusinessHandler handles one parsed job
type BusinessHandler interface {
	Handle(ctx context.Context) ([]byte, error)
}

// Resulter stores the outcome a handler produces
type Resulter interface {
	Set(ctx context.Context, data interface{}) error
	Get(ctx context.Context) interface{}
}

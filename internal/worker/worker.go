package worker

import (
	"context"
	"fmt"

	"oip/quotesync/internal/framework"
	"oip/quotesync/pkg/lmstfyx"
	"oip/quotesync/pkg/logger"
)

// Worker one subscriber/processor pair
type Worker interface {
	Start() error
	Shutdown()
	GetName() string
}

// WorkerInstance pipes a Subscriber into a Processor through a buffered channel.
type WorkerInstance struct {
	ctx        context.Context
	name       string
	subscriber *framework.Subscriber
	processor  *framework.Processor
	inputChan  chan *framework.Message
	shutdownCh chan struct{}
	logger     logger.Logger
}

// NewWorkerInstance creates a worker around source and proc
func NewWorkerInstance(
	ctx context.Context,
	name string,
	subscriberCfg *framework.SubscriberConfig,
	processorCfg *framework.ProcessorConfig,
	source framework.MessageSource,
	proc lmstfyx.Proc,
	log logger.Logger,
) (Worker, error) {
	if source == nil {
		return nil, fmt.Errorf("worker %s: message source is required", name)
	}
	if proc == nil {
		return nil, fmt.Errorf("worker %s: proc is required", name)
	}

	return &WorkerInstance{
		ctx:        ctx,
		name:       name,
		subscriber: framework.NewSubscriber(subscriberCfg, source, log),
		processor:  framework.NewProcessor(processorCfg, proc, source, log),
		inputChan:  make(chan *framework.Message, processorCfg.BufferSize),
		shutdownCh: make(chan struct{}),
		logger:     log,
	}, nil
}

// Start runs the worker and blocks until Shutdown completes
func (w *WorkerInstance) Start() error {
	w.logger.Infof(w.ctx, "[Worker] %s started", w.name)

	if err := w.processor.Start(w.ctx, w.inputChan); err != nil {
		return fmt.Errorf("worker %s: start processor: %w", w.name, err)
	}
	if err := w.subscriber.Start(w.ctx, w.inputChan); err != nil {
		return fmt.Errorf("worker %s: start subscriber: %w", w.name, err)
	}

	<-w.shutdownCh
	return nil
}

// Shutdown stops receiving, lets the processor drain and waits for it.
func (w *WorkerInstance) Shutdown() {
	w.logger.Infof(w.ctx, "[Worker] %s began to close", w.name)

	w.subscriber.Stop()
	w.subscriber.Wait()

	w.processor.SignalShutdown()
	w.processor.Wait()

	close(w.shutdownCh)
	w.logger.Infof(w.ctx, "[Worker] %s shutdown complete", w.name)
}

func (w *WorkerInstance) GetName() string {
	return w.name
}

package framework

import (
	"context"
	"sync"
	"time"
)

// Subscriber pulls messages from a MessageSource and hands them to the Processor.
type Subscriber struct {
	cfg        *SubscriberConfig
	source     MessageSource
	logger     Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSubscriber creates a subscriber
func NewSubscriber(cfg *SubscriberConfig, source MessageSource, logger Logger) *Subscriber {
	return &Subscriber{
		cfg:    cfg,
		source: source,
		logger: logger,
	}
}

// Start launches the receive goroutines under a child of parentCtx
func (s *Subscriber) Start(parentCtx context.Context, inputChan chan<- *Message) error {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel

	s.logger.Infof(ctx, "[Subscriber] Starting with %d workers for queue: %s",
		s.cfg.Concurrency, s.cfg.QueueName)

	for i := 0; i < s.cfg.Concurrency; i++ {
		workerID := i
		s.wg.Add(1)
		go s.loop(ctx, workerID, inputChan)
	}

	return nil
}

// Stop stops receiving new messages
func (s *Subscriber) Stop() {
	s.logger.Infof(context.Background(), "[Subscriber] Stopping...")
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
}

// Wait blocks until every receive goroutine returned
func (s *Subscriber) Wait() {
	s.wg.Wait()
	s.logger.Infof(context.Background(), "[Subscriber] All workers exited")
}

func (s *Subscriber) loop(ctx context.Context, workerID int, inputChan chan<- *Message) {
	defer s.wg.Done()
	s.logger.Infof(ctx, "[Subscriber-%d] Started", workerID)

	for {
		if ctx.Err() != nil {
			s.logger.Infof(ctx, "[Subscriber-%d] Context cancelled, exiting", workerID)
			return
		}

		msg, err := s.source.Consume(ctx, s.cfg.QueueName, s.cfg.Timeout, s.cfg.TTR)
		if err != nil {
			// transient transport errors do not stop the loop
			s.logger.Warnf(ctx, "[Subscriber-%d] Consume error: %v, retrying...", workerID, err)
			if !s.sleep(ctx, s.cfg.ErrorBackoff) {
				s.logger.Infof(ctx, "[Subscriber-%d] Context cancelled, exiting", workerID)
				return
			}
			continue
		}

		// timed out without a message
		if msg == nil {
			continue
		}

		select {
		case inputChan <- msg:
			s.logger.Debugf(ctx, "[Subscriber-%d] Message sent: %s", workerID, msg.ID)

		case <-ctx.Done():
			s.logger.Warnf(ctx, "[Subscriber-%d] Dropping message due to shutdown: %s", workerID, msg.ID)
			return
		}

		if !s.sleep(ctx, s.cfg.Rate) {
			s.logger.Infof(ctx, "[Subscriber-%d] Context cancelled, exiting", workerID)
			return
		}
	}
}

// sleep waits d and reports false when ctx ended first
func (s *Subscriber) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

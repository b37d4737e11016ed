package framework

import (
	"context"
	"sync"
	"time"

	"github.com/bitleak/lmstfy/client"

	"oip/quotesync/pkg/lmstfyx"
	"oip/quotesync/pkg/logger"
)

// Processor takes messages off inputChan, runs the injected Proc and acknowledges them.
// Every message is acknowledged exactly once whatever the Proc decides: jobs are never re-queued.
type Processor struct {
	cfg        *ProcessorConfig
	proc       lmstfyx.Proc
	source     MessageSource
	logger     Logger
	shutdownCh chan struct{}
	shutdown   sync.Once
	wg         sync.WaitGroup
}

// NewProcessor creates a processor
func NewProcessor(cfg *ProcessorConfig, proc lmstfyx.Proc, source MessageSource, logger Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		proc:       proc,
		source:     source,
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}
}

// Start launches cfg.Concurrency processing goroutines
func (p *Processor) Start(ctx context.Context, inputChan <-chan *Message) error {
	p.logger.Infof(ctx, "[Processor] Starting with %d workers", p.cfg.Concurrency)

	for i := 0; i < p.cfg.Concurrency; i++ {
		workerID := i
		p.wg.Add(1)
		go p.loop(ctx, workerID, inputChan)
	}

	return nil
}

// SignalShutdown switches the goroutines to drain mode
func (p *Processor) SignalShutdown() {
	p.shutdown.Do(func() {
		p.logger.Infof(context.Background(), "[Processor] Shutdown signal received")
		close(p.shutdownCh)
	})
}

// Wait blocks until every goroutine returned
func (p *Processor) Wait() {
	p.wg.Wait()
	p.logger.Infof(context.Background(), "[Processor] All workers exited")
}

func (p *Processor) loop(ctx context.Context, workerID int, inputChan <-chan *Message) {
	defer p.wg.Done()
	p.logger.Infof(ctx, "[Processor-%d] Started", workerID)

	for {
		select {
		case msg := <-inputChan:
			p.process(ctx, msg, workerID)

		case <-p.shutdownCh:
			// drain what the subscriber already handed over, then exit
			p.logger.Infof(ctx, "[Processor-%d] Entering DRAIN mode", workerID)
			count := 0
			for {
				select {
				case msg := <-inputChan:
					p.process(ctx, msg, workerID)
					count++
				default:
					p.logger.Infof(ctx, "[Processor-%d] Drained %d messages, exiting", workerID, count)
					return
				}
			}
		}
	}
}

// process handles one message
func (p *Processor) process(ctx context.Context, msg *Message, workerID int) {
	if msg == nil {
		return
	}

	startTime := time.Now()

	procCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	procCtx = logger.WithWorkerID(procCtx, workerID)
	procCtx = logger.WithMessageID(procCtx, msg.ID)

	p.logger.Debugf(procCtx, "[Processor-%d] Processing message: %s", workerID, msg.ID)

	job := &client.Job{
		ID:    msg.ID,
		Queue: msg.Queue,
		Data:  msg.Data,
	}

	action := lmstfyx.JobRespStatusDrop
	if resp := p.proc(procCtx, job); resp != nil {
		action = resp.Action
	}

	// the handler deadline must not prevent the ack
	if err := p.source.Ack(context.WithoutCancel(procCtx), msg.Queue, msg.ID); err != nil {
		p.logger.Warnf(procCtx, "[Processor-%d] Ack failed for %s: %v", workerID, msg.ID, err)
	}

	p.logger.Infof(procCtx, "[Processor-%d] Message processed: %s, action: %s, duration: %v",
		workerID, msg.ID, action, time.Since(startTime))
}

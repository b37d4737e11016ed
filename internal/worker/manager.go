package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"oip/quotesync/internal/framework"
	"oip/quotesync/pkg/config"
	"oip/quotesync/pkg/lmstfyx"
	"oip/quotesync/pkg/logger"
)

// Manager owns the workers of the process
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance starts every configured worker on the jobs channel.
type ManagerInstance struct {
	ctx        context.Context
	cfg        *config.Config
	source     framework.MessageSource
	proc       lmstfyx.Proc
	workers    []Worker
	closing    *atomic.Bool
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex // guards workers
	logger     logger.Logger
}

// NewManagerInstance creates a manager; source and proc are shared by all workers.
func NewManagerInstance(cfg *config.Config, source framework.MessageSource, proc lmstfyx.Proc, log logger.Logger) (Manager, error) {
	if cfg.Queue.Channel == "" {
		return nil, fmt.Errorf("queue.channel is required")
	}

	return &ManagerInstance{
		ctx:        context.Background(),
		cfg:        cfg,
		source:     source,
		proc:       proc,
		closing:    atomic.NewBool(false),
		shutdownCh: make(chan struct{}),
		workers:    make([]Worker, 0, len(cfg.Workers)),
		logger:     log,
	}, nil
}

// Start loads the workers, starts them and blocks until Shutdown
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting on %s channel %s", m.cfg.Queue.Driver, m.cfg.Queue.Channel)

	m.mu.Lock()
	if m.closing.Load() {
		m.mu.Unlock()
		return nil
	}
	if err := m.loadWorkers(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to load workers: %w", err)
	}

	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := w.Start(); err != nil {
				m.logger.Errorf(m.ctx, "[Manager] Worker %s failed: %v", w.GetName(), err)
			}
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}
	m.mu.Unlock()

	<-m.shutdownCh
	return nil
}

// Shutdown stops all workers once; later calls are no-ops
func (m *ManagerInstance) Shutdown() {
	if !m.closing.CAS(false, true) {
		return
	}
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	m.mu.Lock()
	for _, worker := range m.workers {
		m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
		worker.Shutdown()
	}
	m.mu.Unlock()
	m.wg.Wait()

	close(m.shutdownCh)
	m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
}

func (m *ManagerInstance) loadWorkers() error {
	for _, workerCfg := range m.cfg.Workers {
		subCfg := &framework.SubscriberConfig{
			QueueName:    m.cfg.Queue.Channel,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}
		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		worker, err := NewWorkerInstance(m.ctx, workerCfg.Name, subCfg, procCfg, m.source, m.proc, m.logger)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}
		m.workers = append(m.workers, worker)
	}

	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"oip/quotesync/internal/domains"
	"oip/quotesync/internal/worker"
	"oip/quotesync/pkg/config"
	"oip/quotesync/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/worker.yaml", "config file path")
)

func main() {
	flag.Parse()

	log.Println("========================================")
	log.Println("  QUOTESYNC Worker Starting...")
	log.Println("========================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	log.Printf("Config loaded: %s, env: %s, log_level: %s\n", cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	comps, err := buildComponents(cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to build components: %v", err)
	}
	defer comps.Close()

	mgr, err := worker.NewManagerInstance(cfg, comps.source, domains.GetProcess(comps.deps), zapLogger)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.Handler()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(mgr.Start)
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("  Shutting down Worker...")
		mgr.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	zapLogger.Infof(ctx, "Worker started for job types [%s] on %s. Press Ctrl+C to shutdown.",
		domains.JobTypes(), cfg.Queue.Channel)

	if err := g.Wait(); err != nil {
		log.Printf("Worker stopped with error: %v", err)
	}

	log.Println("========================================")
	log.Println("  Worker exited gracefully")
	log.Println("========================================")
}

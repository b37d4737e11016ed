package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bitleak/lmstfy/client"

	"oip/quotesync/internal/domains"
	"oip/quotesync/internal/domains/common"
	"oip/quotesync/internal/framework"
	"oip/quotesync/pkg/callback"
	"oip/quotesync/pkg/config"
	"oip/quotesync/pkg/dataapi"
	"oip/quotesync/pkg/dedup"
	"oip/quotesync/pkg/lmstfyx"
	"oip/quotesync/pkg/logger"
)

var (
	configPath   = flag.String("config", "./config/worker.yaml", "config file path")
	testcasePath = flag.String("testcase", "./tools/fasttest/testcase/quote.json", "job descriptors to run")
	dryRun       = flag.Bool("dry-run", false, "print the unit of work instead of committing it")
)

// fasttest runs job descriptors through the worker pipeline in-process, without a queue.
func main() {
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("  FastTest - quote worker pipeline")
	fmt.Println("========================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	jobs, err := loadTestCases(*testcasePath)
	if err != nil {
		fmt.Printf("Failed to load test cases: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d test cases from %s\n", len(jobs), *testcasePath)

	log, err := logger.NewZapLogger("debug")
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dataClient := dataapi.NewClient(cfg.DataAPI.InstanceURL, cfg.DataAPI.APIVersion, cfg.DataAPI.AccessToken,
		dataapi.WithAllOrNone(cfg.DataAPI.AllOrNone),
		dataapi.WithTimeout(cfg.DataAPI.Timeout),
	)

	var committer dataapi.Committer = dataClient
	if *dryRun {
		committer = &printingCommitter{}
	}

	proc := domains.GetProcess(&common.Deps{
		Querier:   dataClient,
		Committer: committer,
		Notifier:  callback.NewHTTPNotifier(cfg.Callback.Timeout, log),
		Ledger:    dedup.Nop{},
		Pricing:   cfg.Pricing,
		Logger:    log,
	})

	failed := 0
	for i, job := range jobs {
		data, err := json.Marshal(job)
		if err != nil {
			fmt.Printf("[%d] marshal failed: %v\n", i, err)
			failed++
			continue
		}

		start := time.Now()
		resp := proc(context.Background(), &client.Job{ID: fmt.Sprintf("fasttest-%d", i), Data: data})
		fmt.Printf("[%d] job %s: %s in %v\n%s\n", i, job.JobID, resp.Action, time.Since(start), resp.Data)
		if resp.Action != lmstfyx.JobRespStatusSuccess {
			failed++
		}
	}

	fmt.Printf("Done: %d passed, %d failed\n", len(jobs)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func loadTestCases(path string) ([]framework.JobDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var jobs []framework.JobDescriptor
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return jobs, nil
}

// printingCommitter prints intents and pretends every one was created
type printingCommitter struct{}

func (printingCommitter) Commit(ctx context.Context, uow *dataapi.UnitOfWork) (dataapi.CommitResultSet, error) {
	results := dataapi.CommitResultSet{}
	for _, intent := range uow.Intents() {
		fields, err := uow.Resolve(intent)
		if err != nil {
			return nil, err
		}
		out, _ := json.Marshal(fields)
		fmt.Printf("  %s %s %s\n", intent.Ref.ReferenceID(), intent.Type, out)
		results[intent.Ref] = dataapi.CommitResult{ID: "dry-" + intent.Ref.ReferenceID()}
	}
	return results, nil
}

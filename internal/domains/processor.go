package domains

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bitleak/lmstfy/client"

	"oip/quotesync/internal/domains/common"
	"oip/quotesync/internal/framework"
	"oip/quotesync/pkg/errorutil"
	"oip/quotesync/pkg/lmstfyx"
	"oip/quotesync/pkg/logger"
	"oip/quotesync/pkg/metrics"
)

const unknownJobType = "unknown"

// GetProcess returns the Proc injected into the Processor.
// It never lets a job failure escape: every outcome maps to Success or Drop.
func GetProcess(deps *common.Deps) lmstfyx.Proc {
	return func(ctx context.Context, lmstfyJob *client.Job) (resp *lmstfyx.JobResp) {
		log := deps.Logger
		startTime := time.Now()
		jobType := unknownJobType

		defer func() {
			if r := recover(); r != nil {
				log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
				resp = lmstfyx.Drop(nil)
			}
			outcome := metrics.OutcomeSucceeded
			if resp.Action == lmstfyx.JobRespStatusDrop {
				outcome = metrics.OutcomeDropped
			}
			metrics.JobsProcessed.WithLabelValues(jobType, outcome).Inc()
			metrics.JobDuration.WithLabelValues(jobType).Observe(time.Since(startTime).Seconds())
		}()

		// 1. parse
		job, err := framework.ParseJob(lmstfyJob.Data)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] Failed to parse job message %s: %v", lmstfyJob.ID, err)
			return lmstfyx.Drop(nil)
		}
		ctx = logger.WithJobID(ctx, job.JobID)
		ctx = logger.WithJobType(ctx, job.JobType)

		// 2. route
		factory, ok := HandlerMap[job.JobType]
		if !ok {
			log.Warnf(ctx, "[GetProcess] Received job with unknown jobType: %s", job.JobType)
			return lmstfyx.Drop(nil)
		}
		jobType = job.JobType

		log.Infof(ctx, "[GetProcess] Routing job %s to %s handler", job.JobID, job.JobType)

		// 3. handle
		handler, err := factory(ctx, framework.NewBaseHandler(job, lmstfyJob.Data), deps)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
			return lmstfyx.Drop(nil)
		}

		data, err := handler.Handle(ctx)
		if err != nil {
			jobErr := errorutil.Wrap(err)
			log.Errorf(ctx, "[GetProcess] Error executing batch for job %s: %v (retryable=%t)",
				job.JobID, jobErr.Message, jobErr.Retryable)
			if jobErr.DevDetails != "" {
				log.Debugf(ctx, "[GetProcess] details: %s", jobErr.DevDetails)
			}
			return lmstfyx.Drop(nil)
		}

		log.Infof(ctx, "[GetProcess] Processing complete, duration=%v", time.Since(startTime))
		log.Debugf(ctx, "[GetProcess] response: %s", data)
		return lmstfyx.Success(data)
	}
}

// JobTypes lists the registered job types, sorted
func JobTypes() string {
	types := make([]string, 0, len(HandlerMap))
	for t := range HandlerMap {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(types, ",")
}

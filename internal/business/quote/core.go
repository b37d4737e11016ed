package quote

import (
	"context"
	"errors"
	"fmt"

	"oip/quotesync/internal/business/quote/services"
	"oip/quotesync/pkg/dataapi"
	"oip/quotesync/pkg/errorutil"
	"oip/quotesync/pkg/metrics"
)

// PreProcess validates the descriptor and claims the job in the dedup ledger
func (h *QuoteHandler) PreProcess(ctx context.Context) error {
	job := h.GetJob()
	if len(job.SourceIDs) == 0 {
		return errorutil.NonRetriable(fmt.Sprintf("no sourceIds provided for job %s", job.JobID))
	}

	if h.deps.Ledger == nil {
		return nil
	}
	claimed, err := h.deps.Ledger.Claim(ctx, job.JobID)
	if err != nil {
		// an unavailable ledger must not block the job
		h.deps.Logger.Warnf(ctx, "[QuoteHandler] Dedup claim failed, processing anyway: %v", err)
		return nil
	}
	if !claimed {
		return ErrDuplicateJob
	}
	h.claimed = true
	return nil
}

// Process reads the pricebook and source records, builds one unit of work and commits it
func (h *QuoteHandler) Process(ctx context.Context) error {
	job := h.GetJob()
	log := h.deps.Logger

	log.Infof(ctx, "[QuoteHandler] Received job for %d opportunity ids", len(job.SourceIDs))

	pricebookID, err := services.LoadStandardPricebook(ctx, h.deps.Querier)
	if err != nil {
		return classify("load standard pricebook", err)
	}
	h.pricebookID = pricebookID

	groups, err := services.LoadSourceGroups(ctx, h.deps.Querier, job.SourceIDs)
	if err != nil {
		return classify("load opportunities", err)
	}
	h.result.Missing = missingIDs(job.SourceIDs, groups)
	if len(h.result.Missing) > 0 {
		log.Warnf(ctx, "[QuoteHandler] Opportunities not found: %v", h.result.Missing)
	}

	discount := h.policy.Rate()
	batch, err := services.NewQuoteBuilder(pricebookID, discount).Build(groups)
	if err != nil {
		return classify("build unit of work", err)
	}
	h.batch = batch
	h.result.Skipped = batch.Skipped
	for _, oppID := range batch.Skipped {
		log.Warnf(ctx, "[QuoteHandler] Opportunity %s has no line items, skipping quote creation", oppID)
	}

	if batch.UnitOfWork.IsEmpty() {
		log.Warnf(ctx, "[QuoteHandler] No quotes were registered for creation")
		h.results = dataapi.CommitResultSet{}
	} else {
		log.Infof(ctx, "[QuoteHandler] Submitting unit of work: %d quotes, %d intents, region %s discount %.2f",
			len(batch.Quotes), batch.UnitOfWork.Len(), h.policy.Region(), discount)

		results, err := h.deps.Committer.Commit(ctx, batch.UnitOfWork)
		if err != nil {
			return classify("commit unit of work", err)
		}
		h.results = results
		h.result.Committed = true
	}

	n := services.Reconcile(job.JobID, job.SourceIDs, batch.Quotes, h.results)
	for _, line := range n.Errors {
		log.Errorf(ctx, "[QuoteHandler] %s", line)
	}
	metrics.QuotesReconciled.WithLabelValues(metrics.OutcomeSucceeded).Add(float64(n.Succeeded()))
	metrics.QuotesReconciled.WithLabelValues(metrics.OutcomeFailed).Add(float64(n.Failed()))

	log.Infof(ctx, "[QuoteHandler] Job processing completed: %d succeeded, %d failed", n.Succeeded(), n.Failed())
	h.result.Notification = n
	return nil
}

// PostProcess records the job in the ledger, fills the output and notifies the caller
func (h *QuoteHandler) PostProcess(ctx context.Context) error {
	job := h.GetJob()

	// only a commit that created records makes a redelivery a duplicate
	if h.result.Committed && h.result.Notification.Succeeded() > 0 {
		if h.deps.Ledger != nil {
			if err := h.deps.Ledger.Mark(ctx, job.JobID); err != nil {
				h.deps.Logger.Warnf(ctx, "[QuoteHandler] Dedup mark failed: %v", err)
			}
		}
		h.claimed = false
	} else {
		h.releaseClaim(ctx)
	}

	if err := h.GetResulter().Set(ctx, h.result); err != nil {
		return err
	}
	h.SetOutput(h.GetResulter().Get(ctx))

	if h.deps.Notifier != nil {
		h.deps.Notifier.Notify(ctx, job.CallbackURL, h.result.Notification)
	}
	return nil
}

// releaseClaim lets a later delivery retry a job that created nothing
func (h *QuoteHandler) releaseClaim(ctx context.Context) {
	if !h.claimed || h.deps.Ledger == nil {
		return
	}
	h.claimed = false
	if err := h.deps.Ledger.Release(context.WithoutCancel(ctx), h.GetJob().JobID); err != nil {
		h.deps.Logger.Warnf(ctx, "[QuoteHandler] Dedup release failed: %v", err)
	}
}

// classify wraps a fatal job error with its retry classification
func classify(step string, err error) error {
	var (
		queryErr  *dataapi.QueryError
		commitErr *dataapi.CommitError
		refErr    *dataapi.InvalidReferenceError
	)
	msg := fmt.Sprintf("%s: %v", step, err)

	switch {
	case errors.As(err, &refErr), errors.Is(err, services.ErrPricebookNotFound):
		return wrap(errorutil.NonRetriable(msg), err)
	case errors.As(err, &commitErr):
		if commitErr.StatusCode >= 400 && commitErr.StatusCode < 500 {
			return wrap(errorutil.NonRetriableWithDetails(msg, commitErr.Error()), err)
		}
		return wrap(errorutil.RetriableWithDetails(msg, commitErr.Error()), err)
	case errors.As(err, &queryErr):
		return wrap(errorutil.RetriableWithDetails(msg, queryErr.Query), err)
	default:
		return wrap(errorutil.Retriable(msg), err)
	}
}

// causeError keeps both the classified error and its cause in the chain
type causeError struct {
	classified *errorutil.Error
	cause      error
}

func (e *causeError) Error() string {
	return e.classified.Error()
}

func (e *causeError) Unwrap() []error {
	return []error{e.classified, e.cause}
}

func wrap(classified *errorutil.Error, cause error) error {
	return &causeError{classified: classified, cause: cause}
}

func missingIDs(requested []string, groups []services.SourceGroup) []string {
	found := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		found[g.OpportunityID] = struct{}{}
	}

	var missing []string
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

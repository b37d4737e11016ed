package quote

import (
	"context"
	"errors"

	"oip/quotesync/internal/business/quote/services"
	"oip/quotesync/internal/domains/common"
	"oip/quotesync/internal/framework"
	"oip/quotesync/pkg/dataapi"
)

// ErrDuplicateJob the job id is claimed by another delivery or was committed within the ledger ttl
var ErrDuplicateJob = errors.New("job already committed")

// QuoteHandler handles "quote" jobs: one batch of quotes per job descriptor.
type QuoteHandler struct {
	framework.BaseHandler

	deps   *common.Deps
	policy *services.DiscountPolicy

	pricebookID string
	batch       *services.Batch
	results     dataapi.CommitResultSet
	result      *QuoteResultData
	claimed     bool // the ledger claim of this delivery is held
}

// NewQuoteHandler creates the handler of one quote job.
func NewQuoteHandler(ctx context.Context, baseHandler *framework.BaseHandler, deps *common.Deps) (framework.BusinessHandler, error) {
	if deps == nil || deps.Querier == nil || deps.Committer == nil {
		return nil, errors.New("quote handler needs a querier and a committer")
	}

	handler := &QuoteHandler{
		BaseHandler: *baseHandler,
		deps:        deps,
		policy:      services.NewDiscountPolicy(deps.Pricing),
		result:      &QuoteResultData{},
	}
	handler.SetResulter(NewQuoteResulter())

	return handler, nil
}

// Handle runs PreProcess, Process and PostProcess.
// A duplicate delivery is answered without touching the record store.
func (h *QuoteHandler) Handle(ctx context.Context) ([]byte, error) {
	chain := framework.NewPreProcessor(
		h.PreProcess,
		h.Process,
		h.PostProcess,
	)

	if err := chain.Run(ctx); err != nil {
		if errors.Is(err, ErrDuplicateJob) {
			h.deps.Logger.Infof(ctx, "[QuoteHandler] Job %s already claimed or committed, skipping", h.GetJob().JobID)
			return h.WrapResponse(ctx, map[string]interface{}{"duplicate": true})
		}
		h.releaseClaim(ctx)
		return nil, err
	}

	return h.WrapResponse(ctx, h.GetOutput())
}

package quote

import (
	"context"
	"fmt"
)

// QuoteResulter turns QuoteResultData into QuoteOutput
type QuoteResulter struct {
	srcData *QuoteResultData
	dstData *QuoteOutput
}

func NewQuoteResulter() *QuoteResulter {
	return &QuoteResulter{}
}

func (r *QuoteResulter) Set(ctx context.Context, data interface{}) error {
	resultData, ok := data.(*QuoteResultData)
	if !ok || resultData == nil || resultData.Notification == nil {
		return fmt.Errorf("unexpected result data %T", data)
	}
	r.srcData = resultData

	n := resultData.Notification
	r.dstData = &QuoteOutput{
		JobID:     n.JobID,
		Status:    n.Status,
		Succeeded: n.Succeeded(),
		Failed:    n.Failed(),
		QuoteIDs:  n.QuoteIDs,
		Skipped:   resultData.Skipped,
		Missing:   resultData.Missing,
	}
	return nil
}

func (r *QuoteResulter) Get(ctx context.Context) interface{} {
	return r.dstData
}

package services

import (
	"fmt"
	"strings"

	"oip/quotesync/pkg/dataapi"
)

// Notification statuses
const (
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
)

// Notification the callback payload of one job
type Notification struct {
	JobID     string   `json:"jobId"`
	SourceIDs []string `json:"sourceIds"`
	QuoteIDs  []string `json:"quoteIds"`
	Status    string   `json:"status"`
	Errors    []string `json:"errors"`
}

// Succeeded number of quotes created
func (n *Notification) Succeeded() int {
	return len(n.QuoteIDs)
}

// Failed number of quotes that were not created
func (n *Notification) Failed() int {
	return len(n.Errors)
}

// Reconcile maps commit results back to the opportunities of planned.
// A planned quote counts as created only when its result carries an id;
// an error entry or a missing entry both count as a failure.
func Reconcile(jobID string, sourceIDs []string, planned []PlannedQuote, results dataapi.CommitResultSet) *Notification {
	n := &Notification{
		JobID:     jobID,
		SourceIDs: append([]string{}, sourceIDs...),
		QuoteIDs:  []string{},
		Errors:    []string{},
	}

	for _, pq := range planned {
		result, ok := results.Get(pq.Ref)
		switch {
		case !ok:
			n.Errors = append(n.Errors, fmt.Sprintf("quote for opportunity %s failed: no result returned for %s",
				pq.OpportunityID, pq.Ref.ReferenceID()))
		case result.OK():
			n.QuoteIDs = append(n.QuoteIDs, result.ID)
		case len(result.Errors) > 0:
			n.Errors = append(n.Errors, fmt.Sprintf("quote for opportunity %s failed: %s",
				pq.OpportunityID, strings.Join(result.Errors, "; ")))
		default:
			n.Errors = append(n.Errors, fmt.Sprintf("quote for opportunity %s failed: no id assigned", pq.OpportunityID))
		}
	}

	n.Status = StatusCompleted
	if len(n.Errors) > 0 {
		n.Status = StatusCompletedWithErrors
	}
	return n
}

package quote

import "oip/quotesync/internal/business/quote/services"

// QuoteResultData what a quote job produced
type QuoteResultData struct {
	Notification *services.Notification
	Skipped      []string // opportunities without line items
	Missing      []string // requested opportunities the query did not return
	Committed    bool
}

// QuoteOutput handler output, logged by the dispatcher
type QuoteOutput struct {
	JobID     string   `json:"job_id"`
	Status    string   `json:"status"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	QuoteIDs  []string `json:"quote_ids"`
	Skipped   []string `json:"skipped,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"oip/quotesync/pkg/dataapi"
	"oip/quotesync/pkg/errorx"
)

// QuoteGenerator creates one quote synchronously for a single opportunity.
type QuoteGenerator struct {
	querier   dataapi.Querier
	committer dataapi.Committer
	policy    *DiscountPolicy
}

func NewQuoteGenerator(q dataapi.Querier, c dataapi.Committer, policy *DiscountPolicy) *QuoteGenerator {
	return &QuoteGenerator{querier: q, committer: c, policy: policy}
}

// Generate builds and commits the quote of opportunityID and returns its id.
// Errors are *errorx.BusinessError: 404 missing opportunity or line items,
// 400 commit failure, 500 anything else.
func (g *QuoteGenerator) Generate(ctx context.Context, opportunityID string) (string, error) {
	pricebookID, err := LoadStandardPricebook(ctx, g.querier)
	if err != nil {
		return "", unexpected(err)
	}

	group, err := LoadSourceGroup(ctx, g.querier, opportunityID)
	if err != nil {
		return "", unexpected(err)
	}
	if group == nil {
		return "", errorx.NewBusinessError(http.StatusNotFound,
			fmt.Sprintf("Opportunity not found for ID: %s", opportunityID))
	}
	if len(group.LineItems) == 0 {
		return "", errorx.NewBusinessError(http.StatusNotFound,
			fmt.Sprintf("No OpportunityLineItems found for Opportunity ID: %s", opportunityID))
	}

	batch, err := NewQuoteBuilder(pricebookID, g.policy.Rate()).Build([]SourceGroup{*group})
	if err != nil {
		return "", unexpected(err)
	}

	results, err := g.committer.Commit(ctx, batch.UnitOfWork)
	if err != nil {
		return "", errorx.NewBusinessError(http.StatusBadRequest,
			fmt.Sprintf("Failed to create quote: %v", err))
	}

	quote := batch.Quotes[0]
	result, ok := results.Get(quote.Ref)
	if !ok {
		return "", errorx.NewBusinessError(http.StatusBadRequest,
			"Failed to create quote: quote creation result not found in response")
	}
	if !result.OK() {
		return "", errorx.NewBusinessError(http.StatusBadRequest,
			fmt.Sprintf("Failed to create quote: %v", result.Errors))
	}
	return result.ID, nil
}

func unexpected(err error) error {
	var bizErr *errorx.BusinessError
	if errors.As(err, &bizErr) {
		return bizErr
	}
	return errorx.NewBusinessError(http.StatusInternalServerError,
		fmt.Sprintf("An unexpected error occurred: %v", err))
}

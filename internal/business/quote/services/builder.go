package services

import (
	"fmt"
	"time"

	"oip/quotesync/pkg/dataapi"
)

const (
	quoteType         = "Quote"
	quoteLineItemType = "QuoteLineItem"

	defaultQuoteName = "New Quote"
	maxQuoteName     = 80
	quoteStatusDraft = "Draft"
	quoteValidity    = 30 * 24 * time.Hour
)

// PlannedQuote a parent quote intent and the opportunity it came from
type PlannedQuote struct {
	OpportunityID string
	Ref           dataapi.Ref
	LineItems     int
}

// Batch the unit of work of one job plus its bookkeeping
type Batch struct {
	UnitOfWork *dataapi.UnitOfWork
	Quotes     []PlannedQuote
	Skipped    []string // opportunities without line items
}

// QuoteBuilder turns source groups into quote and line item intents.
type QuoteBuilder struct {
	pricebookID string
	discount    float64
}

// NewQuoteBuilder creates a builder pricing every line with discount.
func NewQuoteBuilder(pricebookID string, discount float64) *QuoteBuilder {
	return &QuoteBuilder{pricebookID: pricebookID, discount: ClampDiscount(discount)}
}

// Build registers one quote per group with at least one line item, followed by its lines.
// Groups without line items are listed in Skipped and never reach the unit of work.
func (b *QuoteBuilder) Build(groups []SourceGroup) (*Batch, error) {
	batch := &Batch{UnitOfWork: dataapi.NewUnitOfWork()}

	for _, group := range groups {
		if len(group.LineItems) == 0 {
			batch.Skipped = append(batch.Skipped, group.OpportunityID)
			continue
		}

		planned, err := b.add(batch.UnitOfWork, group)
		if err != nil {
			return nil, err
		}
		batch.Quotes = append(batch.Quotes, planned)
	}

	return batch, nil
}

func (b *QuoteBuilder) add(uow *dataapi.UnitOfWork, group SourceGroup) (PlannedQuote, error) {
	quoteRef := uow.RegisterCreate(quoteType, b.quoteFields(group))

	for _, item := range group.LineItems {
		if _, err := uow.RegisterChild(quoteRef, "QuoteId", quoteLineItemType, b.lineFields(item)); err != nil {
			return PlannedQuote{}, fmt.Errorf("register line item %s of opportunity %s: %w",
				item.ID, group.OpportunityID, err)
		}
	}

	return PlannedQuote{
		OpportunityID: group.OpportunityID,
		Ref:           quoteRef,
		LineItems:     len(group.LineItems),
	}, nil
}

func (b *QuoteBuilder) quoteFields(group SourceGroup) dataapi.Fields {
	name := defaultQuoteName
	if len(name) > maxQuoteName {
		name = name[:maxQuoteName]
	}

	fields := dataapi.Fields{
		"Name":          name,
		"OpportunityId": group.OpportunityID,
		"Pricebook2Id":  b.pricebookID,
		"Status":        quoteStatusDraft,
	}
	if group.CloseDate != nil {
		fields["ExpirationDate"] = group.CloseDate.Add(quoteValidity).Format(closeDateLayout)
	}
	return fields
}

func (b *QuoteBuilder) lineFields(item LineItem) dataapi.Fields {
	fields := dataapi.Fields{
		"PricebookEntryId": item.PricebookEntryID,
		"Quantity":         item.Quantity,
	}
	if price := ApplyDiscount(item.UnitPrice, b.discount); price != nil {
		fields["UnitPrice"] = *price
	} else {
		fields["UnitPrice"] = nil
	}
	return fields
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oip/quotesync/pkg/dataapi"
)

const (
	standardPricebookSOQL = "SELECT Id FROM Pricebook2 WHERE IsStandard = true LIMIT 1"

	lineItemsRelationship = "OpportunityLineItems"

	closeDateLayout = "2006-01-02"
)

// ErrPricebookNotFound no standard pricebook exists in the org
var ErrPricebookNotFound = errors.New("standard pricebook not found")

// LineItem one opportunity line item
type LineItem struct {
	ID               string
	Product2ID       string
	PricebookEntryID string
	Quantity         float64
	UnitPrice        *float64 // nil when the record has no price
}

// SourceGroup an opportunity with its ordered line items
type SourceGroup struct {
	OpportunityID string
	Name          string
	CloseDate     *time.Time
	LineItems     []LineItem
}

// LoadStandardPricebook resolves the id of the standard pricebook.
func LoadStandardPricebook(ctx context.Context, q dataapi.Querier) (string, error) {
	records, err := dataapi.QueryAll(ctx, q, standardPricebookSOQL)
	if err != nil {
		return "", err
	}
	if len(records) == 0 || records[0].ID() == "" {
		return "", ErrPricebookNotFound
	}
	return records[0].ID(), nil
}

// LoadSourceGroups reads the opportunities of ids together with their line items
// in one paginated relationship query. Ids the backend does not return are absent.
func LoadSourceGroups(ctx context.Context, q dataapi.Querier, ids []string) ([]SourceGroup, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	soql := fmt.Sprintf("SELECT Id, Name, AccountId, CloseDate, StageName, Amount, "+
		"(SELECT Id, Product2Id, Quantity, UnitPrice, PricebookEntryId FROM %s) "+
		"FROM Opportunity WHERE Id IN (%s)", lineItemsRelationship, quoteList(ids))

	records, err := dataapi.QueryAll(ctx, q, soql)
	if err != nil {
		return nil, err
	}

	groups := make([]SourceGroup, 0, len(records))
	for _, rec := range records {
		group := newSourceGroup(rec)
		items, err := lineItemsOf(ctx, q, rec)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			group.LineItems = append(group.LineItems, newLineItem(item))
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// lineItemsOf returns all line items of an opportunity record, fetching the pages
// of the nested result the parent page did not carry.
func lineItemsOf(ctx context.Context, q dataapi.Querier, rec dataapi.Record) ([]dataapi.Record, error) {
	sub, ok := rec.SubQueryResults[lineItemsRelationship]
	if !ok || sub == nil {
		return nil, nil
	}
	return dataapi.QueryRest(ctx, q, fmt.Sprintf("%s of %s", lineItemsRelationship, rec.ID()), sub)
}

// LoadSourceGroup reads one opportunity and its line items with two flat queries.
// It returns (nil, nil) when the opportunity does not exist.
func LoadSourceGroup(ctx context.Context, q dataapi.Querier, id string) (*SourceGroup, error) {
	opps, err := dataapi.QueryAll(ctx, q,
		fmt.Sprintf("SELECT Id, Name, CloseDate FROM Opportunity WHERE Id = %s", quote(id)))
	if err != nil {
		return nil, err
	}
	if len(opps) == 0 {
		return nil, nil
	}

	items, err := dataapi.QueryAll(ctx, q,
		fmt.Sprintf("SELECT Id, Product2Id, Quantity, UnitPrice, PricebookEntryId "+
			"FROM OpportunityLineItem WHERE OpportunityId = %s", quote(id)))
	if err != nil {
		return nil, err
	}

	group := newSourceGroup(opps[0])
	if group.OpportunityID == "" {
		group.OpportunityID = id
	}
	for _, item := range items {
		group.LineItems = append(group.LineItems, newLineItem(item))
	}
	return &group, nil
}

func newSourceGroup(rec dataapi.Record) SourceGroup {
	group := SourceGroup{
		OpportunityID: rec.ID(),
		Name:          rec.String("Name"),
	}
	if raw := rec.String("CloseDate"); raw != "" {
		if closeDate, err := time.Parse(closeDateLayout, raw); err == nil {
			group.CloseDate = &closeDate
		}
	}
	return group
}

func newLineItem(rec dataapi.Record) LineItem {
	item := LineItem{
		ID:               rec.ID(),
		Product2ID:       rec.String("Product2Id"),
		PricebookEntryID: rec.String("PricebookEntryId"),
	}
	if qty, ok := rec.Float("Quantity"); ok {
		item.Quantity = qty
	}
	if price, ok := rec.Float("UnitPrice"); ok {
		item.UnitPrice = &price
	}
	return item
}

// quote renders id as a SOQL string literal
func quote(id string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(id) + "'"
}

func quoteList(ids []string) string {
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		quoted = append(quoted, quote(id))
	}
	return strings.Join(quoted, ",")
}

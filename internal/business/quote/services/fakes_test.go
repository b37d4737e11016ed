package services

import (
	"context"
	"fmt"
	"strings"

	"oip/quotesync/pkg/dataapi"
)

// fakeStore answers queries by the object they select from and records commits.
type fakeStore struct {
	pricebooks []dataapi.Record
	opps       []dataapi.Record
	lineItems  []dataapi.Record
	queries    []string
	cursors    []string
	more       map[string]*dataapi.QueryResult // continuation pages by cursor
	queryErr   error
	commits    []*dataapi.UnitOfWork
	commitErr  error
	commitFunc func(uow *dataapi.UnitOfWork) dataapi.CommitResultSet
}

func (f *fakeStore) Query(ctx context.Context, soql string) (*dataapi.QueryResult, error) {
	f.queries = append(f.queries, soql)
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var records []dataapi.Record
	switch {
	case strings.Contains(soql, "FROM Pricebook2"):
		records = f.pricebooks
	case strings.Contains(soql, "FROM OpportunityLineItem WHERE"):
		records = f.lineItems
	case strings.Contains(soql, "FROM Opportunity WHERE"):
		records = f.opps
	default:
		return nil, fmt.Errorf("unexpected query %q", soql)
	}
	return &dataapi.QueryResult{TotalSize: len(records), Done: true, Records: records}, nil
}

func (f *fakeStore) QueryMore(ctx context.Context, cursor string) (*dataapi.QueryResult, error) {
	f.cursors = append(f.cursors, cursor)
	if page, ok := f.more[cursor]; ok {
		return page, nil
	}
	return nil, fmt.Errorf("unexpected cursor %q", cursor)
}

func (f *fakeStore) Commit(ctx context.Context, uow *dataapi.UnitOfWork) (dataapi.CommitResultSet, error) {
	f.commits = append(f.commits, uow)
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	if f.commitFunc != nil {
		return f.commitFunc(uow), nil
	}
	return succeedAll(uow), nil
}

// succeedAll assigns an id to every intent
func succeedAll(uow *dataapi.UnitOfWork) dataapi.CommitResultSet {
	results := dataapi.CommitResultSet{}
	for _, intent := range uow.Intents() {
		results[intent.Ref] = dataapi.CommitResult{ID: fmt.Sprintf("%s-%d", intent.Type, intent.Ref)}
	}
	return results
}

func record(fields map[string]interface{}) dataapi.Record {
	return dataapi.Record{Fields: fields}
}

func oppWithItems(id, closeDate string, items ...dataapi.Record) dataapi.Record {
	rec := record(map[string]interface{}{"Id": id, "Name": "Opp " + id, "CloseDate": closeDate})
	rec.SubQueryResults = map[string]*dataapi.QueryResult{
		"OpportunityLineItems": {TotalSize: len(items), Done: true, Records: items},
	}
	return rec
}

func lineItem(id string, qty, price float64) dataapi.Record {
	return record(map[string]interface{}{
		"Id":               id,
		"Product2Id":       "P-" + id,
		"PricebookEntryId": "PBE-" + id,
		"Quantity":         qty,
		"UnitPrice":        price,
	})
}

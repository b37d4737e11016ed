package dataapi

import (
	"context"
	"errors"
)

var errNilPage = errors.New("backend returned no page")

// QueryAll runs soql and follows continuation cursors until the backend reports done.
// Records keep backend order across pages. Any failed page aborts the whole read with a
// *QueryError; callers never see a partial source set.
func QueryAll(ctx context.Context, q Querier, soql string) ([]Record, error) {
	page, err := q.Query(ctx, soql)
	if err != nil {
		return nil, &QueryError{Query: soql, Err: err}
	}
	return QueryRest(ctx, q, soql, page)
}

// QueryRest returns the records of page and of every page behind its cursor. It also
// drains nested relationship results, which the backend pages on their own; soql only
// labels errors.
func QueryRest(ctx context.Context, q Querier, soql string, page *QueryResult) ([]Record, error) {
	if page == nil {
		return nil, &QueryError{Query: soql, Err: errNilPage}
	}

	records := make([]Record, 0, len(page.Records))
	records = append(records, page.Records...)

	// a page that is not done but carries no cursor cannot be continued
	for !page.Done && page.NextRecordsURL != "" {
		cursor := page.NextRecordsURL

		var err error
		page, err = q.QueryMore(ctx, cursor)
		if err != nil {
			return nil, &QueryError{Query: soql, Cursor: cursor, Err: err}
		}
		if page == nil {
			return nil, &QueryError{Query: soql, Cursor: cursor, Err: errNilPage}
		}

		records = append(records, page.Records...)
	}

	return records, nil
}

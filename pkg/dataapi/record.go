package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Querier is the remote read capability of the record store.
type Querier interface {
	// Query runs a SOQL statement and returns the first page.
	Query(ctx context.Context, soql string) (*QueryResult, error)
	// QueryMore fetches the page behind a continuation cursor.
	QueryMore(ctx context.Context, cursor string) (*QueryResult, error)
}

// QueryResult one page of a query
type QueryResult struct {
	TotalSize      int      `json:"totalSize"`
	Done           bool     `json:"done"`
	NextRecordsURL string   `json:"nextRecordsUrl,omitempty"` // continuation cursor
	Records        []Record `json:"records"`
}

// Record is one sObject row. Nested relationship queries land in SubQueryResults.
type Record struct {
	Type            string
	Fields          map[string]interface{}
	SubQueryResults map[string]*QueryResult
}

type recordAttributes struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// UnmarshalJSON splits the flat sObject JSON into plain fields and subquery results.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Fields = make(map[string]interface{}, len(raw))
	r.SubQueryResults = make(map[string]*QueryResult)

	for key, value := range raw {
		if key == "attributes" {
			var attrs recordAttributes
			if err := json.Unmarshal(value, &attrs); err != nil {
				return fmt.Errorf("decode attributes: %w", err)
			}
			r.Type = attrs.Type
			continue
		}

		if isSubQuery(value) {
			var sub QueryResult
			if err := json.Unmarshal(value, &sub); err != nil {
				return fmt.Errorf("decode subquery %s: %w", key, err)
			}
			r.SubQueryResults[key] = &sub
			continue
		}

		var v interface{}
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("decode field %s: %w", key, err)
		}
		r.Fields[key] = v
	}

	return nil
}

// isSubQuery reports whether a field value is a nested query result object
func isSubQuery(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var probe struct {
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return false
	}
	return probe.Records != nil
}

// ID returns the record id, accepting either Id or id casing.
func (r Record) ID() string {
	if id := r.String("Id"); id != "" {
		return id
	}
	return r.String("id")
}

// String returns a string field or "" when absent or not a string.
func (r Record) String(field string) string {
	s, _ := r.Fields[field].(string)
	return s
}

// Float returns a numeric field. ok is false when the field is absent, null or not numeric.
func (r Record) Float(field string) (value float64, ok bool) {
	switch v := r.Fields[field].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// SubRecords returns the records of a nested relationship query, nil when absent.
func (r Record) SubRecords(relationship string) []Record {
	sub, ok := r.SubQueryResults[relationship]
	if !ok || sub == nil {
		return nil
	}
	return sub.Records
}

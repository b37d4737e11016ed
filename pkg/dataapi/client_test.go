package dataapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oppPage = `{
  "totalSize": 2,
  "done": false,
  "nextRecordsUrl": "/services/data/v62.0/query/01gXX-2000",
  "records": [
    {
      "attributes": {"type": "Opportunity", "url": "/x"},
      "Id": "OPP1",
      "CloseDate": "2025-01-15",
      "OpportunityLineItems": {
        "totalSize": 1, "done": true,
        "records": [{"attributes": {"type": "OpportunityLineItem"}, "Id": "OLI1", "Quantity": 2, "UnitPrice": 100.5, "PricebookEntryId": "PBE1"}]
      }
    }
  ]
}`

const oppPage2 = `{"totalSize": 2, "done": true, "records": [
  {"attributes": {"type": "Opportunity"}, "Id": "OPP2", "CloseDate": null, "OpportunityLineItems": null}
]}`

func TestClient_QueryAllFollowsNextRecordsURL(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/services/data/v62.0/query":
			assert.Equal(t, "SELECT Id FROM Opportunity", r.URL.Query().Get("q"))
			_, _ = io.WriteString(w, oppPage)
		case "/services/data/v62.0/query/01gXX-2000":
			_, _ = io.WriteString(w, oppPage2)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "v62.0", "tok")
	records, err := QueryAll(context.Background(), c, "SELECT Id FROM Opportunity")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Len(t, paths, 2)

	opp1 := records[0]
	assert.Equal(t, "Opportunity", opp1.Type)
	assert.Equal(t, "OPP1", opp1.ID())
	lines := opp1.SubRecords("OpportunityLineItems")
	require.Len(t, lines, 1)
	qty, ok := lines[0].Float("Quantity")
	assert.True(t, ok)
	assert.Equal(t, 2.0, qty)
	price, ok := lines[0].Float("UnitPrice")
	assert.True(t, ok)
	assert.Equal(t, 100.5, price)

	opp2 := records[1]
	assert.Nil(t, opp2.SubRecords("OpportunityLineItems"))
	assert.Empty(t, opp2.String("CloseDate"))
}

func TestClient_QueryErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `[{"errorCode":"MALFORMED_QUERY","message":"unexpected token"}]`)
	}))
	defer srv.Close()

	_, err := QueryAll(context.Background(), NewClient(srv.URL, "v62.0", "tok"), "SELEC")
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "MALFORMED_QUERY: unexpected token")
}

func TestClient_CommitMapsResultsPerReference(t *testing.T) {
	var got compositeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v62.0/composite", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"compositeResponse":[
			{"body":{"id":"Q1","success":true,"errors":[]},"httpStatusCode":201,"referenceId":"ref0"},
			{"body":[{"errorCode":"FIELD_INTEGRITY_EXCEPTION","message":"bad pricebook entry"}],"httpStatusCode":400,"referenceId":"ref1"},
			{"body":{"id":"ZZ"},"httpStatusCode":201,"referenceId":"unknown"}
		]}`)
	}))
	defer srv.Close()

	uow := NewUnitOfWork()
	quote := uow.RegisterCreate("Quote", Fields{"Name": "New Quote"})
	line, err := uow.RegisterChild(quote, "QuoteId", "QuoteLineItem", Fields{"Quantity": 1.0})
	require.NoError(t, err)
	orphan := uow.RegisterCreate("Quote", Fields{"Name": "Second"})

	c := NewClient(srv.URL, "v62.0", "tok", WithAllOrNone(false))
	results, err := c.Commit(context.Background(), uow)
	require.NoError(t, err)

	assert.False(t, got.AllOrNone)
	require.Len(t, got.CompositeRequest, 3)
	assert.Equal(t, "/services/data/v62.0/sobjects/QuoteLineItem", got.CompositeRequest[1].URL)
	assert.Equal(t, "@{ref0.id}", got.CompositeRequest[1].Body["QuoteId"])

	r, ok := results.Get(quote)
	require.True(t, ok)
	assert.True(t, r.OK())
	assert.Equal(t, "Q1", r.ID)

	r, ok = results.Get(line)
	require.True(t, ok)
	assert.False(t, r.OK())
	assert.Equal(t, []string{"FIELD_INTEGRITY_EXCEPTION: bad pricebook entry"}, r.Errors)

	_, ok = results.Get(orphan)
	assert.False(t, ok, "missing entries stay missing")
}

// graphServer answers a composite graph by creating every node it receives
func graphServer(t *testing.T, got *graphRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v62.0/composite/graph", r.URL.Path)
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(got)) || !assert.Len(t, got.Graphs, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		subs := make([]compositeSubresponse, 0, len(got.Graphs[0].CompositeRequest))
		for i, req := range got.Graphs[0].CompositeRequest {
			subs = append(subs, compositeSubresponse{
				Body:           json.RawMessage(fmt.Sprintf(`{"id":"ID%d","success":true,"errors":[]}`, i)),
				HTTPStatusCode: http.StatusCreated,
				ReferenceID:    req.ReferenceID,
			})
		}
		resp := graphResponse{Graphs: []graphResult{{
			GraphID:       got.Graphs[0].GraphID,
			IsSuccessful:  true,
			GraphResponse: compositeResponse{CompositeResponse: subs},
		}}}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClient_CommitLargeBatchAsOneGraph(t *testing.T) {
	var got graphRequest
	srv := graphServer(t, &got)
	defer srv.Close()

	// 4 quotes with 9 lines each, above the 25 subrequests of /composite
	uow := NewUnitOfWork()
	var lines []Ref
	for q := 0; q < 4; q++ {
		quote := uow.RegisterCreate("Quote", Fields{"Name": "New Quote"})
		for l := 0; l < 9; l++ {
			line, err := uow.RegisterChild(quote, "QuoteId", "QuoteLineItem", Fields{"Quantity": 1.0})
			require.NoError(t, err)
			lines = append(lines, line)
		}
	}
	require.Equal(t, 40, uow.Len())

	c := NewClient(srv.URL, "v62.0", "tok", WithAllOrNone(false))
	results, err := c.Commit(context.Background(), uow)
	require.NoError(t, err)

	require.Len(t, got.Graphs[0].CompositeRequest, 40)
	assert.Equal(t, "@{ref0.id}", got.Graphs[0].CompositeRequest[1].Body["QuoteId"])
	assert.Len(t, results, 40)
	for _, line := range lines {
		r, ok := results.Get(line)
		require.True(t, ok)
		assert.True(t, r.OK())
	}
}

func TestClient_CommitAllOrNoneUsesGraph(t *testing.T) {
	var got graphRequest
	srv := graphServer(t, &got)
	defer srv.Close()

	uow := NewUnitOfWork()
	quote := uow.RegisterCreate("Quote", Fields{"Name": "New Quote"})

	results, err := NewClient(srv.URL, "v62.0", "tok").Commit(context.Background(), uow)
	require.NoError(t, err)
	r, ok := results.Get(quote)
	require.True(t, ok)
	assert.Equal(t, "ID0", r.ID)
}

func TestClient_CommitFailedGraphReportsEveryNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"graphs":[{"graphId":"g0","isSuccessful":false,"graphResponse":{"compositeResponse":[
			{"body":[{"errorCode":"PROCESSING_HALTED","message":"rolled back"}],"httpStatusCode":400,"referenceId":"ref0"},
			{"body":[{"errorCode":"FIELD_INTEGRITY_EXCEPTION","message":"bad pricebook entry"}],"httpStatusCode":400,"referenceId":"ref1"}
		]}}]}`)
	}))
	defer srv.Close()

	uow := NewUnitOfWork()
	quote := uow.RegisterCreate("Quote", Fields{})
	line, err := uow.RegisterChild(quote, "QuoteId", "QuoteLineItem", Fields{})
	require.NoError(t, err)

	results, err := NewClient(srv.URL, "v62.0", "tok").Commit(context.Background(), uow)
	require.NoError(t, err)
	for _, ref := range []Ref{quote, line} {
		r, ok := results.Get(ref)
		require.True(t, ok)
		assert.False(t, r.OK())
	}
}

func TestClient_CommitAboveGraphLimitIsRejected(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	uow := NewUnitOfWork()
	for i := 0; i <= graphNodeLimit; i++ {
		uow.RegisterCreate("Quote", Fields{})
	}

	_, err := NewClient(srv.URL, "v62.0", "tok").Commit(context.Background(), uow)
	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusRequestEntityTooLarge, ce.StatusCode)
	assert.False(t, called)
}

func TestClient_CommitWholeBatchRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `[{"errorCode":"JSON_PARSER_ERROR","message":"malformed"}]`)
	}))
	defer srv.Close()

	uow := NewUnitOfWork()
	uow.RegisterCreate("Quote", Fields{})

	results, err := NewClient(srv.URL, "v62.0", "tok").Commit(context.Background(), uow)
	assert.Nil(t, results)
	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadRequest, ce.StatusCode)
}

func TestClient_CommitEmptyUnitOfWorkSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	results, err := NewClient(srv.URL, "v62.0", "tok").Commit(context.Background(), NewUnitOfWork())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the REST data API of the record store. It implements Querier and Committer.
// A Client is built once per process (or per request token) and is safe for concurrent use.
type Client struct {
	instanceURL string
	apiVersion  string
	accessToken string
	allOrNone   bool
	httpClient  *http.Client
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAllOrNone controls whether the backend rolls back the whole batch when one intent fails.
func WithAllOrNone(allOrNone bool) Option {
	return func(c *Client) {
		c.allOrNone = allOrNone
	}
}

// WithTimeout sets the per request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewClient creates a data API client for instanceURL (e.g. https://acme.my.salesforce.com).
func NewClient(instanceURL, apiVersion, accessToken string, opts ...Option) *Client {
	c := &Client{
		instanceURL: strings.TrimSuffix(instanceURL, "/"),
		apiVersion:  apiVersion,
		accessToken: accessToken,
		allOrNone:   true,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAccessToken returns a copy of the client authenticated with token.
func (c *Client) WithAccessToken(token string) *Client {
	cp := *c
	cp.accessToken = token
	return &cp
}

func (c *Client) dataPath(suffix string) string {
	return fmt.Sprintf("/services/data/%s%s", c.apiVersion, suffix)
}

// Query implements Querier
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	endpoint := c.instanceURL + c.dataPath("/query") + "?q=" + url.QueryEscape(soql)

	var page QueryResult
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// QueryMore implements Querier. cursor is the nextRecordsUrl of the previous page.
func (c *Client) QueryMore(ctx context.Context, cursor string) (*QueryResult, error) {
	endpoint := cursor
	if !strings.HasPrefix(cursor, "http://") && !strings.HasPrefix(cursor, "https://") {
		endpoint = c.instanceURL + cursor
	}

	var page QueryResult
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type compositeSubrequest struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	ReferenceID string `json:"referenceId"`
	Body        Fields `json:"body"`
}

type compositeRequest struct {
	AllOrNone        bool                  `json:"allOrNone"`
	CompositeRequest []compositeSubrequest `json:"compositeRequest"`
}

// compositeLimit subrequests accepted by one /composite call. Larger batches and every
// all-or-none batch go through /composite/graph, which holds up to graphNodeLimit nodes.
const (
	compositeLimit = 25
	graphNodeLimit = 500
	graphID        = "g0"
)

type compositeGraph struct {
	GraphID          string                `json:"graphId"`
	CompositeRequest []compositeSubrequest `json:"compositeRequest"`
}

type graphRequest struct {
	Graphs []compositeGraph `json:"graphs"`
}

type graphResult struct {
	GraphID       string            `json:"graphId"`
	IsSuccessful  bool              `json:"isSuccessful"`
	GraphResponse compositeResponse `json:"graphResponse"`
}

type graphResponse struct {
	Graphs []graphResult `json:"graphs"`
}

type compositeSubresponse struct {
	Body           json.RawMessage `json:"body"`
	HTTPStatusCode int             `json:"httpStatusCode"`
	ReferenceID    string          `json:"referenceId"`
}

type compositeResponse struct {
	CompositeResponse []compositeSubresponse `json:"compositeResponse"`
}

type saveResult struct {
	ID      string         `json:"id"`
	Success bool           `json:"success"`
	Errors  []APIErrorItem `json:"errors"`
}

// Commit implements Committer: one HTTP call per unit of work. All-or-none batches and
// batches above the /composite limit are sent as a single composite graph.
func (c *Client) Commit(ctx context.Context, uow *UnitOfWork) (CommitResultSet, error) {
	results := make(CommitResultSet)
	if uow == nil || uow.IsEmpty() {
		return results, nil
	}

	// 1. build the subrequests, remembering which token belongs to which handle
	intents := uow.Intents()
	if len(intents) > graphNodeLimit {
		return nil, &CommitError{
			StatusCode: http.StatusRequestEntityTooLarge,
			Err:        fmt.Errorf("%d intents exceed the graph limit of %d", len(intents), graphNodeLimit),
		}
	}
	refs := make(map[string]Ref, len(intents))
	subrequests := make([]compositeSubrequest, 0, len(intents))
	for _, intent := range intents {
		body, err := uow.Resolve(intent)
		if err != nil {
			return nil, err
		}
		refs[intent.Ref.ReferenceID()] = intent.Ref
		subrequests = append(subrequests, compositeSubrequest{
			Method:      http.MethodPost,
			URL:         c.dataPath("/sobjects/" + intent.Type),
			ReferenceID: intent.Ref.ReferenceID(),
			Body:        body,
		})
	}

	// 2. submit; any failure here means the batch as a whole was rejected
	var (
		responses []compositeSubresponse
		err       error
	)
	if c.allOrNone || len(subrequests) > compositeLimit {
		responses, err = c.commitGraph(ctx, subrequests)
	} else {
		responses, err = c.commitComposite(ctx, subrequests)
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &CommitError{StatusCode: apiErr.StatusCode, Err: apiErr}
		}
		return nil, &CommitError{Err: err}
	}

	// 3. map every subresponse back to its handle
	for _, sub := range responses {
		ref, ok := refs[sub.ReferenceID]
		if !ok {
			continue
		}
		results[ref] = decodeSubresponse(sub)
	}

	return results, nil
}

func (c *Client) commitComposite(ctx context.Context, subrequests []compositeSubrequest) ([]compositeSubresponse, error) {
	req := compositeRequest{
		AllOrNone:        c.allOrNone,
		CompositeRequest: subrequests,
	}
	var resp compositeResponse
	if err := c.do(ctx, http.MethodPost, c.instanceURL+c.dataPath("/composite"), req, &resp); err != nil {
		return nil, err
	}
	return resp.CompositeResponse, nil
}

// commitGraph sends one graph; the backend rolls it back as a whole when any node fails
func (c *Client) commitGraph(ctx context.Context, subrequests []compositeSubrequest) ([]compositeSubresponse, error) {
	req := graphRequest{Graphs: []compositeGraph{{
		GraphID:          graphID,
		CompositeRequest: subrequests,
	}}}
	var resp graphResponse
	if err := c.do(ctx, http.MethodPost, c.instanceURL+c.dataPath("/composite/graph"), req, &resp); err != nil {
		return nil, err
	}
	for _, g := range resp.Graphs {
		if g.GraphID == graphID {
			return g.GraphResponse.CompositeResponse, nil
		}
	}
	return nil, fmt.Errorf("graph %s missing from response", graphID)
}

func decodeSubresponse(sub compositeSubresponse) CommitResult {
	if sub.HTTPStatusCode >= 200 && sub.HTTPStatusCode < 300 {
		var saved saveResult
		if err := json.Unmarshal(sub.Body, &saved); err != nil {
			return CommitResult{Errors: []string{fmt.Sprintf("undecodable result: %v", err)}}
		}
		if saved.ID != "" && len(saved.Errors) == 0 {
			return CommitResult{ID: saved.ID}
		}
		return CommitResult{Errors: errorStrings(saved.Errors, sub.HTTPStatusCode)}
	}

	var items []APIErrorItem
	if err := json.Unmarshal(sub.Body, &items); err != nil {
		return CommitResult{Errors: []string{fmt.Sprintf("status %d", sub.HTTPStatusCode)}}
	}
	return CommitResult{Errors: errorStrings(items, sub.HTTPStatusCode)}
}

func errorStrings(items []APIErrorItem, status int) []string {
	if len(items) == 0 {
		return []string{fmt.Sprintf("status %d", status)}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

// do sends one JSON request and decodes a 2xx body into out
func (c *Client) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, &apiErr.Items)
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}

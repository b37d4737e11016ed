package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/quotesync/internal/framework"
	"oip/quotesync/internal/server/handlers/quote"
	"oip/quotesync/pkg/errorx"
	"oip/quotesync/pkg/logger"
)

type stubGenerator struct {
	token   string
	quoteID string
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, opportunityID string) (string, error) {
	return g.quoteID, g.err
}

type stubPublisher struct {
	published [][]byte
	err       error
}

func (p *stubPublisher) PublishJob(ctx context.Context, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, data)
	return nil
}

func newEngine(gen *stubGenerator, pub *stubPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	factory := func(token string) quote.Generator {
		gen.token = token
		return gen
	}
	return SetupRoutes(quote.NewQuoteHandler(factory, pub, logger.NewNop()), logger.NewNop())
}

func do(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	w := do(newEngine(&stubGenerator{}, &stubPublisher{}), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestMetricsExposed(t *testing.T) {
	w := do(newEngine(&stubGenerator{}, &stubPublisher{}), http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateQuote(t *testing.T) {
	gen := &stubGenerator{quoteID: "0Q0001"}
	w := do(newEngine(gen, &stubPublisher{}), http.MethodPost, "/createQuote", "tok", map[string]string{"opportunityId": "OPP1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"quoteId": "0Q0001"}, decode(t, w))
	assert.Equal(t, "tok", gen.token)
}

func TestCreateQuote_Unauthorized(t *testing.T) {
	w := do(newEngine(&stubGenerator{}, &stubPublisher{}), http.MethodPost, "/createQuote", "", map[string]string{"opportunityId": "OPP1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestCreateQuote_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errorx.NewBusinessError(http.StatusNotFound, "Opportunity not found for ID: OPP1"), http.StatusNotFound},
		{"commit", errorx.NewBusinessError(http.StatusBadRequest, "Failed to create quote"), http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{err: tt.err}
			w := do(newEngine(gen, &stubPublisher{}), http.MethodPost, "/createQuote", "tok", map[string]string{"opportunityId": "OPP1"})

			assert.Equal(t, tt.want, w.Code)
			body := decode(t, w)
			assert.Equal(t, true, body["error"])
			assert.Equal(t, tt.err.Error(), body["message"])
		})
	}
}

func TestCreateQuote_Validation(t *testing.T) {
	w := do(newEngine(&stubGenerator{}, &stubPublisher{}), http.MethodPost, "/createQuote", "tok", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["details"])
}

func TestCreateQuotes_Publishes(t *testing.T) {
	pub := &stubPublisher{}
	w := do(newEngine(&stubGenerator{}, pub), http.MethodPost, "/createQuotes", "", map[string]interface{}{
		"opportunityIds": []string{"OPP1", "OPP2"},
		"callbackUrl":    "https://cb.example/x",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	jobID, _ := decode(t, w)["jobId"].(string)
	require.NotEmpty(t, jobID)

	require.Len(t, pub.published, 1)
	job, err := framework.ParseJob(pub.published[0])
	require.NoError(t, err)
	assert.Equal(t, jobID, job.JobID)
	assert.Equal(t, "quote", job.JobType)
	assert.Equal(t, []string{"OPP1", "OPP2"}, job.SourceIDs)
	assert.Equal(t, "https://cb.example/x", job.CallbackURL)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.published[0], &raw))
	assert.Contains(t, raw, "opportunityIds")
}

func TestCreateQuotes_PublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("redis down")}
	w := do(newEngine(&stubGenerator{}, pub), http.MethodPost, "/createQuotes", "", map[string]interface{}{
		"opportunityIds": []string{"OPP1"},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, errorx.ErrPublishFailed.Error(), body["message"])
}

func TestCreateQuotes_Validation(t *testing.T) {
	r := newEngine(&stubGenerator{}, &stubPublisher{})

	w := do(r, http.MethodPost, "/createQuotes", "", map[string]interface{}{"opportunityIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/createQuotes", "", map[string]interface{}{
		"opportunityIds": []string{"OPP1"},
		"callbackUrl":    "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

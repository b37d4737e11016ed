package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oip/quotesync/pkg/config"
	"oip/quotesync/pkg/dataapi"
	"oip/quotesync/pkg/errorx"
)

func newGeneratorStore() *fakeStore {
	return &fakeStore{
		pricebooks: []dataapi.Record{record(map[string]interface{}{"Id": "PB1"})},
		opps:       []dataapi.Record{record(map[string]interface{}{"Id": "OPP1", "CloseDate": "2025-01-01"})},
		lineItems:  []dataapi.Record{lineItem("L1", 3, 10)},
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var bizErr *errorx.BusinessError
	require.True(t, errors.As(err, &bizErr), "want BusinessError, got %v", err)
	return bizErr.Code
}

func TestQuoteGenerator_Generate(t *testing.T) {
	store := newGeneratorStore()
	g := NewQuoteGenerator(store, store, NewDiscountPolicy(config.PricingConfig{}))

	id, err := g.Generate(context.Background(), "OPP1")
	require.NoError(t, err)
	assert.Equal(t, "Quote-0", id)

	require.Len(t, store.commits, 1)
	intents := store.commits[0].Intents()
	require.Len(t, intents, 2)
	assert.InDelta(t, 9.0, intents[1].Fields["UnitPrice"], 1e-9)
}

func TestQuoteGenerator_NotFound(t *testing.T) {
	store := newGeneratorStore()
	store.opps = nil
	g := NewQuoteGenerator(store, store, NewDiscountPolicy(config.PricingConfig{}))

	_, err := g.Generate(context.Background(), "OPP1")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	store = newGeneratorStore()
	store.lineItems = nil
	g = NewQuoteGenerator(store, store, NewDiscountPolicy(config.PricingConfig{}))

	_, err = g.Generate(context.Background(), "OPP1")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.Empty(t, store.commits)
}

func TestQuoteGenerator_CommitFailure(t *testing.T) {
	store := newGeneratorStore()
	store.commitErr = &dataapi.CommitError{StatusCode: 400, Err: errors.New("MALFORMED_QUERY: bad")}
	g := NewQuoteGenerator(store, store, NewDiscountPolicy(config.PricingConfig{}))

	_, err := g.Generate(context.Background(), "OPP1")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	store = newGeneratorStore()
	store.commitFunc = func(uow *dataapi.UnitOfWork) dataapi.CommitResultSet { return dataapi.CommitResultSet{} }
	g = NewQuoteGenerator(store, store, NewDiscountPolicy(config.PricingConfig{}))

	_, err = g.Generate(context.Background(), "OPP1")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestQuoteGenerator_QueryFailure(t *testing.T) {
	store := newGeneratorStore()
	store.queryErr = errors.New("connection refused")
	g := NewQuoteGenerator(store, store, NewDiscountPolicy(config.PricingConfig{}))

	_, err := g.Generate(context.Background(), "OPP1")
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

package dataapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_ParentAndChildren(t *testing.T) {
	uow := NewUnitOfWork()
	assert.True(t, uow.IsEmpty())

	quote := uow.RegisterCreate("Quote", Fields{"Name": "New Quote"})
	line1, err := uow.RegisterChild(quote, "QuoteId", "QuoteLineItem", Fields{"Quantity": 2.0})
	require.NoError(t, err)
	line2, err := uow.RegisterChild(quote, "QuoteId", "QuoteLineItem", Fields{"Quantity": 1.0})
	require.NoError(t, err)

	assert.Equal(t, 3, uow.Len())
	assert.Equal(t, Ref(0), quote)
	assert.Equal(t, Ref(1), line1)
	assert.Equal(t, Ref(2), line2)
	assert.Equal(t, "ref0", quote.ReferenceID())
	assert.Equal(t, "@{ref0.id}", quote.Placeholder())

	intents := uow.Intents()
	require.Len(t, intents, 3)
	assert.False(t, intents[0].HasParent())
	assert.True(t, intents[1].HasParent())

	fields, err := uow.Resolve(intents[1])
	require.NoError(t, err)
	assert.Equal(t, "@{ref0.id}", fields["QuoteId"])
	assert.Equal(t, 2.0, fields["Quantity"])

	// the stored intent keeps the handle, not the placeholder
	_, stored := intents[1].Fields["QuoteId"]
	assert.False(t, stored)
}

func TestUnitOfWork_UnknownParent(t *testing.T) {
	uow := NewUnitOfWork()
	uow.RegisterCreate("Quote", Fields{})

	for _, parent := range []Ref{-1, 1, 42} {
		_, err := uow.RegisterChild(parent, "QuoteId", "QuoteLineItem", Fields{})
		var ire *InvalidReferenceError
		require.ErrorAs(t, err, &ire)
		assert.Equal(t, parent, ire.Ref)
	}
	assert.Equal(t, 1, uow.Len(), "failed registrations must not stage anything")
}

func TestUnitOfWork_CopiesCallerFields(t *testing.T) {
	uow := NewUnitOfWork()
	fields := Fields{"Name": "before"}
	uow.RegisterCreate("Quote", fields)
	fields["Name"] = "after"

	assert.Equal(t, "before", uow.Intents()[0].Fields["Name"])
}

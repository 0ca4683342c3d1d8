package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteCart(t *testing.T) {
	c := NewCart().SetQuantity("p1", "M", 2).SetQuantity("ghost", "S", 1)
	lookup := LookupFrom([]Product{{ID: "p1", Name: "Tee", Price: 2000, Images: []string{"tee.jpg"}}})

	q := QuoteCart(c, lookup, 1000)

	require.Len(t, q.Lines, 1)
	assert.Equal(t, QuotedLine{
		ProductID: "p1", Size: "M", Quantity: 2, Name: "Tee", Image: "tee.jpg",
		UnitPrice: 2000, LineTotal: 4000,
	}, q.Lines[0])
	assert.Equal(t, []LineKey{{ProductID: "ghost", Size: "S"}}, q.Unavailable)
	assert.Equal(t, Money(4000), q.Subtotal)
	assert.Equal(t, Money(1000), q.ShippingFee)
	assert.Equal(t, Money(5000), q.Total)
	assert.Equal(t, 3, q.ItemCount)
}

func TestQuoteCart_EmptyHasNoShipping(t *testing.T) {
	q := QuoteCart(NewCart(), LookupFrom(nil), 1000)

	assert.Empty(t, q.Lines)
	assert.NotNil(t, q.Lines)
	assert.Equal(t, Money(0), q.ShippingFee)
	assert.Equal(t, Money(0), q.Total)
}

func TestNewOrderFromQuote(t *testing.T) {
	c := NewCart().SetQuantity("p1", "M", 2)
	q := QuoteCart(c, LookupFrom([]Product{{ID: "p1", Name: "Tee", Price: 2000}}), 1000)

	o := NewOrderFromQuote(q, "$")

	require.Len(t, o.Items, 1)
	assert.Equal(t, OrderItem{ProductID: "p1", Name: "Tee", Size: "M", Quantity: 2, Price: 2000}, o.Items[0])
	assert.Equal(t, Money(4000), o.Subtotal)
	assert.Equal(t, Money(1000), o.DeliveryFee)
	assert.Equal(t, Money(5000), o.Total)
	assert.Equal(t, "$", o.Currency)
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentCOD))
	assert.False(t, ValidPaymentMethod("cash"))
}

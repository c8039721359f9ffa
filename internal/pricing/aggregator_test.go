package pricing

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		FreeShippingThreshold: 500,
		FlatShippingFee:       50,
		TaxRate:               0.18,
	}
}

func lineItem(id string, p models.Product, qty int) models.CartItem {
	return models.CartItem{ID: id, ProductID: p.ID, Product: p, Quantity: qty}
}

func TestSummarizeDiscountedLine(t *testing.T) {
	p := models.Product{ID: "p1", Price: 100, DiscountPrice: 80, Stock: 10}
	items := []models.CartItem{lineItem("i1", p, 3)}

	s := Summarize(items, b2cCustomer(), testConfig())

	assert.Equal(t, int64(240), s.Subtotal)
	assert.Equal(t, int64(60), s.Savings)
	assert.Equal(t, int64(50), s.Shipping)
	assert.Equal(t, int64(43), s.Tax) // round(240 * 0.18)
	assert.Equal(t, int64(333), s.Total)
	assert.Empty(t, s.Attention)
}

func TestSummarizeShippingThreshold(t *testing.T) {
	cfg := Config{FreeShippingThreshold: 500, FlatShippingFee: 50}

	below := Summarize([]models.CartItem{
		lineItem("i1", models.Product{ID: "p1", Price: 450, Stock: 5}, 1),
	}, b2cCustomer(), cfg)
	assert.Equal(t, int64(50), below.Shipping)
	assert.Equal(t, int64(50), below.AmountToFreeShipping)

	above := Summarize([]models.CartItem{
		lineItem("i1", models.Product{ID: "p1", Price: 600, Stock: 5}, 1),
	}, b2cCustomer(), cfg)
	assert.Equal(t, int64(0), above.Shipping)
	assert.Equal(t, int64(0), above.AmountToFreeShipping)
}

func TestSummarizeEmptyCartNoShipping(t *testing.T) {
	s := Summarize(nil, b2cCustomer(), testConfig())

	assert.Zero(t, s.Subtotal)
	assert.Zero(t, s.Shipping)
	assert.Zero(t, s.Total)
}

func TestSummarizeBulkTierSavings(t *testing.T) {
	p := tieredProduct()
	items := []models.CartItem{lineItem("i1", p, 12)}

	s := Summarize(items, approvedB2B(), testConfig())

	assert.Equal(t, int64(12*85), s.Subtotal)
	assert.Equal(t, int64(12*15), s.Savings) // base 100, tier 85
}

func TestSummarizePriceOnRequestNeedsAttention(t *testing.T) {
	resolved := models.Product{ID: "p1", Price: 200, Stock: 10}
	onRequest := models.Product{
		ID:         "p2",
		Price:      300,
		Stock:      10,
		B2BPricing: models.B2BPricing{Enabled: true, PriceOnRequest: true},
	}
	items := []models.CartItem{
		lineItem("i1", resolved, 2),
		lineItem("i2", onRequest, 5),
	}

	s := Summarize(items, approvedB2B(), testConfig())

	assert.Equal(t, int64(400), s.Subtotal)
	require.Len(t, s.Attention, 1)
	assert.Equal(t, "i2", s.Attention[0].ItemID)
	assert.Equal(t, DecisionPriceOnRequest, s.Attention[0].Kind)
}

func TestSummarizeGuestCartAllAttention(t *testing.T) {
	items := []models.CartItem{
		lineItem("i1", models.Product{ID: "p1", Price: 100, Stock: 5}, 1),
		lineItem("i2", models.Product{ID: "p2", Price: 200, Stock: 5}, 2),
	}

	s := Summarize(items, guestCustomer(), testConfig())

	assert.Zero(t, s.Subtotal)
	assert.Zero(t, s.Shipping)
	assert.Len(t, s.Attention, 2)
}

func TestSummarizeSubtotalAdditivity(t *testing.T) {
	items := []models.CartItem{
		lineItem("i1", models.Product{ID: "p1", Price: 100, DiscountPrice: 80, Stock: 10}, 3),
		lineItem("i2", models.Product{ID: "p2", Price: 250, Stock: 10}, 1),
		lineItem("i3", tieredProduct(), 20),
	}
	ctx := approvedB2B()
	cfg := testConfig()

	combined := Summarize(items, ctx, cfg)

	var sum int64
	for _, item := range items {
		sum += Summarize([]models.CartItem{item}, ctx, cfg).Subtotal
	}
	assert.Equal(t, sum, combined.Subtotal)
}

func TestValidateQuantity(t *testing.T) {
	p := models.Product{Stock: 10, MaxOrderQuantity: 5}

	assert.NoError(t, ValidateQuantity(p, 1))
	assert.NoError(t, ValidateQuantity(p, 5))
	assert.ErrorIs(t, ValidateQuantity(p, 0), ErrQuantityTooLow)
	assert.ErrorIs(t, ValidateQuantity(p, -2), ErrQuantityTooLow)
	assert.ErrorIs(t, ValidateQuantity(p, 6), ErrMaxOrderExceeded)

	unbounded := models.Product{Stock: 3}
	assert.NoError(t, ValidateQuantity(unbounded, 3))
	assert.ErrorIs(t, ValidateQuantity(unbounded, 4), ErrStockExceeded)
}

func TestValidateAddQuantityMinimumOrder(t *testing.T) {
	p := models.Product{Stock: 100, MinOrderQuantity: 10}

	assert.ErrorIs(t, ValidateAddQuantity(p, 5), ErrBelowMinimumOrder)
	assert.NoError(t, ValidateAddQuantity(p, 10))
}

func TestClampQuantity(t *testing.T) {
	p := models.Product{Stock: 10, MaxOrderQuantity: 8}

	assert.Equal(t, 8, ClampQuantity(p, 20))
	assert.Equal(t, 1, ClampQuantity(p, 0))
	assert.Equal(t, 5, ClampQuantity(p, 5))
	assert.Equal(t, 0, ClampQuantity(models.Product{Stock: 0}, 3))
}

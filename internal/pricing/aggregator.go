package pricing

import (
	"errors"
	"fmt"
	"math"

	"storefront-service/internal/models"
)

// Quantity guard errors. These are raised before any network dispatch.
var (
	ErrQuantityTooLow    = errors.New("quantity below minimum")
	ErrStockExceeded     = errors.New("quantity exceeds available stock")
	ErrMaxOrderExceeded  = errors.New("quantity exceeds maximum order quantity")
	ErrBelowMinimumOrder = errors.New("quantity below product minimum order quantity")
)

// Config carries the aggregation knobs; threshold and fee come from
// configuration, not domain logic.
type Config struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	TaxRate               float64
}

// AttentionItem is a cart line excluded from the subtotal because its price
// could not be resolved for this customer.
type AttentionItem struct {
	ItemID    string       `json:"item_id"`
	ProductID string       `json:"product_id"`
	Kind      DecisionKind `json:"kind"`
	Reason    string       `json:"reason,omitempty"`
}

// Summary is the derived cart totals view.
type Summary struct {
	Subtotal             int64           `json:"subtotal"`
	Shipping             int64           `json:"shipping"`
	Tax                  int64           `json:"tax"`
	Total                int64           `json:"total"`
	Savings              int64           `json:"savings"`
	AmountToFreeShipping int64           `json:"amount_to_free_shipping,omitempty"`
	Attention            []AttentionItem `json:"attention,omitempty"`
}

// Summarize derives cart totals from the line items and the price resolver.
// Items without a resolved price contribute nothing to the subtotal and are
// surfaced in Attention. Per-unit pricing never crosses items, so the
// subtotal is additive over lines.
func Summarize(items []models.CartItem, ctx models.CustomerContext, cfg Config) Summary {
	var s Summary

	for _, item := range items {
		d := Resolve(item.Product, ctx, item.Quantity)
		if d.Kind != DecisionResolved {
			s.Attention = append(s.Attention, AttentionItem{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Kind:      d.Kind,
				Reason:    d.Reason,
			})
			continue
		}
		qty := int64(item.Quantity)
		s.Subtotal += d.Amount * qty
		if d.Amount < item.Product.Price {
			s.Savings += (item.Product.Price - d.Amount) * qty
		}
	}

	switch {
	case s.Subtotal == 0:
		s.Shipping = 0
	case s.Subtotal > cfg.FreeShippingThreshold:
		s.Shipping = 0
	default:
		s.Shipping = cfg.FlatShippingFee
		s.AmountToFreeShipping = cfg.FreeShippingThreshold - s.Subtotal
	}

	s.Tax = int64(math.Round(float64(s.Subtotal) * cfg.TaxRate))
	s.Total = s.Subtotal + s.Shipping + s.Tax
	return s
}

// ValidateQuantity is the client-side guard on quantity edits: the new
// quantity must satisfy 1 <= q <= min(stock, maxOrderQuantity). It runs
// before dispatch, independent of whatever the store API enforces.
func ValidateQuantity(p models.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrQuantityTooLow, quantity)
	}
	if quantity > p.Stock {
		return fmt.Errorf("%w: requested %d, stock %d", ErrStockExceeded, quantity, p.Stock)
	}
	if p.MaxOrderQuantity > 0 && quantity > p.MaxOrderQuantity {
		return fmt.Errorf("%w: requested %d, max %d", ErrMaxOrderExceeded, quantity, p.MaxOrderQuantity)
	}
	return nil
}

// ValidateAddQuantity additionally enforces the product's minimum order
// quantity, which only binds when the line is first created.
func ValidateAddQuantity(p models.Product, quantity int) error {
	if p.MinOrderQuantity > 1 && quantity < p.MinOrderQuantity {
		return fmt.Errorf("%w: requested %d, minimum %d", ErrBelowMinimumOrder, quantity, p.MinOrderQuantity)
	}
	return ValidateQuantity(p, quantity)
}

// ClampQuantity bounds a requested quantity into the valid range for the
// product, used when the UI steps quantities rather than typing them.
func ClampQuantity(p models.Product, quantity int) int {
	max := p.Stock
	if p.MaxOrderQuantity > 0 && p.MaxOrderQuantity < max {
		max = p.MaxOrderQuantity
	}
	if max < 1 {
		// Out of stock: no quantity is valid.
		return 0
	}
	if quantity > max {
		quantity = max
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

package pricing

import (
	"math"

	"storefront-service/internal/models"
)

// DecisionKind discriminates the outcome of price resolution.
type DecisionKind string

const (
	DecisionHidden         DecisionKind = "hidden"
	DecisionPriceOnRequest DecisionKind = "price_on_request"
	DecisionBlocked        DecisionKind = "blocked"
	DecisionResolved       DecisionKind = "resolved"
)

// Basis names the rule that produced a resolved amount.
type Basis string

const (
	BasisBase     Basis = "base"
	BasisDiscount Basis = "discount"
	BasisBulkTier Basis = "bulk_tier"
)

// Decision is the result of resolving a unit price. Amount and Basis are set
// only for DecisionResolved; Tier is set only when a bulk tier applied.
// Reason carries the block/hide cause for the caller to branch on.
type Decision struct {
	Kind   DecisionKind        `json:"kind"`
	Amount int64               `json:"amount,omitempty"`
	Basis  Basis               `json:"basis,omitempty"`
	Tier   *models.PricingTier `json:"tier,omitempty"`
	Reason string              `json:"reason,omitempty"`
}

// Block/hide reasons
const (
	ReasonSignInRequired  = "sign_in_required"
	ReasonPendingApproval = "pending_approval"
	ReasonQuoteRequired   = "quote_required"
)

// Resolve determines the unit price a customer sees for a product at a given
// quantity. It is pure: no clock, no mutable state, identical inputs always
// produce the identical decision. Unavailable pricing is a decision value,
// never an error.
func Resolve(p models.Product, ctx models.CustomerContext, quantity int) Decision {
	b2b := p.B2BPricing

	switch ctx.CustomerType {
	case models.CustomerTypeGuest:
		if b2b.Enabled && b2b.ShowPriceToGuests {
			return resolveBase(p)
		}
		return Decision{Kind: DecisionHidden, Reason: ReasonSignInRequired}

	case models.CustomerTypeB2B:
		if b2b.Enabled && b2b.PriceOnRequest {
			return Decision{Kind: DecisionPriceOnRequest, Reason: ReasonQuoteRequired}
		}
		if !ctx.IsApprovedB2B() {
			if b2b.Enabled && b2b.ShowPriceToGuests {
				return resolveBase(p)
			}
			return Decision{Kind: DecisionBlocked, Reason: ReasonPendingApproval}
		}
		if b2b.Enabled {
			if tier, ok := matchTier(b2b.BulkPricing, quantity); ok {
				return Decision{Kind: DecisionResolved, Amount: tier.PricePerUnit, Basis: BasisBulkTier, Tier: tier}
			}
		}
		return resolveBase(p)

	default:
		return resolveBase(p)
	}
}

// resolveBase applies the discount price when present and lower than base.
func resolveBase(p models.Product) Decision {
	if p.DiscountPrice > 0 && p.DiscountPrice < p.Price {
		return Decision{Kind: DecisionResolved, Amount: p.DiscountPrice, Basis: BasisDiscount}
	}
	return Decision{Kind: DecisionResolved, Amount: p.Price, Basis: BasisBase}
}

// matchTier finds the unique tier whose range contains the quantity. Tiers
// are ordered by ascending MinQuantity and non-overlapping, so the first
// range hit is the only one. A MaxQuantity of 0 is open-ended, which also
// covers quantities beyond every bounded tier.
func matchTier(tiers []models.PricingTier, quantity int) (*models.PricingTier, bool) {
	for i := range tiers {
		t := &tiers[i]
		if quantity < t.MinQuantity {
			continue
		}
		if t.MaxQuantity == 0 || quantity <= t.MaxQuantity {
			return t, true
		}
	}
	return nil, false
}

// DiscountPercent is the informational percentage-off figure shown next to a
// struck-through base price. It never feeds back into resolved amounts.
func DiscountPercent(p models.Product) int {
	if p.Price <= 0 || p.DiscountPrice <= 0 || p.DiscountPrice >= p.Price {
		return 0
	}
	return int(math.Round(float64(p.Price-p.DiscountPrice) / float64(p.Price) * 100))
}

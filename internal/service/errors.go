package service

import (
	"errors"
	"fmt"

	"storefront-service/internal/pricing"
)

var (
	// ErrAuthenticationRequired rejects cart mutations from guests. Guests
	// have no cart, whether or not a product's price is guest-visible.
	ErrAuthenticationRequired = errors.New("authentication required for cart actions")

	// ErrConfirmationRequired gates destructive actions: clearing the cart
	// needs an explicit confirmation from the caller before dispatch.
	ErrConfirmationRequired = errors.New("explicit confirmation required")

	// ErrItemNotFound means the referenced cart line does not exist in the
	// last confirmed cart state.
	ErrItemNotFound = errors.New("cart item not found")

	// ErrQuoteNotApplicable means the product is not price-on-request for
	// this customer, so a quote request makes no sense.
	ErrQuoteNotApplicable = errors.New("product is not price-on-request for this customer")
)

// PricingUnavailableError rejects an add-to-cart for a product whose price
// cannot be resolved for the customer. The decision tells the caller which
// affordance to offer instead (sign-in, quote request, approval pending).
type PricingUnavailableError struct {
	Decision pricing.Decision
}

func (e *PricingUnavailableError) Error() string {
	return fmt.Sprintf("price unavailable: %s (%s)", e.Decision.Kind, e.Decision.Reason)
}

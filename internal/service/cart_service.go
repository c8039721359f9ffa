package service

import (
	"context"

	"storefront-service/internal/backend"
	"storefront-service/internal/cache"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CartService owns cart reads and the cart mutation flows. All quantity
// guards run locally before any dispatch; the displayed cart always reflects
// the last confirmed server state.
type CartService struct {
	cache   *cache.Cache
	backend *backend.Client
	catalog *CatalogService
	coord   *Coordinator
	cfg     pricing.Config
	logger  *zap.Logger
}

func NewCartService(c *cache.Cache, b *backend.Client, catalog *CatalogService, coord *Coordinator, cfg pricing.Config) *CartService {
	return &CartService{
		cache:   c,
		backend: b,
		catalog: catalog,
		coord:   coord,
		cfg:     cfg,
		logger:  util.NamedLogger("cart"),
	}
}

// GetCart reads the cart through the cache.
func (s *CartService) GetCart(ctx context.Context) (*models.Cart, error) {
	tags := []cache.Tag{cache.CoarseTag(cache.TagCart)}
	return cache.QueryTyped(ctx, s.cache, endpointCart, nil, tags, func(ctx context.Context) (*models.Cart, error) {
		return s.backend.FetchCart(ctx)
	})
}

// Summarize derives cart totals for the customer.
func (s *CartService) Summarize(ctx context.Context, custCtx models.CustomerContext) (pricing.Summary, error) {
	cart, err := s.GetCart(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}
	return pricing.Summarize(cart.Items, custCtx, s.cfg), nil
}

// AddToCart adds a product after resolving its price for the customer and
// validating the quantity against stock and order bounds.
func (s *CartService) AddToCart(ctx context.Context, custCtx models.CustomerContext, req backend.AddToCartRequest) (*models.Cart, error) {
	if custCtx.CustomerType == models.CustomerTypeGuest {
		return nil, ErrAuthenticationRequired
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	decision := pricing.Resolve(*product, custCtx, req.Quantity)
	if decision.Kind != pricing.DecisionResolved {
		return nil, &PricingUnavailableError{Decision: decision}
	}

	if err := pricing.ValidateAddQuantity(*product, req.Quantity); err != nil {
		util.QuantityGuardRejectionsTotal.Inc()
		return nil, err
	}

	var cart *models.Cart
	err = s.coord.Run(ctx, cache.MutationAddToCart, "", models.EventTypeCartMutated, func(ctx context.Context) error {
		cart, err = s.backend.AddToCart(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Added product to cart",
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity))
	return cart, nil
}

// UpdateQuantity changes one cart line's quantity. The new quantity is
// checked against the line's product snapshot before any network call.
func (s *CartService) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*models.Cart, error) {
	current, err := s.GetCart(ctx)
	if err != nil {
		return nil, err
	}

	var item *models.CartItem
	for i := range current.Items {
		if current.Items[i].ID == itemID {
			item = &current.Items[i]
			break
		}
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	if err := pricing.ValidateQuantity(item.Product, quantity); err != nil {
		util.QuantityGuardRejectionsTotal.Inc()
		return nil, err
	}

	var cart *models.Cart
	err = s.coord.Run(ctx, cache.MutationUpdateItemQuantity, "", models.EventTypeCartMutated, func(ctx context.Context) error {
		cart, err = s.backend.UpdateItemQuantity(ctx, itemID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes one cart line.
func (s *CartService) RemoveItem(ctx context.Context, itemID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.coord.Run(ctx, cache.MutationRemoveItem, "", models.EventTypeCartMutated, func(ctx context.Context) error {
		var err error
		cart, err = s.backend.RemoveItem(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart empties the cart. The confirmed flag must come from an explicit
// user confirmation; clearing is idempotent once confirmed.
func (s *CartService) ClearCart(ctx context.Context, confirmed bool) (*models.Cart, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	var cart *models.Cart
	err := s.coord.Run(ctx, cache.MutationClearCart, "", models.EventTypeCartMutated, func(ctx context.Context) error {
		var err error
		cart, err = s.backend.ClearCart(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cart cleared")
	return cart, nil
}

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

// Cache endpoint identities. Entry keys derive from these plus the
// normalized argument set.
const (
	endpointCart     = "GET /cart"
	endpointProduct  = "GET /products/:id"
	endpointProducts = "GET /products"
	endpointWishlist = "GET /users/wishlist"
)

// CatalogService serves product and wishlist reads through the entity cache
// and wishlist writes through the coordinator.
type CatalogService struct {
	cache   *cache.Cache
	backend *backend.Client
	coord   *Coordinator
	logger  *zap.Logger
}

func NewCatalogService(c *cache.Cache, b *backend.Client, coord *Coordinator) *CatalogService {
	return &CatalogService{
		cache:   c,
		backend: b,
		coord:   coord,
		logger:  util.NamedLogger("catalog"),
	}
}

// GetProduct reads one product through the cache.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	args := map[string]string{"id": id}
	tags := []cache.Tag{cache.EntityTag(cache.TagProduct, id)}
	return cache.QueryTyped(ctx, s.cache, endpointProduct, args, tags, func(ctx context.Context) (*models.Product, error) {
		return s.backend.FetchProduct(ctx, id)
	})
}

// ListProducts reads a filtered product listing through the cache. Listings
// carry the coarse product tag so any product mutation refreshes them.
func (s *CatalogService) ListProducts(ctx context.Context, filters map[string]string) ([]models.Product, error) {
	tags := []cache.Tag{cache.CoarseTag(cache.TagProduct)}
	return cache.QueryTyped(ctx, s.cache, endpointProducts, filters, tags, func(ctx context.Context) ([]models.Product, error) {
		return s.backend.FetchProducts(ctx, filters)
	})
}

// GetWishlist reads the user's wishlist through the cache.
func (s *CatalogService) GetWishlist(ctx context.Context) ([]models.Product, error) {
	tags := []cache.Tag{cache.CoarseTag(cache.TagWishlist)}
	return cache.QueryTyped(ctx, s.cache, endpointWishlist, nil, tags, func(ctx context.Context) ([]models.Product, error) {
		return s.backend.FetchWishlist(ctx)
	})
}

// AddToWishlist adds a product to the wishlist and refreshes wishlist entries.
func (s *CatalogService) AddToWishlist(ctx context.Context, productID string) error {
	return s.coord.Run(ctx, cache.MutationAddToWishlist, "", models.EventTypeWishlistMutated, func(ctx context.Context) error {
		return s.backend.AddToWishlist(ctx, productID)
	})
}

// RemoveFromWishlist removes a product from the wishlist.
func (s *CatalogService) RemoveFromWishlist(ctx context.Context, productID string) error {
	return s.coord.Run(ctx, cache.MutationRemoveFromWishlist, "", models.EventTypeWishlistMutated, func(ctx context.Context) error {
		return s.backend.RemoveFromWishlist(ctx, productID)
	})
}

// SubscribeProduct attaches a live subscription to one product's cache entry,
// so a detail view refreshes when an admin mutation invalidates it.
func (s *CatalogService) SubscribeProduct(id string) *cache.Subscription {
	args := map[string]string{"id": id}
	tags := []cache.Tag{cache.EntityTag(cache.TagProduct, id)}
	return s.cache.Subscribe(endpointProduct, args, tags, func(ctx context.Context) (interface{}, error) {
		return s.backend.FetchProduct(ctx, id)
	})
}

// PriceFor resolves the price decision a customer sees for a product at a
// given quantity.
func (s *CatalogService) PriceFor(ctx context.Context, productID string, custCtx models.CustomerContext, quantity int) (pricing.Decision, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return pricing.Decision{}, err
	}
	d := pricing.Resolve(*product, custCtx, quantity)
	util.PriceDecisionsTotal.WithLabelValues(string(d.Kind)).Inc()
	return d, nil
}

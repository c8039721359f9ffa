package service

import (
	"context"

	"storefront-service/internal/backend"
	"storefront-service/internal/cache"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

const (
	endpointAdminProducts = "GET /admin/products"
	endpointDashboard     = "GET /admin/dashboard"
)

// AdminService owns the back-office product mutations. Image payloads travel
// as multipart bodies; product mutations refresh every product, admin and
// dashboard entry.
type AdminService struct {
	cache   *cache.Cache
	backend *backend.Client
	coord   *Coordinator
	logger  *zap.Logger
}

func NewAdminService(c *cache.Cache, b *backend.Client, coord *Coordinator) *AdminService {
	return &AdminService{
		cache:   c,
		backend: b,
		coord:   coord,
		logger:  util.NamedLogger("admin"),
	}
}

// ListProducts reads the admin product listing through the cache.
func (s *AdminService) ListProducts(ctx context.Context) ([]models.Product, error) {
	tags := []cache.Tag{cache.CoarseTag(cache.TagAdminProducts)}
	return cache.QueryTyped(ctx, s.cache, endpointAdminProducts, nil, tags, func(ctx context.Context) ([]models.Product, error) {
		return s.backend.FetchProducts(ctx, map[string]string{"view": "admin"})
	})
}

// GetDashboardStats reads the back-office dashboard figures through the cache.
func (s *AdminService) GetDashboardStats(ctx context.Context) (map[string]interface{}, error) {
	tags := []cache.Tag{cache.CoarseTag(cache.TagDashboard)}
	return cache.QueryTyped(ctx, s.cache, endpointDashboard, nil, tags, func(ctx context.Context) (map[string]interface{}, error) {
		return s.backend.FetchDashboardStats(ctx)
	})
}

// CreateProduct creates a product from form fields and image files.
func (s *AdminService) CreateProduct(ctx context.Context, fields map[string]string, images []backend.ImageFile) (*models.Product, error) {
	var product *models.Product
	err := s.coord.Run(ctx, cache.MutationCreateProduct, "", models.EventTypeProductMutated, func(ctx context.Context) error {
		var err error
		product, err = s.backend.CreateProduct(ctx, fields, images)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", product.ID))
	return product, nil
}

// UpdateProduct updates a product; the entity-scoped tag refreshes any detail
// view of it alongside the listings.
func (s *AdminService) UpdateProduct(ctx context.Context, id string, fields map[string]string, images []backend.ImageFile) (*models.Product, error) {
	var product *models.Product
	err := s.coord.Run(ctx, cache.MutationUpdateProduct, id, models.EventTypeProductMutated, func(ctx context.Context) error {
		var err error
		product, err = s.backend.UpdateProduct(ctx, id, fields, images)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct deletes a product.
func (s *AdminService) DeleteProduct(ctx context.Context, id string) error {
	return s.coord.Run(ctx, cache.MutationDeleteProduct, id, models.EventTypeProductMutated, func(ctx context.Context) error {
		return s.backend.DeleteProduct(ctx, id)
	})
}

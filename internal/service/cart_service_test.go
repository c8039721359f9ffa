package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/backend"
	"storefront-service/internal/cache"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

// capturePublisher records mutation events instead of touching Kafka.
type capturePublisher struct {
	mu     sync.Mutex
	events []*models.MutationEvent
}

func (p *capturePublisher) PublishMutation(ctx context.Context, event *models.MutationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// fakeStore is an in-memory stand-in for the remote store API.
type fakeStore struct {
	mu       sync.Mutex
	cart     models.Cart
	products map[string]models.Product
	calls    map[string]int
	failPath string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[string]models.Product),
		calls:    make(map[string]int),
	}
}

func (f *fakeStore) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeStore) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		f.calls[key]++

		if f.failPath != "" && strings.HasPrefix(key, f.failPath) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "store exploded"})
			return
		}

		switch {
		case key == "GET /cart":
			json.NewEncoder(w).Encode(f.cart)

		case key == "POST /cart/add":
			var req backend.AddToCartRequest
			json.NewDecoder(r.Body).Decode(&req)
			f.cart.Items = append(f.cart.Items, models.CartItem{
				ID:        "item-" + req.ProductID,
				ProductID: req.ProductID,
				Product:   f.products[req.ProductID],
				Quantity:  req.Quantity,
			})
			f.cart.UpdatedAt = time.Now()
			json.NewEncoder(w).Encode(f.cart)

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/cart/item/"):
			var req struct {
				Quantity int `json:"quantity"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			itemID := strings.TrimPrefix(r.URL.Path, "/cart/item/")
			for i := range f.cart.Items {
				if f.cart.Items[i].ID == itemID {
					f.cart.Items[i].Quantity = req.Quantity
				}
			}
			json.NewEncoder(w).Encode(f.cart)

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/cart/item/"):
			itemID := strings.TrimPrefix(r.URL.Path, "/cart/item/")
			kept := f.cart.Items[:0]
			for _, item := range f.cart.Items {
				if item.ID != itemID {
					kept = append(kept, item)
				}
			}
			f.cart.Items = kept
			json.NewEncoder(w).Encode(f.cart)

		case key == "DELETE /cart":
			f.cart.Items = nil
			json.NewEncoder(w).Encode(f.cart)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/products/"):
			id := strings.TrimPrefix(r.URL.Path, "/products/")
			p, ok := f.products[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "product not found"})
				return
			}
			json.NewEncoder(w).Encode(p)

		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no route"})
		}
	})
}

type testEnv struct {
	store     *fakeStore
	server    *httptest.Server
	cache     *cache.Cache
	publisher *capturePublisher
	cart      *CartService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fs := newFakeStore()
	server := httptest.NewServer(fs.handler())
	t.Cleanup(server.Close)

	entityCache := cache.New(zap.NewNop())
	client := backend.NewClient(server.URL, 5*time.Second)
	publisher := &capturePublisher{}
	coord := NewCoordinator(entityCache, publisher, "test-instance")
	catalog := NewCatalogService(entityCache, client, coord)
	cart := NewCartService(entityCache, client, catalog, coord, pricing.Config{
		FreeShippingThreshold: 500,
		FlatShippingFee:       50,
		TaxRate:               0.18,
	})

	return &testEnv{
		store:     fs,
		server:    server,
		cache:     entityCache,
		publisher: publisher,
		cart:      cart,
	}
}

func (e *testEnv) seedProduct(p models.Product) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.products[p.ID] = p
}

func (e *testEnv) seedCartItem(item models.CartItem) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.cart.Items = append(e.store.cart.Items, item)
}

func b2c() models.CustomerContext {
	return models.CustomerContext{CustomerType: models.CustomerTypeB2C}
}

func TestAddToCartRefreshesCachedCart(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(models.Product{ID: "p1", Price: 100, Stock: 10, Status: models.ProductStatusActive})

	ctx := context.Background()

	cart, err := env.cart.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 1, env.store.callCount("GET /cart"))

	_, err = env.cart.AddToCart(ctx, b2c(), backend.AddToCartRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)

	// The cart entry was invalidated, so this read refetches.
	cart, err = env.cart.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, 2, env.store.callCount("GET /cart"))

	assert.Equal(t, 1, env.publisher.count())
}

func TestAddToCartGuestRejectedBeforeDispatch(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(models.Product{ID: "p1", Price: 100, Stock: 10})

	guest := models.CustomerContext{CustomerType: models.CustomerTypeGuest}
	_, err := env.cart.AddToCart(context.Background(), guest, backend.AddToCartRequest{ProductID: "p1", Quantity: 1})

	require.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, 0, env.store.callCount("POST /cart/add"))
}

func TestAddToCartGuestRejectedDespiteVisiblePrice(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(models.Product{
		ID:         "p1",
		Price:      100,
		Stock:      10,
		B2BPricing: models.B2BPricing{Enabled: true, ShowPriceToGuests: true},
	})

	// The price resolves for guests, but the cart still requires a session.
	guest := models.CustomerContext{CustomerType: models.CustomerTypeGuest}
	d := pricing.Resolve(env.store.products["p1"], guest, 1)
	require.Equal(t, pricing.DecisionResolved, d.Kind)

	_, err := env.cart.AddToCart(context.Background(), guest, backend.AddToCartRequest{ProductID: "p1", Quantity: 1})

	require.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, 0, env.store.callCount("POST /cart/add"))
	assert.Equal(t, 0, env.publisher.count())
}

func TestAddToCartQuantityGuardBeforeDispatch(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(models.Product{ID: "p1", Price: 100, Stock: 3})

	_, err := env.cart.AddToCart(context.Background(), b2c(), backend.AddToCartRequest{ProductID: "p1", Quantity: 5})

	assert.ErrorIs(t, err, pricing.ErrStockExceeded)
	assert.Equal(t, 0, env.store.callCount("POST /cart/add"))
	assert.Equal(t, 0, env.publisher.count())
}

func TestUpdateQuantityClampsAgainstSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.seedCartItem(models.CartItem{
		ID:        "item-1",
		ProductID: "p1",
		Product:   models.Product{ID: "p1", Price: 100, Stock: 10, MaxOrderQuantity: 4},
		Quantity:  2,
	})

	ctx := context.Background()

	_, err := env.cart.UpdateQuantity(ctx, "item-1", 5)
	assert.ErrorIs(t, err, pricing.ErrMaxOrderExceeded)

	_, err = env.cart.UpdateQuantity(ctx, "item-1", 0)
	assert.ErrorIs(t, err, pricing.ErrQuantityTooLow)

	assert.Equal(t, 0, env.store.callCount("PUT /cart/item/item-1"))

	cart, err := env.cart.UpdateQuantity(ctx, "item-1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
}

func TestUpdateQuantityUnknownItem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cart.UpdateQuantity(context.Background(), "missing", 1)

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestFailedRemoveLeavesCacheUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.seedCartItem(models.CartItem{
		ID:        "item-1",
		ProductID: "p1",
		Product:   models.Product{ID: "p1", Price: 100, Stock: 10},
		Quantity:  1,
	})

	ctx := context.Background()

	cart, err := env.cart.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	env.store.mu.Lock()
	env.store.failPath = "DELETE /cart/item/"
	env.store.mu.Unlock()

	_, err = env.cart.RemoveItem(ctx, "item-1")
	require.Error(t, err)

	// No invalidation happened: the cached cart still serves without a refetch.
	cart, err = env.cart.GetCart(ctx)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 1, env.store.callCount("GET /cart"))
	assert.Equal(t, 0, env.publisher.count())
}

func TestClearCartRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cart.ClearCart(context.Background(), false)

	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Equal(t, 0, env.store.callCount("DELETE /cart"))
}

func TestClearCartIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedCartItem(models.CartItem{
		ID:        "item-1",
		ProductID: "p1",
		Product:   models.Product{ID: "p1", Price: 100, Stock: 10},
		Quantity:  1,
	})

	ctx := context.Background()

	cart, err := env.cart.ClearCart(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = env.cart.ClearCart(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.Equal(t, 2, env.store.callCount("DELETE /cart"))
}

func TestSummarizeUsesCachedCart(t *testing.T) {
	env := newTestEnv(t)
	env.seedCartItem(models.CartItem{
		ID:        "item-1",
		ProductID: "p1",
		Product:   models.Product{ID: "p1", Price: 100, DiscountPrice: 80, Stock: 10},
		Quantity:  3,
	})

	summary, err := env.cart.Summarize(context.Background(), b2c())
	require.NoError(t, err)

	assert.Equal(t, int64(240), summary.Subtotal)
	assert.Equal(t, int64(60), summary.Savings)
	assert.Equal(t, int64(50), summary.Shipping)
}

func TestMutationEventCarriesInvalidationTags(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(models.Product{ID: "p1", Price: 100, Stock: 10})

	_, err := env.cart.AddToCart(context.Background(), b2c(), backend.AddToCartRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	require.Equal(t, 1, env.publisher.count())
	event := env.publisher.events[0]
	assert.Equal(t, models.EventTypeCartMutated, event.EventType)
	assert.Equal(t, string(cache.MutationAddToCart), event.Mutation)
	assert.Equal(t, "test-instance", event.InstanceID)
	require.Len(t, event.Tags, 1)
	assert.Equal(t, string(cache.TagCart), event.Tags[0].Type)
}

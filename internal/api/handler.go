package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/backend"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	cart    *service.CartService
	catalog *service.CatalogService
	admin   *service.AdminService
	quotes  *service.QuoteService
}

// NewHandler creates a new HTTP handler
func NewHandler(cart *service.CartService, catalog *service.CatalogService, admin *service.AdminService, quotes *service.QuoteService) *Handler {
	return &Handler{
		cart:    cart,
		catalog: catalog,
		admin:   admin,
		quotes:  quotes,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/cart", h.getCart)
		v1.GET("/cart/summary", h.getCartSummary)
		v1.POST("/cart/add", h.addToCart)
		v1.PUT("/cart/item/:itemId", h.updateItemQuantity)
		v1.DELETE("/cart/item/:itemId", h.removeItem)
		v1.DELETE("/cart", h.clearCart)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/price", h.getPrice)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.GET("/users/wishlist", h.getWishlist)
		v1.POST("/users/wishlist/add/:id", h.addToWishlist)
		v1.DELETE("/users/wishlist/remove/:id", h.removeFromWishlist)

		v1.GET("/admin/products", h.listAdminProducts)
		v1.GET("/admin/dashboard", h.getDashboard)

		v1.POST("/quotes", h.createQuote)
		v1.GET("/quotes", h.listQuotes)
		v1.GET("/quotes/:id", h.getQuote)
		v1.PUT("/quotes/:id", h.decideQuote)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// customerContext derives the pricing context from gateway-set headers.
func customerContext(c *gin.Context) models.CustomerContext {
	ctx := models.CustomerContext{
		CustomerType:   c.GetHeader("X-Customer-Type"),
		ApprovalStatus: c.GetHeader("X-Approval-Status"),
	}
	if ctx.CustomerType == "" {
		ctx.CustomerType = models.CustomerTypeGuest
	}
	if ctx.ApprovalStatus == "" {
		ctx.ApprovalStatus = models.ApprovalStatusNone
	}
	return ctx
}

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.cart.GetCart(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) getCartSummary(c *gin.Context) {
	summary, err := h.cart.Summarize(c.Request.Context(), customerContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) addToCart(c *gin.Context) {
	var req backend.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	cart, err := h.cart.AddToCart(c.Request.Context(), customerContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

func (h *Handler) updateItemQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	cart, err := h.cart.UpdateQuantity(c.Request.Context(), c.Param("itemId"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) removeItem(c *gin.Context) {
	cart, err := h.cart.RemoveItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) clearCart(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	cart, err := h.cart.ClearCart(c.Request.Context(), confirmed)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) listProducts(c *gin.Context) {
	filters := map[string]string{}
	for _, key := range []string{"category", "search", "page", "limit"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}
	products, err := h.catalog.ListProducts(c.Request.Context(), filters)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) getPrice(c *gin.Context) {
	quantity := 1
	if q := c.Query("quantity"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
			return
		}
		quantity = parsed
	}

	decision, err := h.catalog.PriceFor(c.Request.Context(), c.Param("id"), customerContext(c), quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *Handler) getWishlist(c *gin.Context) {
	products, err := h.catalog.GetWishlist(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) addToWishlist(c *gin.Context) {
	if err := h.catalog.AddToWishlist(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeFromWishlist(c *gin.Context) {
	if err := h.catalog.RemoveFromWishlist(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listAdminProducts(c *gin.Context) {
	products, err := h.admin.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getDashboard(c *gin.Context) {
	stats, err := h.admin.GetDashboardStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) createProduct(c *gin.Context) {
	fields, images, err := productForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form", "details": err.Error()})
		return
	}

	product, err := h.admin.CreateProduct(c.Request.Context(), fields, images)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	fields, images, err := productForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form", "details": err.Error()})
		return
	}

	product, err := h.admin.UpdateProduct(c.Request.Context(), c.Param("id"), fields, images)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.admin.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// productForm collects the admin multipart form into plain fields and image
// payloads for the backend client.
func productForm(c *gin.Context) (map[string]string, []backend.ImageFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}

	fields := make(map[string]string, len(form.Value))
	for k, v := range form.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	var images []backend.ImageFile
	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, err
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		images = append(images, backend.ImageFile{Name: fh.Filename, Content: content})
	}
	return fields, images, nil
}

func (h *Handler) createQuote(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
		Note      string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	customerID := c.GetHeader("X-Customer-ID")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Customer identity required"})
		return
	}

	quote, err := h.quotes.RequestQuote(c.Request.Context(), customerContext(c), customerID, req.ProductID, req.Quantity, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (h *Handler) listQuotes(c *gin.Context) {
	customerID := c.GetHeader("X-Customer-ID")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Customer identity required"})
		return
	}

	quotes, err := h.quotes.ListQuotes(c.Request.Context(), customerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *Handler) getQuote(c *gin.Context) {
	quote, err := h.quotes.GetQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) decideQuote(c *gin.Context) {
	var req struct {
		Status          string `json:"status" binding:"required"`
		QuotedUnitPrice int64  `json:"quoted_unit_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.quotes.RecordDecision(c.Request.Context(), c.Param("id"), req.Status, req.QuotedUnitPrice); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps the error taxonomy onto HTTP responses. Transport failures
// are retryable; guard rejections and business states are not.
func writeError(c *gin.Context, err error) {
	var (
		authErr  *backend.AuthError
		valErr   *backend.ValidationError
		netErr   *backend.NetworkError
		apiErr   *backend.APIError
		priceErr *service.PricingUnavailableError
	)

	switch {
	case errors.As(err, &authErr), errors.Is(err, service.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})

	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Message, "fields": valErr.Fields})

	case errors.As(err, &netErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Store temporarily unreachable", "retryable": true})

	case errors.As(err, &priceErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "decision": priceErr.Decision})

	case errors.Is(err, service.ErrConfirmationRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Confirmation required", "details": "pass confirm=true to clear the cart"})

	case errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})

	case errors.Is(err, store.ErrQuoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})

	case errors.Is(err, service.ErrQuoteNotApplicable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, pricing.ErrQuantityTooLow),
		errors.Is(err, pricing.ErrStockExceeded),
		errors.Is(err, pricing.ErrMaxOrderExceeded),
		errors.Is(err, pricing.ErrBelowMinimumOrder):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.As(err, &apiErr):
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

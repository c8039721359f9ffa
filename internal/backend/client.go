package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// NetworkError means the request never reached the store API or no response
// arrived. Callers may retry manually; this layer never retries.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("store api unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is a 4xx response carrying per-field messages.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("store api rejected request (%d): %s", e.Status, e.Message)
}

// AuthError is a 401; the caller must send the user to sign-in.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication required: %s", e.Message)
}

// APIError is any other non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store api error (%d): %s", e.Status, e.Message)
}

// TokenProvider supplies the session token for outbound requests. Token
// storage itself lives outside this service.
type TokenProvider func() string

// Client talks to the remote store API.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenProvider
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  util.NamedLogger("backend"),
	}
}

// SetTokenProvider installs the session token source.
func (c *Client) SetTokenProvider(tp TokenProvider) {
	c.token = tp
}

// FetchCart retrieves the session cart.
func (c *Client) FetchCart(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	if err := c.doJSON(ctx, http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCartRequest is the add-to-cart payload.
type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// AddToCart adds a product to the cart.
func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*models.Cart, error) {
	var cart models.Cart
	if err := c.doJSON(ctx, http.MethodPost, "/cart/add", req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateItemQuantity changes one cart line's quantity.
func (c *Client) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (*models.Cart, error) {
	body := map[string]int{"quantity": quantity}
	var cart models.Cart
	if err := c.doJSON(ctx, http.MethodPut, "/cart/item/"+url.PathEscape(itemID), body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveItem deletes one cart line.
func (c *Client) RemoveItem(ctx context.Context, itemID string) (*models.Cart, error) {
	var cart models.Cart
	if err := c.doJSON(ctx, http.MethodDelete, "/cart/item/"+url.PathEscape(itemID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart empties the cart. Clearing an already-empty cart succeeds.
func (c *Client) ClearCart(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	if err := c.doJSON(ctx, http.MethodDelete, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// FetchProduct retrieves one product.
func (c *Client) FetchProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchProducts retrieves a product listing with optional filter args.
func (c *Client) FetchProducts(ctx context.Context, args map[string]string) ([]models.Product, error) {
	path := "/products"
	if len(args) > 0 {
		q := url.Values{}
		for k, v := range args {
			q.Set(k, v)
		}
		path += "?" + q.Encode()
	}
	var products []models.Product
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// FetchDashboardStats retrieves the back-office dashboard figures.
func (c *Client) FetchDashboardStats(ctx context.Context) (map[string]interface{}, error) {
	var stats map[string]interface{}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/dashboard", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// FetchWishlist retrieves the user's wishlist products.
func (c *Client) FetchWishlist(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.doJSON(ctx, http.MethodGet, "/users/wishlist", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// AddToWishlist adds a product to the wishlist.
func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.doJSON(ctx, http.MethodPost, "/users/wishlist/add/"+url.PathEscape(productID), nil, nil)
}

// RemoveFromWishlist removes a product from the wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/wishlist/remove/"+url.PathEscape(productID), nil, nil)
}

// ImageFile is a binary image attached to an admin product mutation.
type ImageFile struct {
	Name    string
	Content []byte
}

// CreateProduct creates a product via multipart form.
func (c *Client) CreateProduct(ctx context.Context, fields map[string]string, images []ImageFile) (*models.Product, error) {
	var p models.Product
	if err := c.doMultipart(ctx, http.MethodPost, "/products", fields, images, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct updates a product via multipart form.
func (c *Client) UpdateProduct(ctx context.Context, id string, fields map[string]string, images []ImageFile) (*models.Product, error) {
	var p models.Product
	if err := c.doMultipart(ctx, http.MethodPut, "/products/"+url.PathEscape(id), fields, images, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// doJSON sends a request with an optional JSON body and decodes the response
// into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, out)
}

// doMultipart sends a multipart form request. The Content-Type header comes
// from the multipart writer; nothing else may set it.
func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, images []ImageFile, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	for _, img := range images {
		fw, err := w.CreateFormFile("images", img.Name)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := fw.Write(img.Content); err != nil {
			return fmt.Errorf("failed to write image %s: %w", img.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return c.do(ctx, method, path, &buf, w.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	ctx, span := util.StartSpan(ctx, "backend."+method+" "+path)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return c.classifyError(resp)
}

// errorBody is the store API's error envelope.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (c *Client) classifyError(resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &eb)
	if eb.Error == "" {
		eb.Error = strings.TrimSpace(string(raw))
	}

	c.logger.Warn("Store API returned error",
		zap.Int("status", resp.StatusCode),
		zap.String("message", eb.Error))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Message: eb.Error}
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && len(eb.Fields) > 0:
		return &ValidationError{Status: resp.StatusCode, Message: eb.Error, Fields: eb.Fields}
	default:
		return &APIError{Status: resp.StatusCode, Message: eb.Error}
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/models"
)

// ErrQuoteNotFound means no quote request exists for the given ID. Transport
// and query failures are returned as-is, distinct from this.
var ErrQuoteNotFound = errors.New("quote request not found")

// CreateQuoteRequest persists a new quote request
func (s *Store) CreateQuoteRequest(ctx context.Context, q *models.QuoteRequest) error {
	query := `
		INSERT INTO quote_requests (id, product_id, customer_id, quantity, note, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, q, query,
		q.ID, q.ProductID, q.CustomerID, q.Quantity, q.Note, q.Status)
}

// GetQuoteRequestByID retrieves a quote request by ID
func (s *Store) GetQuoteRequestByID(ctx context.Context, id string) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	err := s.db.GetContext(ctx, &q, "SELECT * FROM quote_requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrQuoteNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuoteRequestsByCustomer retrieves a customer's quote requests, newest first
func (s *Store) GetQuoteRequestsByCustomer(ctx context.Context, customerID string) ([]models.QuoteRequest, error) {
	var quotes []models.QuoteRequest
	err := s.db.SelectContext(ctx, &quotes,
		"SELECT * FROM quote_requests WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return quotes, err
}

// GetOpenQuoteRequest finds a pending quote for the same product, customer and
// quantity, so repeated submissions stay idempotent
func (s *Store) GetOpenQuoteRequest(ctx context.Context, productID, customerID string, quantity int) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	err := s.db.GetContext(ctx, &q,
		`SELECT * FROM quote_requests
		 WHERE product_id = $1 AND customer_id = $2 AND quantity = $3 AND status = $4
		 ORDER BY created_at DESC LIMIT 1`,
		productID, customerID, quantity, models.QuoteStatusPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateQuoteRequestStatus records the outcome of a quote request
func (s *Store) UpdateQuoteRequestStatus(ctx context.Context, id, status string, quotedUnitPrice int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE quote_requests SET status = $1, quoted_unit_price = $2, updated_at = NOW() WHERE id = $3",
		status, quotedUnitPrice, id)
	return err
}

package service

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuotePublisher publishes quote lifecycle events.
type QuotePublisher interface {
	PublishQuoteRequested(ctx context.Context, event *models.QuoteRequestedEvent) error
}

// QuoteService handles price-on-request products: instead of a numeric price,
// the customer files a quote request that the sales team answers offline.
type QuoteService struct {
	store      *store.Store
	catalog    *CatalogService
	publisher  QuotePublisher
	instanceID string
	logger     *zap.Logger
}

func NewQuoteService(st *store.Store, catalog *CatalogService, publisher QuotePublisher, instanceID string) *QuoteService {
	return &QuoteService{
		store:      st,
		catalog:    catalog,
		publisher:  publisher,
		instanceID: instanceID,
		logger:     util.NamedLogger("quotes"),
	}
}

// RequestQuote files a quote request. Only valid when price resolution
// yields price-on-request for this customer; re-submitting while an earlier
// request is still pending returns the pending one.
func (s *QuoteService) RequestQuote(ctx context.Context, custCtx models.CustomerContext, customerID, productID string, quantity int, note string) (*models.QuoteRequest, error) {
	ctx, span := util.StartSpan(ctx, "QuoteService.RequestQuote")
	defer span.End()

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	decision := pricing.Resolve(*product, custCtx, quantity)
	if decision.Kind != pricing.DecisionPriceOnRequest {
		return nil, fmt.Errorf("%w: decision is %s", ErrQuoteNotApplicable, decision.Kind)
	}

	existing, err := s.store.GetOpenQuoteRequest(ctx, productID, customerID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to check open quotes: %w", err)
	}
	if existing != nil {
		s.logger.Info("Returning already-pending quote request",
			zap.String("quote_id", existing.ID))
		return existing, nil
	}

	quote := &models.QuoteRequest{
		ID:         uuid.New().String(),
		ProductID:  productID,
		CustomerID: customerID,
		Quantity:   quantity,
		Note:       note,
		Status:     models.QuoteStatusPending,
	}
	if err := s.store.CreateQuoteRequest(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}

	util.QuoteRequestsTotal.Inc()
	s.logger.Info("Quote request created",
		zap.String("quote_id", quote.ID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))

	event := &models.QuoteRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:    uuid.New().String(),
			EventType:  models.EventTypeQuoteRequested,
			InstanceID: s.instanceID,
			Timestamp:  time.Now(),
		},
		QuoteID:    quote.ID,
		ProductID:  productID,
		CustomerID: customerID,
		Quantity:   quantity,
	}
	if err := s.publisher.PublishQuoteRequested(ctx, event); err != nil {
		s.logger.Error("Failed to publish QuoteRequested event", zap.Error(err))
	}

	return quote, nil
}

// GetQuote retrieves one quote request.
func (s *QuoteService) GetQuote(ctx context.Context, id string) (*models.QuoteRequest, error) {
	return s.store.GetQuoteRequestByID(ctx, id)
}

// ListQuotes retrieves a customer's quote requests.
func (s *QuoteService) ListQuotes(ctx context.Context, customerID string) ([]models.QuoteRequest, error) {
	return s.store.GetQuoteRequestsByCustomer(ctx, customerID)
}

// RecordDecision records the sales team's answer to a quote request.
func (s *QuoteService) RecordDecision(ctx context.Context, id, status string, quotedUnitPrice int64) error {
	if status != models.QuoteStatusQuoted && status != models.QuoteStatusDeclined {
		return fmt.Errorf("invalid quote status: %s", status)
	}
	return s.store.UpdateQuoteRequestStatus(ctx, id, status, quotedUnitPrice)
}

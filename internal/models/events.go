package models

import "time"

// Event types
const (
	EventTypeCartMutated     = "CART_MUTATED"
	EventTypeProductMutated  = "PRODUCT_MUTATED"
	EventTypeWishlistMutated = "WISHLIST_MUTATED"
	EventTypeQuoteRequested  = "QUOTE_REQUESTED"
)

// BaseEvent contains common fields for all events. InstanceID identifies the
// publishing replica so consumers can skip events they produced themselves.
type BaseEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	InstanceID string    `json:"instance_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// TagRef is the wire form of a cache tag. An empty ID means the coarse tag.
type TagRef struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// MutationEvent is published after any successful mutation. Tags carries the
// invalidation set so peer replicas can mark their own caches stale.
type MutationEvent struct {
	BaseEvent
	Mutation string   `json:"mutation"`
	Tags     []TagRef `json:"tags"`
}

// QuoteRequestedEvent is published when a price-on-request quote is created.
type QuoteRequestedEvent struct {
	BaseEvent
	QuoteID    string `json:"quote_id"`
	ProductID  string `json:"product_id"`
	CustomerID string `json:"customer_id"`
	Quantity   int    `json:"quantity"`
}

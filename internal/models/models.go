package models

import "time"

// Product statuses
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
	ProductStatusDraft    = "draft"
)

// Customer types
const (
	CustomerTypeGuest = "guest"
	CustomerTypeB2C   = "b2c"
	CustomerTypeB2B   = "b2b"
)

// B2B approval statuses
const (
	ApprovalStatusNone     = "none"
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// PricingTier is a quantity range with its own per-unit price. MaxQuantity of 0
// means the range is open-ended. Discount is advisory metadata carried from the
// store API; it is never re-applied to PricePerUnit.
type PricingTier struct {
	MinQuantity  int   `json:"min_quantity"`
	MaxQuantity  int   `json:"max_quantity,omitempty"`
	PricePerUnit int64 `json:"price_per_unit"`
	Discount     int   `json:"discount,omitempty"`
}

// B2BPricing holds the business-customer pricing rules for a product.
// BulkPricing tiers are ordered by ascending MinQuantity and non-overlapping.
type B2BPricing struct {
	Enabled           bool          `json:"enabled"`
	ShowPriceToGuests bool          `json:"show_price_to_guests"`
	PriceOnRequest    bool          `json:"price_on_request"`
	BulkPricing       []PricingTier `json:"bulk_pricing,omitempty"`
}

// Product represents a catalog product as served by the remote store API.
// DiscountPrice of 0 means no discount. MaxOrderQuantity of 0 means unbounded.
type Product struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Price            int64      `json:"price"`
	DiscountPrice    int64      `json:"discount_price,omitempty"`
	Stock            int        `json:"stock"`
	Status           string     `json:"status"`
	MinOrderQuantity int        `json:"min_order_quantity"`
	MaxOrderQuantity int        `json:"max_order_quantity,omitempty"`
	Images           []string   `json:"images,omitempty"`
	B2BPricing       B2BPricing `json:"b2b_pricing"`
}

// CustomerContext identifies the pricing-relevant facts about the caller.
// ApprovalStatus is meaningful only for B2B customers.
type CustomerContext struct {
	CustomerType   string `json:"customer_type"`
	ApprovalStatus string `json:"approval_status,omitempty"`
}

// IsApprovedB2B reports whether the customer is a business customer whose
// account has been approved.
func (c CustomerContext) IsApprovedB2B() bool {
	return c.CustomerType == CustomerTypeB2B && c.ApprovalStatus == ApprovalStatusApproved
}

// CartItem is a cart line. Product is a denormalized snapshot taken by the
// store API at fetch time; ProductID is the authoritative reference.
type CartItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// Cart is the authenticated session's cart. Item order matters for display
// only, never for totals.
type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Quote request statuses
const (
	QuoteStatusPending  = "PENDING"
	QuoteStatusQuoted   = "QUOTED"
	QuoteStatusDeclined = "DECLINED"
)

// QuoteRequest is a customer's ask for a price on a price-on-request product.
type QuoteRequest struct {
	ID              string    `db:"id" json:"id"`
	ProductID       string    `db:"product_id" json:"product_id"`
	CustomerID      string    `db:"customer_id" json:"customer_id"`
	Quantity        int       `db:"quantity" json:"quantity"`
	Note            string    `db:"note" json:"note,omitempty"`
	Status          string    `db:"status" json:"status"`
	QuotedUnitPrice int64     `db:"quoted_unit_price" json:"quoted_unit_price,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

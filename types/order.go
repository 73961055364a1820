package types

import "time"

// Order statuses describe business fulfillment state. Payment is tracked
// on an independent axis so an admin can correct one without touching the
// other.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"

	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// IsValidOrderStatus reports whether s is a known fulfillment status.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s string) bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

// ShippingAddress is the structured shipping destination stored with an
// order. It is persisted as an opaque JSON blob.
type ShippingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Order represents one checkout. Items are immutable once created except
// through full order deletion; the total is computed at creation time and
// never recomputed.
type Order struct {
	ID int64 `json:"id" db:"id"`

	// OrderNumber is a generated, human-readable unique identifier
	// combining a timestamp and a random suffix.
	OrderNumber string `json:"order_number" db:"order_number"`

	// UserID is the owning user, or nil for a guest checkout.
	UserID *int `json:"user_id" db:"user_id"`

	TotalAmount   float64 `json:"total_amount" db:"total_amount"`
	Status        string  `json:"status" db:"status"`
	PaymentStatus string  `json:"payment_status" db:"payment_status"`

	// Denormalized contact details captured at checkout.
	CustomerName  string `json:"customer_name" db:"customer_name"`
	CustomerEmail string `json:"customer_email" db:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty" db:"customer_phone"`

	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Items is populated on detail reads.
	Items []OrderItem `json:"items,omitempty"`

	// ItemCount is populated on list reads instead of the full item
	// payload to bound response size.
	ItemCount int `json:"item_count,omitempty"`

	// UserEmail is the owning user's email, joined for admin views.
	UserEmail string `json:"user_email,omitempty"`
}

// OrderItem is a line of an order. It snapshots product name, image, and
// price at time of purchase so historical orders survive catalog changes.
type OrderItem struct {
	ID        int64   `json:"id" db:"id"`
	OrderID   int64   `json:"order_id" db:"order_id"`
	ProductID int     `json:"product_id" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	Image     string  `json:"image,omitempty" db:"image"`
	Price     float64 `json:"price" db:"price"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Subtotal  float64 `json:"subtotal" db:"subtotal"`
}

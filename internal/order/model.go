package order

import (
	"time"

	"storefront-be/internal/pricing"
)

type Status string

const (
	// StatusPending is a prepaid order waiting on gateway confirmation.
	StatusPending Status = "PENDING"
	// StatusUnverified is a COD order waiting on out-of-band verification.
	StatusUnverified Status = "UNVERIFIED"
	StatusPaid       Status = "PAID"
	StatusProcessing Status = "PROCESSING"
	StatusPrinting   Status = "PRINTING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// Address is structured from intake onward; nothing downstream needs to
// re-parse a concatenated string.
type Address struct {
	Street  string
	City    string
	State   string
	Pincode string
}

type Order struct {
	ID            int64
	CustomerName  string
	Email         string
	Phone         string
	Address       Address
	SubtotalPaise int64
	ShippingPaise int64
	DiscountPaise int64
	CODFeePaise   int64
	AmountPaise   int64
	PaymentMethod pricing.PaymentMethod
	Status        Status

	// Gateway / courier references, nullable until set.
	GatewayOrderID *string
	TrackingNumber *string
	CourierName    *string
	LabelURL       *string

	CreatedAt time.Time
	ExpiresAt *time.Time

	CouponCode *string
	Items      []Item
}

// Item is a purchase snapshot. The price is a historical fact and is
// never re-read from the live catalog after creation.
type Item struct {
	ID         int64
	OrderID    int64
	ProductID  *int64 // nil for custom items
	Title      string
	PricePaise int64
	Quantity   int
	ImageURL   string
}

package order

import (
	"sort"
	"strings"
	"time"
)

const (
	EventOrderPlaced          = "OrderPlaced"
	EventOrderStatusChanged   = "OrderStatusChanged"
	EventPaymentStatusChanged = "PaymentStatusChanged"
)

// Item is one line snapshotted into an order at placement time. Name and
// UnitPrice never change afterwards, whatever happens to the catalog.
type Item struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	UnitPrice int64    `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Variant   *Variant `json:"variant,omitempty"`
}

// Variant mirrors the cart's variant selection on an order line
type Variant struct {
	Name    string            `json:"name"`
	Options map[string]string `json:"options,omitempty"`
}

// Label renders a variant for display, e.g. "Glaze: Ocean, Size: Large"
func (v *Variant) Label() string {
	if v == nil {
		return ""
	}
	keys := make([]string, 0, len(v.Options))
	for k := range v.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	if v.Name != "" {
		parts = append(parts, v.Name)
	}
	for _, k := range keys {
		parts = append(parts, k+": "+v.Options[k])
	}
	return strings.Join(parts, ", ")
}

// Address is the shipping address embedded in an order. Every field is
// required; Email doubles as the guest contact address.
type Address struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

type OrderPlaced struct {
	OrderID         string        `json:"order_id"`
	OrderNumber     string        `json:"order_number"`
	UserID          string        `json:"user_id,omitempty"`
	GuestEmail      string        `json:"guest_email,omitempty"`
	Items           []Item        `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	Subtotal        int64         `json:"subtotal"`
	ShippingCost    int64         `json:"shipping_cost"`
	TotalAmount     int64         `json:"total_amount"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Notes           string        `json:"notes,omitempty"`
	PlacedAt        time.Time     `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	From      Status    `json:"from"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type PaymentStatusChanged struct {
	OrderID       string        `json:"order_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	ChangedAt     time.Time     `json:"changed_at"`
}

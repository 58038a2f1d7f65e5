package command

import (
	"github.com/example/craftshop/internal/domain/cart"
	"github.com/example/craftshop/internal/domain/catalog"
	"github.com/example/craftshop/internal/domain/order"
)

// Product commands (admin only)

type CreateProduct struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	OriginalPrice int64    `json:"original_price"`
	Inventory     int      `json:"inventory"`
	Category      string   `json:"category"`
	Collections   []string `json:"collections"`
}

type UpdateProduct struct {
	ProductID     string   `json:"product_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	OriginalPrice int64    `json:"original_price"`
	Inventory     int      `json:"inventory"`
	IsActive      bool     `json:"is_active"`
	Category      string   `json:"category"`
	Collections   []string `json:"collections"`
}

type SetProductImages struct {
	ProductID string          `json:"product_id"`
	Images    []catalog.Image `json:"images"`
}

type SetProductFeatured struct {
	ProductID string `json:"product_id"`
	Featured  bool   `json:"featured"`
}

type ArchiveProduct struct {
	ProductID string `json:"product_id"`
}

type AddStock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart commands

type AddToCart struct {
	Owner     cart.OwnerKey `json:"-"`
	ProductID string        `json:"product_id"`
	Quantity  int           `json:"quantity"`
	Variant   *cart.Variant `json:"variant,omitempty"`
}

type UpdateCartItem struct {
	Owner    cart.OwnerKey `json:"-"`
	ItemID   string        `json:"item_id"`
	Quantity int           `json:"quantity"`
}

type RemoveFromCart struct {
	Owner  cart.OwnerKey `json:"-"`
	ItemID string        `json:"item_id"`
}

type ClearCart struct {
	Owner cart.OwnerKey `json:"-"`
}

// Order commands

type PlaceOrder struct {
	Owner           cart.OwnerKey `json:"-"`
	UserEmail       string        `json:"-"`
	GuestSessionID  string        `json:"-"`
	GuestEmail      string        `json:"guest_email,omitempty"`
	ShippingAddress order.Address `json:"shipping_address"`
	PaymentMethod   string        `json:"payment_method,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

type TransitionOrderStatus struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

type SetPaymentStatus struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
}

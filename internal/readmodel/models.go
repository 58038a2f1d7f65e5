package readmodel

import "time"

// ProductImage is one entry of a product's ordered image list
type ProductImage struct {
	URL       string `json:"url"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductReadModel is the read model for catalog products.
// Prices are integer minor units (cents).
type ProductReadModel struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Description   string         `json:"description"`
	Price         int64          `json:"price"`
	OriginalPrice int64          `json:"original_price,omitempty"`
	Inventory     int            `json:"inventory"`
	IsActive      bool           `json:"is_active"`
	IsFeatured    bool           `json:"is_featured"`
	Category      string         `json:"category"`
	Collections   []string       `json:"collections,omitempty"`
	Images        []ProductImage `json:"images,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// VariantReadModel is a chosen product variant on a line item
type VariantReadModel struct {
	Name    string            `json:"name"`
	Options map[string]string `json:"options,omitempty"`
}

// CartItemReadModel represents one line item in a cart
type CartItemReadModel struct {
	ItemID    string            `json:"item_id"`
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	UnitPrice int64             `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Variant   *VariantReadModel `json:"variant,omitempty"`
}

// CartReadModel is the read model for shopping carts.
// Exactly one of UserID or SessionID is set.
type CartReadModel struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
	Items       []CartItemReadModel `json:"items"`
	TotalItems  int                 `json:"total_items"`
	TotalAmount int64               `json:"total_amount"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// OrderItemReadModel represents one line item snapshotted into an order
type OrderItemReadModel struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	UnitPrice int64             `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Variant   *VariantReadModel `json:"variant,omitempty"`
}

// AddressReadModel is the shipping address embedded in an order
type AddressReadModel struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// OrderReadModel is the read model for orders
type OrderReadModel struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"order_number"`
	UserID          string               `json:"user_id,omitempty"`
	GuestEmail      string               `json:"guest_email,omitempty"`
	CustomerName    string               `json:"customer_name"`
	Items           []OrderItemReadModel `json:"items"`
	ShippingAddress AddressReadModel     `json:"shipping_address"`
	Subtotal        int64                `json:"subtotal"`
	ShippingCost    int64                `json:"shipping_cost"`
	TotalAmount     int64                `json:"total_amount"`
	PaymentMethod   string               `json:"payment_method"`
	PaymentStatus   string               `json:"payment_status"`
	Status          string               `json:"status"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	ConfirmedAt     *time.Time           `json:"confirmed_at,omitempty"`
	ProcessingAt    *time.Time           `json:"processing_at,omitempty"`
	ShippedAt       *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
}

// InventoryReadModel is the read model for inventory
type InventoryReadModel struct {
	ProductID      string `json:"product_id"`
	TotalStock     int    `json:"total_stock"`
	ReservedStock  int    `json:"reserved_stock"`
	AvailableStock int    `json:"available_stock"`
}

// UserReadModel is the read model for customer accounts
type UserReadModel struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionReadModel is the read model for refresh-token sessions
type SessionReadModel struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
}

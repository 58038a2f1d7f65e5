package cart

import "time"

const (
	EventItemAdded           = "CartItemAdded"
	EventItemQuantityChanged = "CartItemQuantityChanged"
	EventItemRemoved         = "CartItemRemoved"
	EventCartCleared         = "CartCleared"
)

// CartItemAdded carries the full line so the cart can be rebuilt without
// consulting the catalog. When the same product+variant is added again the
// event reuses the existing ItemID and Quantity is the increment.
type CartItemAdded struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	ItemID    string    `json:"item_id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Variant   *Variant  `json:"variant,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

type CartItemQuantityChanged struct {
	CartID    string    `json:"cart_id"`
	ItemID    string    `json:"item_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartItemRemoved struct {
	CartID    string    `json:"cart_id"`
	ItemID    string    `json:"item_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	ClearedAt time.Time `json:"cleared_at"`
}

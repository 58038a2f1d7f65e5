package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/craftshop/internal/domain/aggregate"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("cart item not found")
)

// LineItem is one product+variant entry. Name and UnitPrice are snapshots
// taken when the line was first added; later catalog edits do not touch them.
type LineItem struct {
	ItemID    string   `json:"item_id"`
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	UnitPrice int64    `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Variant   *Variant `json:"variant,omitempty"`
}

// Cart is the event-sourced cart aggregate. Items keep insertion order for
// stable display.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Items     []LineItem `json:"items"`
	Version   int        `json:"version"`
}

func (c *Cart) GetID() string    { return c.ID }
func (c *Cart) GetVersion() int  { return c.Version }
func (c *Cart) SetVersion(v int) { c.Version = v }

// TotalItems is the sum of line quantities, recomputed on every call
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalAmount is the sum of unit price times quantity, recomputed on every call
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// FindLine returns the line matching a product+variant combination
func (c *Cart) FindLine(productID string, variant *Variant) *LineItem {
	key := variant.Key()
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Variant.Key() == key {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItem returns the line with the given item id
func (c *Cart) FindItem(itemID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// ApplyEvent applies a single event to the cart state
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data CartItemAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID = data.CartID
		if data.UserID != "" {
			c.UserID = data.UserID
		}
		if data.SessionID != "" {
			c.SessionID = data.SessionID
		}
		if existing := c.FindItem(data.ItemID); existing != nil {
			// Merge keeps the original price snapshot
			existing.Quantity += data.Quantity
		} else {
			c.Items = append(c.Items, LineItem{
				ItemID:    data.ItemID,
				ProductID: data.ProductID,
				Name:      data.Name,
				UnitPrice: data.UnitPrice,
				Quantity:  data.Quantity,
				Variant:   data.Variant,
			})
		}
	case EventItemQuantityChanged:
		var data CartItemQuantityChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if item := c.FindItem(data.ItemID); item != nil {
			item.Quantity = data.Quantity
		}
	case EventItemRemoved:
		var data CartItemRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		for i := range c.Items {
			if c.Items[i].ItemID == data.ItemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				break
			}
		}
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.Items = nil
	}
	c.Version = event.Version
	return nil
}

// Service handles cart write operations
type Service struct {
	eventStore store.EventStoreInterface
	log        *logrus.Entry
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{
		eventStore: es,
		log:        logrus.WithField("component", "cart"),
	}
}

func (s *Service) load(ctx context.Context, owner OwnerKey) (*Cart, bool, error) {
	c, found, err := aggregate.Load(ctx, s.eventStore, owner.CartID(), func() *Cart {
		return &Cart{}
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return &Cart{ID: owner.CartID(), UserID: owner.UserID, SessionID: owner.SessionID}, false, nil
	}
	return c, true, nil
}

// ProductSnapshot is the catalog data captured onto a new line item
type ProductSnapshot struct {
	ProductID string
	Name      string
	UnitPrice int64
}

// AddItem adds a quantity of a product+variant to the owner's cart,
// creating the cart lazily. Adding an existing combination increments its
// quantity instead of duplicating the line.
func (s *Service) AddItem(ctx context.Context, owner OwnerKey, snap ProductSnapshot, quantity int, variant *Variant) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if snap.ProductID == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c, _, err := s.load(ctx, owner)
	if err != nil {
		return err
	}

	itemID := uuid.New().String()
	if existing := c.FindLine(snap.ProductID, variant); existing != nil {
		itemID = existing.ItemID
	}

	event := CartItemAdded{
		CartID:    owner.CartID(),
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		ItemID:    itemID,
		ProductID: snap.ProductID,
		Name:      snap.Name,
		UnitPrice: snap.UnitPrice,
		Quantity:  quantity,
		Variant:   variant,
		AddedAt:   time.Now(),
	}

	return s.append(ctx, c, EventItemAdded, event)
}

// UpdateItemQuantity sets a line's quantity. Anything below 1 behaves as a
// remove.
func (s *Service) UpdateItemQuantity(ctx context.Context, owner OwnerKey, itemID string, quantity int) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	c, found, err := s.load(ctx, owner)
	if err != nil {
		return err
	}
	if !found {
		return ErrCartNotFound
	}
	if c.FindItem(itemID) == nil {
		return ErrItemNotFound
	}

	if quantity < 1 {
		return s.removeItem(ctx, owner, c, itemID)
	}

	event := CartItemQuantityChanged{
		CartID:    owner.CartID(),
		ItemID:    itemID,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}

	return s.append(ctx, c, EventItemQuantityChanged, event)
}

// RemoveItem removes a line item. Removing an item that is not in the cart
// is a no-op success, not an error.
func (s *Service) RemoveItem(ctx context.Context, owner OwnerKey, itemID string) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	c, found, err := s.load(ctx, owner)
	if err != nil {
		return err
	}
	if !found || c.FindItem(itemID) == nil {
		return nil
	}

	return s.removeItem(ctx, owner, c, itemID)
}

func (s *Service) removeItem(ctx context.Context, owner OwnerKey, c *Cart, itemID string) error {
	event := CartItemRemoved{
		CartID:    owner.CartID(),
		ItemID:    itemID,
		RemovedAt: time.Now(),
	}

	return s.append(ctx, c, EventItemRemoved, event)
}

// Get returns the owner's cart. A missing cart comes back as an empty cart
// value rather than an error.
func (s *Service) Get(ctx context.Context, owner OwnerKey) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	c, _, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties the owner's cart. Clearing a missing or already-empty cart
// is a no-op.
func (s *Service) Clear(ctx context.Context, owner OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	c, found, err := s.load(ctx, owner)
	if err != nil {
		return err
	}
	if !found || len(c.Items) == 0 {
		return nil
	}

	event := CartCleared{
		CartID:    owner.CartID(),
		ClearedAt: time.Now(),
	}

	return s.append(ctx, c, EventCartCleared, event)
}

// append stores the event, folds it into the in-memory cart, and then
// checks the snapshot threshold. Applying before snapshotting matters:
// a snapshot taken from pre-event state would drop the event forever,
// since replay only reads events past the snapshot version.
func (s *Service) append(ctx context.Context, c *Cart, eventType string, data any) error {
	stored, err := s.eventStore.Append(ctx, c.ID, AggregateType, eventType, data)
	if err != nil {
		return err
	}
	if stored != nil {
		if err := c.ApplyEvent(*stored); err != nil {
			return err
		}
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, c, AggregateType); err != nil {
		s.log.WithError(err).WithField("cart_id", c.ID).Warn("failed to create snapshot")
	}
	return nil
}

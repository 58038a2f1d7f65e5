package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/craftshop/internal/domain/aggregate"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/sirupsen/logrus"
)

const AggregateType = "Inventory"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// InventoryID namespaces inventory event streams so they never share an
// aggregate ID (or a snapshot) with the product stream for the same product.
func InventoryID(productID string) string {
	return "inventory-" + productID
}

// Inventory tracks physical stock for one product. Reserved units are still
// on the shelf but committed to open orders; available = total - reserved.
type Inventory struct {
	ProductID     string `json:"product_id"`
	TotalStock    int    `json:"total_stock"`
	ReservedStock int    `json:"reserved_stock"`
	Version       int    `json:"version"`
}

func (i *Inventory) GetID() string    { return InventoryID(i.ProductID) }
func (i *Inventory) GetVersion() int  { return i.Version }
func (i *Inventory) SetVersion(v int) { i.Version = v }

func (i *Inventory) AvailableStock() int {
	return i.TotalStock - i.ReservedStock
}

func (i *Inventory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventStockAdded:
		var data StockAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.TotalStock += data.Quantity
	case EventStockReserved:
		var data StockReserved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ReservedStock += data.Quantity
	case EventStockReleased:
		var data StockReleased
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ReservedStock -= data.Quantity
		if i.ReservedStock < 0 {
			i.ReservedStock = 0
		}
	case EventStockDeducted:
		var data StockDeducted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.TotalStock -= data.Quantity
		i.ReservedStock -= data.Quantity
		if i.TotalStock < 0 {
			i.TotalStock = 0
		}
		if i.ReservedStock < 0 {
			i.ReservedStock = 0
		}
	}
	i.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
	log        *logrus.Entry
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{
		eventStore: es,
		log:        logrus.WithField("component", "inventory"),
	}
}

func (s *Service) load(ctx context.Context, productID string) (*Inventory, error) {
	inv, _, err := aggregate.Load(ctx, s.eventStore, InventoryID(productID), func() *Inventory {
		return &Inventory{ProductID: productID}
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Get returns the current stock levels for a product. Products with no
// recorded stock come back as all zeroes.
func (s *Service) Get(ctx context.Context, productID string) (*Inventory, error) {
	return s.load(ctx, productID)
}

func (s *Service) append(ctx context.Context, inv *Inventory, eventType string, data any) error {
	stored, err := s.eventStore.Append(ctx, InventoryID(inv.ProductID), AggregateType, eventType, data)
	if err != nil {
		return err
	}
	if stored != nil {
		if err := inv.ApplyEvent(*stored); err != nil {
			return err
		}
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, inv, AggregateType); err != nil {
		s.log.WithError(err).WithField("product_id", inv.ProductID).Warn("failed to create snapshot")
	}
	return nil
}

func (s *Service) AddStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}

	return s.append(ctx, inv, EventStockAdded, StockAdded{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
}

// Reserve holds quantity units against an order. Fails when fewer than
// quantity units are available.
func (s *Service) Reserve(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if inv.AvailableStock() < quantity {
		return fmt.Errorf("%w: product %s has %d available, want %d",
			ErrInsufficientStock, productID, inv.AvailableStock(), quantity)
	}

	return s.append(ctx, inv, EventStockReserved, StockReserved{
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		ReservedAt: time.Now(),
	})
}

// Release returns a reservation to the available pool, e.g. when an order
// is cancelled before shipping.
func (s *Service) Release(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}

	return s.append(ctx, inv, EventStockReleased, StockReleased{
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		ReleasedAt: time.Now(),
	})
}

// Deduct consumes reserved stock when an order ships: both total and
// reserved counts drop by quantity.
func (s *Service) Deduct(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if inv.TotalStock < quantity {
		return fmt.Errorf("%w: product %s has %d in stock, want %d",
			ErrInsufficientStock, productID, inv.TotalStock, quantity)
	}

	return s.append(ctx, inv, EventStockDeducted, StockDeducted{
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		DeductedAt: time.Now(),
	})
}

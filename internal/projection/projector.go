package projection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/craftshop/internal/domain/cart"
	"github.com/example/craftshop/internal/domain/catalog"
	"github.com/example/craftshop/internal/domain/identity"
	"github.com/example/craftshop/internal/domain/inventory"
	"github.com/example/craftshop/internal/domain/order"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
)

// Projector folds domain events into the denormalized read models the
// query side serves from. It is idempotent enough for at-least-once
// delivery on everything except cart item merges, which rely on the
// producer reusing item IDs.
type Projector struct {
	readStore store.ReadStoreInterface
	log       *logrus.Entry
}

func NewProjector(readStore store.ReadStoreInterface, log *logrus.Logger) *Projector {
	return &Projector{
		readStore: readStore,
		log:       log.WithField("component", "projector"),
	}
}

// HandleEvent consumes one event from the bus
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	return p.Apply(event)
}

// Apply folds a single event into the read models. Used directly when
// replaying the event store at startup.
func (p *Projector) Apply(event store.Event) error {
	p.log.WithFields(logrus.Fields{
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
	}).Debug("projecting event")

	switch event.AggregateType {
	case catalog.AggregateType:
		return p.handleProductEvent(event)
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	case identity.AggregateType:
		return p.handleAccountEvent(event)
	}
	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case catalog.EventProductCreated:
		var e catalog.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set("products", e.ProductID, &readmodel.ProductReadModel{
			ID:            e.ProductID,
			Name:          e.Name,
			Slug:          e.Slug,
			Description:   e.Description,
			Price:         e.Price,
			OriginalPrice: e.OriginalPrice,
			Inventory:     e.Inventory,
			IsActive:      true,
			Category:      e.Category,
			Collections:   e.Collections,
			CreatedAt:     e.CreatedAt,
			UpdatedAt:     e.CreatedAt,
		})

	case catalog.EventProductUpdated:
		var e catalog.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Name = e.Name
			prod.Description = e.Description
			prod.Price = e.Price
			prod.OriginalPrice = e.OriginalPrice
			prod.Inventory = e.Inventory
			prod.IsActive = e.IsActive
			prod.Category = e.Category
			prod.Collections = e.Collections
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})
		return err

	case catalog.EventProductImagesSet:
		var e catalog.ProductImagesSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			images := make([]readmodel.ProductImage, len(e.Images))
			for i, img := range e.Images {
				images[i] = readmodel.ProductImage{URL: img.URL, AltText: img.AltText, IsPrimary: img.IsPrimary}
			}
			prod.Images = images
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})
		return err

	case catalog.EventProductFeatureSet:
		var e catalog.ProductFeatureSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.IsFeatured = e.IsFeatured
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})
		return err

	case catalog.EventProductArchived:
		var e catalog.ProductArchived
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		// Archived products stay in the store so past orders can still
		// show them; they just stop being active or featured.
		_, err := p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.IsActive = false
			prod.IsFeatured = false
			prod.UpdatedAt = e.ArchivedAt
			return prod
		})
		return err
	}
	return nil
}

func (p *Projector) handleCartEvent(event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.CartItemAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}

		_, exists, err := p.readStore.Get("carts", e.CartID)
		if err != nil {
			return err
		}
		if !exists {
			c := &readmodel.CartReadModel{
				ID:        e.CartID,
				UserID:    e.UserID,
				SessionID: e.SessionID,
				Items: []readmodel.CartItemReadModel{{
					ItemID:    e.ItemID,
					ProductID: e.ProductID,
					Name:      e.Name,
					UnitPrice: e.UnitPrice,
					Quantity:  e.Quantity,
					Variant:   variantReadModel(e.Variant),
				}},
				UpdatedAt: e.AddedAt,
			}
			recalcCart(c)
			return p.readStore.Set("carts", e.CartID, c)
		}
		_, err = p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			merged := false
			for i, item := range c.Items {
				if item.ItemID == e.ItemID {
					c.Items[i].Quantity += e.Quantity
					merged = true
					break
				}
			}
			if !merged {
				c.Items = append(c.Items, readmodel.CartItemReadModel{
					ItemID:    e.ItemID,
					ProductID: e.ProductID,
					Name:      e.Name,
					UnitPrice: e.UnitPrice,
					Quantity:  e.Quantity,
					Variant:   variantReadModel(e.Variant),
				})
			}
			c.UpdatedAt = e.AddedAt
			recalcCart(c)
			return c
		})
		return err

	case cart.EventItemQuantityChanged:
		var e cart.CartItemQuantityChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			for i := range c.Items {
				if c.Items[i].ItemID == e.ItemID {
					c.Items[i].Quantity = e.Quantity
					break
				}
			}
			c.UpdatedAt = e.UpdatedAt
			recalcCart(c)
			return c
		})
		return err

	case cart.EventItemRemoved:
		var e cart.CartItemRemoved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			kept := c.Items[:0]
			for _, item := range c.Items {
				if item.ItemID != e.ItemID {
					kept = append(kept, item)
				}
			}
			c.Items = kept
			c.UpdatedAt = e.RemovedAt
			recalcCart(c)
			return c
		})
		return err

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			c.Items = []readmodel.CartItemReadModel{}
			c.UpdatedAt = e.ClearedAt
			recalcCart(c)
			return c
		})
		return err
	}
	return nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		items := make([]readmodel.OrderItemReadModel, len(e.Items))
		for i, item := range e.Items {
			items[i] = readmodel.OrderItemReadModel{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			}
			if item.Variant != nil {
				items[i].Variant = &readmodel.VariantReadModel{Name: item.Variant.Name, Options: item.Variant.Options}
			}
		}
		return p.readStore.Set("orders", e.OrderID, &readmodel.OrderReadModel{
			ID:           e.OrderID,
			OrderNumber:  e.OrderNumber,
			UserID:       e.UserID,
			GuestEmail:   e.GuestEmail,
			CustomerName: e.ShippingAddress.FullName,
			Items:        items,
			ShippingAddress: readmodel.AddressReadModel{
				FullName:   e.ShippingAddress.FullName,
				Street:     e.ShippingAddress.Street,
				City:       e.ShippingAddress.City,
				State:      e.ShippingAddress.State,
				PostalCode: e.ShippingAddress.PostalCode,
				Country:    e.ShippingAddress.Country,
				Phone:      e.ShippingAddress.Phone,
				Email:      e.ShippingAddress.Email,
			},
			Subtotal:      e.Subtotal,
			ShippingCost:  e.ShippingCost,
			TotalAmount:   e.TotalAmount,
			PaymentMethod: string(e.PaymentMethod),
			PaymentStatus: string(order.PaymentPending),
			Status:        string(order.StatusPending),
			Notes:         e.Notes,
			CreatedAt:     e.PlacedAt,
			UpdatedAt:     e.PlacedAt,
		})

	case order.EventOrderStatusChanged:
		var e order.OrderStatusChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(e.Status)
			o.UpdatedAt = e.ChangedAt
			at := e.ChangedAt
			switch e.Status {
			case order.StatusConfirmed:
				o.ConfirmedAt = &at
			case order.StatusProcessing:
				o.ProcessingAt = &at
			case order.StatusShipped:
				o.ShippedAt = &at
			case order.StatusDelivered:
				o.DeliveredAt = &at
			case order.StatusCancelled:
				o.CancelledAt = &at
			}
			return o
		})
		return err

	case order.EventPaymentStatusChanged:
		var e order.PaymentStatusChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.PaymentStatus = string(e.PaymentStatus)
			o.UpdatedAt = e.ChangedAt
			return o
		})
		return err
	}
	return nil
}

func (p *Projector) handleInventoryEvent(event store.Event) error {
	switch event.EventType {
	case inventory.EventStockAdded:
		var e inventory.StockAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if err := p.bumpInventory(e.ProductID, e.Quantity, 0); err != nil {
			return err
		}
		return p.syncProductInventory(e.ProductID)

	case inventory.EventStockReserved:
		var e inventory.StockReserved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if err := p.bumpInventory(e.ProductID, 0, e.Quantity); err != nil {
			return err
		}
		return p.syncProductInventory(e.ProductID)

	case inventory.EventStockReleased:
		var e inventory.StockReleased
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if err := p.bumpInventory(e.ProductID, 0, -e.Quantity); err != nil {
			return err
		}
		return p.syncProductInventory(e.ProductID)

	case inventory.EventStockDeducted:
		var e inventory.StockDeducted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if err := p.bumpInventory(e.ProductID, -e.Quantity, -e.Quantity); err != nil {
			return err
		}
		return p.syncProductInventory(e.ProductID)
	}
	return nil
}

func (p *Projector) bumpInventory(productID string, totalDelta, reservedDelta int) error {
	_, exists, err := p.readStore.Get("inventory", productID)
	if err != nil {
		return err
	}
	if !exists {
		inv := &readmodel.InventoryReadModel{ProductID: productID}
		applyInventoryDelta(inv, totalDelta, reservedDelta)
		return p.readStore.Set("inventory", productID, inv)
	}
	_, err = p.readStore.Update("inventory", productID, func(current any) any {
		inv := current.(*readmodel.InventoryReadModel)
		applyInventoryDelta(inv, totalDelta, reservedDelta)
		return inv
	})
	return err
}

func applyInventoryDelta(inv *readmodel.InventoryReadModel, totalDelta, reservedDelta int) {
	inv.TotalStock += totalDelta
	inv.ReservedStock += reservedDelta
	if inv.TotalStock < 0 {
		inv.TotalStock = 0
	}
	if inv.ReservedStock < 0 {
		inv.ReservedStock = 0
	}
	inv.AvailableStock = inv.TotalStock - inv.ReservedStock
}

// syncProductInventory mirrors the available count onto the product read
// model so the storefront can show availability without a second lookup.
func (p *Projector) syncProductInventory(productID string) error {
	data, exists, err := p.readStore.Get("inventory", productID)
	if err != nil || !exists {
		return err
	}
	inv := data.(*readmodel.InventoryReadModel)
	_, err = p.readStore.Update("products", productID, func(current any) any {
		prod := current.(*readmodel.ProductReadModel)
		prod.Inventory = inv.AvailableStock
		prod.UpdatedAt = time.Now()
		return prod
	})
	return err
}

func (p *Projector) handleAccountEvent(event store.Event) error {
	switch event.EventType {
	case identity.EventAccountRegistered:
		var e identity.AccountRegistered
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set("users", e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			Role:         string(e.Role),
			IsActive:     true,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case identity.EventAccountProfileUpdated:
		var e identity.AccountProfileUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.Name = e.Name
			u.UpdatedAt = e.UpdatedAt
			return u
		})
		return err

	case identity.EventAccountPasswordChanged:
		var e identity.AccountPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})
		return err

	case identity.EventAccountDeactivated:
		var e identity.AccountDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = false
			u.UpdatedAt = e.DeactivatedAt
			return u
		})
		return err

	case identity.EventAccountReactivated:
		var e identity.AccountReactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = true
			u.UpdatedAt = e.ReactivatedAt
			return u
		})
		return err
	}
	return nil
}

func variantReadModel(v *cart.Variant) *readmodel.VariantReadModel {
	if v == nil {
		return nil
	}
	return &readmodel.VariantReadModel{Name: v.Name, Options: v.Options}
}

func recalcCart(c *readmodel.CartReadModel) {
	totalItems := 0
	var totalAmount int64
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalAmount += item.UnitPrice * int64(item.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalAmount = totalAmount
}

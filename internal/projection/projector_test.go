package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/craftshop/internal/domain/cart"
	"github.com/example/craftshop/internal/domain/catalog"
	"github.com/example/craftshop/internal/domain/identity"
	"github.com/example/craftshop/internal/domain/inventory"
	"github.com/example/craftshop/internal/domain/order"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *store.ReadStore) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	readStore := store.NewReadStore()
	return NewProjector(readStore, log), readStore
}

func apply(t *testing.T, p *Projector, aggregateType, eventType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, p.Apply(store.Event{
		ID:            "evt",
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          raw,
		Timestamp:     time.Now(),
		Version:       1,
	}))
}

func getProduct(t *testing.T, rs *store.ReadStore, id string) *readmodel.ProductReadModel {
	t.Helper()
	data, ok, err := rs.Get("products", id)
	require.NoError(t, err)
	require.True(t, ok)
	return data.(*readmodel.ProductReadModel)
}

// ============================================
// Product Projection Tests
// ============================================

func TestProjector_ProductLifecycle(t *testing.T) {
	p, rs := newTestProjector()
	now := time.Now()

	apply(t, p, catalog.AggregateType, catalog.EventProductCreated, catalog.ProductCreated{
		ProductID:   "prod-1",
		Name:        "Stoneware Mug",
		Slug:        "stoneware-mug",
		Description: "Hand-thrown mug",
		Price:       1000,
		Inventory:   5,
		Category:    "ceramics",
		Collections: []string{"new-arrivals"},
		CreatedAt:   now,
	})

	prod := getProduct(t, rs, "prod-1")
	assert.Equal(t, "Stoneware Mug", prod.Name)
	assert.Equal(t, "stoneware-mug", prod.Slug)
	assert.Equal(t, int64(1000), prod.Price)
	assert.True(t, prod.IsActive)
	assert.False(t, prod.IsFeatured)

	apply(t, p, catalog.AggregateType, catalog.EventProductUpdated, catalog.ProductUpdated{
		ProductID: "prod-1",
		Name:      "Stoneware Mug, Large",
		Price:     1200,
		Inventory: 5,
		IsActive:  true,
		Category:  "ceramics",
		UpdatedAt: now,
	})
	apply(t, p, catalog.AggregateType, catalog.EventProductFeatureSet, catalog.ProductFeatureSet{
		ProductID: "prod-1", IsFeatured: true, UpdatedAt: now,
	})
	apply(t, p, catalog.AggregateType, catalog.EventProductImagesSet, catalog.ProductImagesSet{
		ProductID: "prod-1",
		Images:    []catalog.Image{{URL: "https://img.example.com/mug.jpg", IsPrimary: true}},
		UpdatedAt: now,
	})

	prod = getProduct(t, rs, "prod-1")
	assert.Equal(t, "Stoneware Mug, Large", prod.Name)
	assert.Equal(t, int64(1200), prod.Price)
	assert.True(t, prod.IsFeatured)
	require.Len(t, prod.Images, 1)
	assert.True(t, prod.Images[0].IsPrimary)
}

func TestProjector_ProductArchived_KeptButInactive(t *testing.T) {
	p, rs := newTestProjector()

	apply(t, p, catalog.AggregateType, catalog.EventProductCreated, catalog.ProductCreated{
		ProductID: "prod-1", Name: "Mug", Price: 1000, CreatedAt: time.Now(),
	})
	apply(t, p, catalog.AggregateType, catalog.EventProductFeatureSet, catalog.ProductFeatureSet{
		ProductID: "prod-1", IsFeatured: true, UpdatedAt: time.Now(),
	})
	apply(t, p, catalog.AggregateType, catalog.EventProductArchived, catalog.ProductArchived{
		ProductID: "prod-1", ArchivedAt: time.Now(),
	})

	prod := getProduct(t, rs, "prod-1")
	assert.False(t, prod.IsActive)
	assert.False(t, prod.IsFeatured)
}

// ============================================
// Cart Projection Tests
// ============================================

func TestProjector_CartLifecycle(t *testing.T) {
	p, rs := newTestProjector()
	now := time.Now()

	apply(t, p, cart.AggregateType, cart.EventItemAdded, cart.CartItemAdded{
		CartID: "cart-session-s1", SessionID: "s1",
		ItemID: "item-1", ProductID: "prod-1", Name: "Mug", UnitPrice: 1000, Quantity: 2, AddedAt: now,
	})
	apply(t, p, cart.AggregateType, cart.EventItemAdded, cart.CartItemAdded{
		CartID: "cart-session-s1", SessionID: "s1",
		ItemID: "item-2", ProductID: "prod-2", Name: "Towel", UnitPrice: 500, Quantity: 1, AddedAt: now,
	})

	data, ok, err := rs.Get("carts", "cart-session-s1")
	require.NoError(t, err)
	require.True(t, ok)
	c := data.(*readmodel.CartReadModel)
	assert.Equal(t, "s1", c.SessionID)
	assert.Empty(t, c.UserID)
	assert.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.TotalItems)
	assert.Equal(t, int64(2500), c.TotalAmount)

	// Same item ID again is a merge, not a new line
	apply(t, p, cart.AggregateType, cart.EventItemAdded, cart.CartItemAdded{
		CartID: "cart-session-s1", SessionID: "s1",
		ItemID: "item-1", ProductID: "prod-1", Name: "Mug", UnitPrice: 1000, Quantity: 1, AddedAt: now,
	})
	data, _, _ = rs.Get("carts", "cart-session-s1")
	c = data.(*readmodel.CartReadModel)
	assert.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, int64(3500), c.TotalAmount)

	apply(t, p, cart.AggregateType, cart.EventItemQuantityChanged, cart.CartItemQuantityChanged{
		CartID: "cart-session-s1", ItemID: "item-1", Quantity: 1, UpdatedAt: now,
	})
	apply(t, p, cart.AggregateType, cart.EventItemRemoved, cart.CartItemRemoved{
		CartID: "cart-session-s1", ItemID: "item-2", RemovedAt: now,
	})
	data, _, _ = rs.Get("carts", "cart-session-s1")
	c = data.(*readmodel.CartReadModel)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, int64(1000), c.TotalAmount)

	apply(t, p, cart.AggregateType, cart.EventCartCleared, cart.CartCleared{
		CartID: "cart-session-s1", ClearedAt: now,
	})
	data, _, _ = rs.Get("carts", "cart-session-s1")
	c = data.(*readmodel.CartReadModel)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.TotalAmount)
}

// ============================================
// Order Projection Tests
// ============================================

func placedOrderEvent() order.OrderPlaced {
	return order.OrderPlaced{
		OrderID:     "order-1",
		OrderNumber: "CS-20260831-ABCDEF",
		GuestEmail:  "june@example.com",
		Items: []order.Item{
			{ProductID: "prod-1", Name: "Mug", UnitPrice: 1000, Quantity: 2},
		},
		ShippingAddress: order.Address{FullName: "June Carver", City: "Asheville", Email: "june@example.com"},
		Subtotal:        2000,
		ShippingCost:    500,
		TotalAmount:     2500,
		PaymentMethod:   order.PaymentCashOnDelivery,
		PlacedAt:        time.Now(),
	}
}

func TestProjector_OrderPlaced(t *testing.T) {
	p, rs := newTestProjector()

	apply(t, p, order.AggregateType, order.EventOrderPlaced, placedOrderEvent())

	data, ok, err := rs.Get("orders", "order-1")
	require.NoError(t, err)
	require.True(t, ok)
	o := data.(*readmodel.OrderReadModel)
	assert.Equal(t, "CS-20260831-ABCDEF", o.OrderNumber)
	assert.Equal(t, "June Carver", o.CustomerName)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "pending", o.PaymentStatus)
	assert.Equal(t, int64(2500), o.TotalAmount)
	assert.Equal(t, "Asheville", o.ShippingAddress.City)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Mug", o.Items[0].Name)
}

func TestProjector_OrderStatusChanged_StampsTimestamps(t *testing.T) {
	p, rs := newTestProjector()
	apply(t, p, order.AggregateType, order.EventOrderPlaced, placedOrderEvent())

	changedAt := time.Now()
	apply(t, p, order.AggregateType, order.EventOrderStatusChanged, order.OrderStatusChanged{
		OrderID: "order-1", From: order.StatusPending, Status: order.StatusShipped, ChangedAt: changedAt,
	})

	data, _, _ := rs.Get("orders", "order-1")
	o := data.(*readmodel.OrderReadModel)
	assert.Equal(t, "shipped", o.Status)
	require.NotNil(t, o.ShippedAt)
	assert.WithinDuration(t, changedAt, *o.ShippedAt, time.Second)
	assert.Nil(t, o.DeliveredAt)
}

func TestProjector_PaymentStatusChanged(t *testing.T) {
	p, rs := newTestProjector()
	apply(t, p, order.AggregateType, order.EventOrderPlaced, placedOrderEvent())

	apply(t, p, order.AggregateType, order.EventPaymentStatusChanged, order.PaymentStatusChanged{
		OrderID: "order-1", PaymentStatus: order.PaymentPaid, ChangedAt: time.Now(),
	})

	data, _, _ := rs.Get("orders", "order-1")
	o := data.(*readmodel.OrderReadModel)
	assert.Equal(t, "paid", o.PaymentStatus)
}

// ============================================
// Inventory Projection Tests
// ============================================

func TestProjector_InventoryFlow(t *testing.T) {
	p, rs := newTestProjector()
	now := time.Now()

	apply(t, p, catalog.AggregateType, catalog.EventProductCreated, catalog.ProductCreated{
		ProductID: "prod-1", Name: "Mug", Price: 1000, CreatedAt: now,
	})
	apply(t, p, inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{
		ProductID: "prod-1", Quantity: 10, AddedAt: now,
	})
	apply(t, p, inventory.AggregateType, inventory.EventStockReserved, inventory.StockReserved{
		ProductID: "prod-1", OrderID: "order-1", Quantity: 4, ReservedAt: now,
	})

	data, ok, err := rs.Get("inventory", "prod-1")
	require.NoError(t, err)
	require.True(t, ok)
	inv := data.(*readmodel.InventoryReadModel)
	assert.Equal(t, 10, inv.TotalStock)
	assert.Equal(t, 4, inv.ReservedStock)
	assert.Equal(t, 6, inv.AvailableStock)

	// Product read model mirrors the available count
	assert.Equal(t, 6, getProduct(t, rs, "prod-1").Inventory)

	apply(t, p, inventory.AggregateType, inventory.EventStockDeducted, inventory.StockDeducted{
		ProductID: "prod-1", OrderID: "order-1", Quantity: 4, DeductedAt: now,
	})
	data, _, _ = rs.Get("inventory", "prod-1")
	inv = data.(*readmodel.InventoryReadModel)
	assert.Equal(t, 6, inv.TotalStock)
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 6, inv.AvailableStock)
}

func TestProjector_InventoryRelease(t *testing.T) {
	p, rs := newTestProjector()
	now := time.Now()

	apply(t, p, inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{
		ProductID: "prod-1", Quantity: 5, AddedAt: now,
	})
	apply(t, p, inventory.AggregateType, inventory.EventStockReserved, inventory.StockReserved{
		ProductID: "prod-1", OrderID: "order-1", Quantity: 3, ReservedAt: now,
	})
	apply(t, p, inventory.AggregateType, inventory.EventStockReleased, inventory.StockReleased{
		ProductID: "prod-1", OrderID: "order-1", Quantity: 3, ReleasedAt: now,
	})

	data, _, _ := rs.Get("inventory", "prod-1")
	inv := data.(*readmodel.InventoryReadModel)
	assert.Equal(t, 5, inv.AvailableStock)
	assert.Equal(t, 0, inv.ReservedStock)
}

// ============================================
// Account Projection Tests
// ============================================

func TestProjector_AccountLifecycle(t *testing.T) {
	p, rs := newTestProjector()
	now := time.Now()

	apply(t, p, identity.AggregateType, identity.EventAccountRegistered, identity.AccountRegistered{
		UserID: "user-1", Email: "june@example.com", PasswordHash: "hash", Name: "June", Role: identity.RoleCustomer, CreatedAt: now,
	})
	apply(t, p, identity.AggregateType, identity.EventAccountProfileUpdated, identity.AccountProfileUpdated{
		UserID: "user-1", Name: "June Carver", UpdatedAt: now,
	})
	apply(t, p, identity.AggregateType, identity.EventAccountDeactivated, identity.AccountDeactivated{
		UserID: "user-1", DeactivatedAt: now,
	})

	data, ok, err := rs.Get("users", "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	u := data.(*readmodel.UserReadModel)
	assert.Equal(t, "June Carver", u.Name)
	assert.Equal(t, "customer", u.Role)
	assert.False(t, u.IsActive)
}

// ============================================
// Bus integration
// ============================================

func TestProjector_HandleEvent_FromBus(t *testing.T) {
	p, rs := newTestProjector()

	raw, err := json.Marshal(catalog.ProductCreated{ProductID: "prod-1", Name: "Mug", Price: 1000, CreatedAt: time.Now()})
	require.NoError(t, err)
	value, err := json.Marshal(store.Event{
		ID:            "evt-1",
		AggregateID:   "prod-1",
		AggregateType: catalog.AggregateType,
		EventType:     catalog.EventProductCreated,
		Data:          raw,
		Timestamp:     time.Now(),
		Version:       1,
	})
	require.NoError(t, err)

	require.NoError(t, p.HandleEvent(context.Background(), []byte("prod-1"), value))

	_, ok, err := rs.Get("products", "prod-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProjector_HandleEvent_UnknownAggregateIgnored(t *testing.T) {
	p, _ := newTestProjector()

	value, err := json.Marshal(store.Event{AggregateType: "Mystery", EventType: "Something", Data: []byte(`{}`)})
	require.NoError(t, err)

	assert.NoError(t, p.HandleEvent(context.Background(), nil, value))
}

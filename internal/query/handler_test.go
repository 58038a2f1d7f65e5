package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/craftshop/internal/domain/cart"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryHandler() (*Handler, *store.ReadStore) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	readStore := store.NewReadStore()
	return NewHandler(readStore, log), readStore
}

func seedProduct(rs *store.ReadStore, id, slug, category string, active, featured bool, createdAt time.Time) {
	rs.Set("products", id, &readmodel.ProductReadModel{
		ID:          id,
		Name:        "Product " + id,
		Slug:        slug,
		Price:       1000,
		IsActive:    active,
		IsFeatured:  featured,
		Category:    category,
		Collections: []string{"new-arrivals"},
		CreatedAt:   createdAt,
	})
}

func TestHandler_GetProduct(t *testing.T) {
	h, rs := newTestQueryHandler()
	seedProduct(rs, "prod-1", "mug", "ceramics", true, false, time.Now())

	prod, ok := h.GetProduct("prod-1")
	require.True(t, ok)
	assert.Equal(t, "prod-1", prod.ID)

	_, ok = h.GetProduct("missing")
	assert.False(t, ok)
}

func TestHandler_GetProductBySlug(t *testing.T) {
	h, rs := newTestQueryHandler()
	seedProduct(rs, "prod-1", "stoneware-mug", "ceramics", true, false, time.Now())

	prod, ok := h.GetProductBySlug("stoneware-mug")
	require.True(t, ok)
	assert.Equal(t, "prod-1", prod.ID)

	_, ok = h.GetProductBySlug("missing-slug")
	assert.False(t, ok)
}

func TestHandler_ListProducts_Filters(t *testing.T) {
	h, rs := newTestQueryHandler()
	base := time.Now()
	seedProduct(rs, "prod-1", "mug", "ceramics", true, true, base)
	seedProduct(rs, "prod-2", "towel", "textiles", true, false, base.Add(time.Minute))
	seedProduct(rs, "prod-3", "bowl", "ceramics", false, false, base.Add(2*time.Minute))

	// Inactive products are hidden by default
	products := h.ListProducts(ProductFilter{})
	require.Len(t, products, 2)
	// Newest first
	assert.Equal(t, "prod-2", products[0].ID)

	products = h.ListProducts(ProductFilter{Category: "ceramics"})
	require.Len(t, products, 1)
	assert.Equal(t, "prod-1", products[0].ID)

	products = h.ListProducts(ProductFilter{IncludeInactive: true})
	assert.Len(t, products, 3)

	products = h.ListFeaturedProducts()
	require.Len(t, products, 1)
	assert.Equal(t, "prod-1", products[0].ID)

	products = h.ListProducts(ProductFilter{Collection: "new-arrivals"})
	assert.Len(t, products, 2)
	products = h.ListProducts(ProductFilter{Collection: "seasonal"})
	assert.Empty(t, products)
}

func TestHandler_GetCart_MissingReturnsEmpty(t *testing.T) {
	h, _ := newTestQueryHandler()

	c, err := h.GetCart(cart.SessionOwner("sess-1"))
	require.NoError(t, err)
	assert.Equal(t, "cart-session-sess-1", c.ID)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.TotalAmount)
}

func TestHandler_GetCart_RecomputesTotals(t *testing.T) {
	h, rs := newTestQueryHandler()
	rs.Set("carts", "cart-user-u1", &readmodel.CartReadModel{
		ID:     "cart-user-u1",
		UserID: "u1",
		Items: []readmodel.CartItemReadModel{
			{ItemID: "item-1", ProductID: "prod-1", UnitPrice: 1000, Quantity: 2},
			{ItemID: "item-2", ProductID: "prod-2", UnitPrice: 500, Quantity: 1},
		},
		// Deliberately stale
		TotalItems:  99,
		TotalAmount: 1,
	})

	c, err := h.GetCart(cart.UserOwner("u1"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.TotalItems)
	assert.Equal(t, int64(2500), c.TotalAmount)
}

func TestHandler_GetCart_InvalidOwner(t *testing.T) {
	h, _ := newTestQueryHandler()

	_, err := h.GetCart(cart.OwnerKey{})
	assert.Error(t, err)

	_, err = h.GetCart(cart.OwnerKey{UserID: "u1", SessionID: "s1"})
	assert.Error(t, err)
}

func seedOrder(rs *store.ReadStore, id, number, userID, status, paymentStatus string, createdAt time.Time) {
	rs.Set("orders", id, &readmodel.OrderReadModel{
		ID:            id,
		OrderNumber:   number,
		UserID:        userID,
		CustomerName:  "June Carver",
		GuestEmail:    "june@example.com",
		Status:        status,
		PaymentStatus: paymentStatus,
		CreatedAt:     createdAt,
	})
}

func TestHandler_GetOrder(t *testing.T) {
	h, rs := newTestQueryHandler()
	seedOrder(rs, "order-1", "CS-20260831-ABCDEF", "", "pending", "pending", time.Now())

	o, ok := h.GetOrder("order-1")
	require.True(t, ok)
	assert.Equal(t, "CS-20260831-ABCDEF", o.OrderNumber)

	_, ok = h.GetOrder("missing")
	assert.False(t, ok)
}

func TestHandler_GetOrderByNumber(t *testing.T) {
	h, rs := newTestQueryHandler()
	seedOrder(rs, "order-1", "CS-20260831-ABCDEF", "", "pending", "pending", time.Now())

	o, ok := h.GetOrderByNumber("CS-20260831-ABCDEF")
	require.True(t, ok)
	assert.Equal(t, "order-1", o.ID)

	_, ok = h.GetOrderByNumber("CS-00000000-XXXXXX")
	assert.False(t, ok)
}

func TestHandler_ListOrders_FilterAndSort(t *testing.T) {
	h, rs := newTestQueryHandler()
	base := time.Now()
	seedOrder(rs, "order-1", "CS-20260831-AAAAAA", "u1", "pending", "pending", base)
	seedOrder(rs, "order-2", "CS-20260831-BBBBBB", "u1", "shipped", "paid", base.Add(time.Minute))
	seedOrder(rs, "order-3", "CS-20260831-CCCCCC", "u2", "pending", "paid", base.Add(2*time.Minute))

	result := h.ListOrders(OrderFilter{})
	require.Len(t, result.Items, 3)
	assert.Equal(t, "order-3", result.Items[0].ID)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 3}, result.Pagination)

	result = h.ListOrders(OrderFilter{Status: "pending"})
	assert.Len(t, result.Items, 2)

	result = h.ListOrders(OrderFilter{Status: "pending", PaymentStatus: "paid"})
	require.Len(t, result.Items, 1)
	assert.Equal(t, "order-3", result.Items[0].ID)
}

func TestHandler_ListOrders_DateRange(t *testing.T) {
	h, rs := newTestQueryHandler()
	base := time.Now()
	seedOrder(rs, "order-1", "CS-20260831-AAAAAA", "", "pending", "pending", base)
	seedOrder(rs, "order-2", "CS-20260831-BBBBBB", "", "pending", "pending", base.Add(time.Hour))
	seedOrder(rs, "order-3", "CS-20260831-CCCCCC", "", "pending", "pending", base.Add(2*time.Hour))

	result := h.ListOrders(OrderFilter{PlacedAfter: base.Add(30 * time.Minute)})
	assert.Len(t, result.Items, 2)

	result = h.ListOrders(OrderFilter{PlacedBefore: base.Add(30 * time.Minute)})
	require.Len(t, result.Items, 1)
	assert.Equal(t, "order-1", result.Items[0].ID)

	result = h.ListOrders(OrderFilter{
		PlacedAfter:  base.Add(30 * time.Minute),
		PlacedBefore: base.Add(90 * time.Minute),
	})
	require.Len(t, result.Items, 1)
	assert.Equal(t, "order-2", result.Items[0].ID)
}

func TestHandler_ListOrders_Search(t *testing.T) {
	h, rs := newTestQueryHandler()
	seedOrder(rs, "order-1", "CS-20260831-AAAAAA", "", "pending", "pending", time.Now())

	result := h.ListOrders(OrderFilter{Search: "aaaaaa"})
	assert.Len(t, result.Items, 1)

	result = h.ListOrders(OrderFilter{Search: "june@example.com"})
	assert.Len(t, result.Items, 1)

	result = h.ListOrders(OrderFilter{Search: "nobody"})
	assert.Empty(t, result.Items)
}

func TestHandler_ListOrders_Pagination(t *testing.T) {
	h, rs := newTestQueryHandler()
	base := time.Now()
	for i := 0; i < 25; i++ {
		seedOrder(rs, fmt.Sprintf("order-%02d", i), fmt.Sprintf("CS-20260831-%06d", i), "", "pending", "pending", base.Add(time.Duration(i)*time.Second))
	}

	result := h.ListOrders(OrderFilter{Page: 1, Limit: 10})
	assert.Len(t, result.Items, 10)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 25}, result.Pagination)

	result = h.ListOrders(OrderFilter{Page: 3, Limit: 10})
	assert.Len(t, result.Items, 5)

	// Page beyond the end clamps to the last page
	result = h.ListOrders(OrderFilter{Page: 9, Limit: 10})
	assert.Equal(t, 3, result.Pagination.CurrentPage)
	assert.Len(t, result.Items, 5)
}

func TestHandler_ListOrdersByUser(t *testing.T) {
	h, rs := newTestQueryHandler()
	base := time.Now()
	seedOrder(rs, "order-1", "CS-20260831-AAAAAA", "u1", "pending", "pending", base)
	seedOrder(rs, "order-2", "CS-20260831-BBBBBB", "u2", "pending", "pending", base.Add(time.Minute))
	seedOrder(rs, "order-3", "CS-20260831-CCCCCC", "u1", "shipped", "paid", base.Add(2*time.Minute))

	orders := h.ListOrdersByUser("u1")
	require.Len(t, orders, 2)
	assert.Equal(t, "order-3", orders[0].ID)

	assert.Empty(t, h.ListOrdersByUser("u3"))
}

func TestHandler_GetInventory(t *testing.T) {
	h, rs := newTestQueryHandler()
	rs.Set("inventory", "prod-1", &readmodel.InventoryReadModel{ProductID: "prod-1", TotalStock: 10, AvailableStock: 10})

	inv, ok := h.GetInventory("prod-1")
	require.True(t, ok)
	assert.Equal(t, 10, inv.AvailableStock)

	_, ok = h.GetInventory("missing")
	assert.False(t, ok)
}

func TestHandler_GetUserByEmail(t *testing.T) {
	h, rs := newTestQueryHandler()
	rs.Set("users", "u1", &readmodel.UserReadModel{ID: "u1", Email: "june@example.com"})

	u, ok := h.GetUserByEmail("June@Example.com")
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)

	_, ok = h.GetUserByEmail("nobody@example.com")
	assert.False(t, ok)
}

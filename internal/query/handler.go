package query

import (
	"sort"
	"strings"
	"time"

	"github.com/example/craftshop/internal/domain/cart"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
)

const defaultPageSize = 20

// ProductFilter narrows ListProducts. Zero values mean "no constraint";
// inactive products are excluded unless IncludeInactive is set.
type ProductFilter struct {
	Category        string
	Collection      string
	FeaturedOnly    bool
	IncludeInactive bool
}

// OrderFilter narrows ListOrders for the back office. PlacedAfter and
// PlacedBefore bound the order creation date; zero times are open ends.
type OrderFilter struct {
	Status        string
	PaymentStatus string
	Search        string
	PlacedAfter   time.Time
	PlacedBefore  time.Time
	Page          int
	Limit         int
}

// Pagination describes one page of a larger result set
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
}

// OrderList is a page of orders plus its pagination envelope
type OrderList struct {
	Items      []*readmodel.OrderReadModel `json:"items"`
	Pagination Pagination                  `json:"pagination"`
}

// Handler serves reads from the projected models. It never touches the
// event store.
type Handler struct {
	readStore store.ReadStoreInterface
	log       *logrus.Entry
}

func NewHandler(readStore store.ReadStoreInterface, log *logrus.Logger) *Handler {
	return &Handler{
		readStore: readStore,
		log:       log.WithField("component", "query"),
	}
}

// ============================================
// Products
// ============================================

func (h *Handler) GetProduct(id string) (*readmodel.ProductReadModel, bool) {
	data, ok, err := h.readStore.Get("products", id)
	if err != nil {
		h.log.WithField("product_id", id).WithError(err).Error("failed to get product")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return data.(*readmodel.ProductReadModel), true
}

func (h *Handler) GetProductBySlug(slug string) (*readmodel.ProductReadModel, bool) {
	for _, prod := range h.allProducts() {
		if prod.Slug == slug {
			return prod, true
		}
	}
	return nil, false
}

func (h *Handler) ListProducts(filter ProductFilter) []*readmodel.ProductReadModel {
	products := make([]*readmodel.ProductReadModel, 0)
	for _, prod := range h.allProducts() {
		if !filter.IncludeInactive && !prod.IsActive {
			continue
		}
		if filter.FeaturedOnly && !prod.IsFeatured {
			continue
		}
		if filter.Category != "" && prod.Category != filter.Category {
			continue
		}
		if filter.Collection != "" && !contains(prod.Collections, filter.Collection) {
			continue
		}
		products = append(products, prod)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products
}

func (h *Handler) ListFeaturedProducts() []*readmodel.ProductReadModel {
	return h.ListProducts(ProductFilter{FeaturedOnly: true})
}

func (h *Handler) allProducts() []*readmodel.ProductReadModel {
	items, err := h.readStore.GetAll("products")
	if err != nil {
		h.log.WithError(err).Error("failed to list products")
		return nil
	}
	products := make([]*readmodel.ProductReadModel, 0, len(items))
	for _, item := range items {
		products = append(products, item.(*readmodel.ProductReadModel))
	}
	return products
}

// ============================================
// Carts
// ============================================

// GetCart returns the owner's cart, or an empty cart when none exists.
// Totals are recomputed from the lines rather than trusted from storage.
func (h *Handler) GetCart(owner cart.OwnerKey) (*readmodel.CartReadModel, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	cartID := owner.CartID()

	data, ok, err := h.readStore.Get("carts", cartID)
	if err != nil {
		h.log.WithField("cart_id", cartID).WithError(err).Error("failed to get cart")
		return nil, err
	}
	if !ok {
		return &readmodel.CartReadModel{
			ID:        cartID,
			UserID:    owner.UserID,
			SessionID: owner.SessionID,
			Items:     []readmodel.CartItemReadModel{},
		}, nil
	}

	c := data.(*readmodel.CartReadModel)
	totalItems := 0
	var totalAmount int64
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalAmount += item.UnitPrice * int64(item.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalAmount = totalAmount
	return c, nil
}

// ============================================
// Orders
// ============================================

func (h *Handler) GetOrder(id string) (*readmodel.OrderReadModel, bool) {
	data, ok, err := h.readStore.Get("orders", id)
	if err != nil {
		h.log.WithField("order_id", id).WithError(err).Error("failed to get order")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return data.(*readmodel.OrderReadModel), true
}

func (h *Handler) GetOrderByNumber(orderNumber string) (*readmodel.OrderReadModel, bool) {
	for _, o := range h.allOrders() {
		if o.OrderNumber == orderNumber {
			return o, true
		}
	}
	return nil, false
}

// ListOrders is the back-office listing: filterable, searchable, paginated,
// newest first.
func (h *Handler) ListOrders(filter OrderFilter) OrderList {
	matched := make([]*readmodel.OrderReadModel, 0)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, o := range h.allOrders() {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if search != "" && !orderMatches(o, search) {
			continue
		}
		if !filter.PlacedAfter.IsZero() && o.CreatedAt.Before(filter.PlacedAfter) {
			continue
		}
		if !filter.PlacedBefore.IsZero() && o.CreatedAt.After(filter.PlacedBefore) {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	totalItems := len(matched)
	totalPages := (totalItems + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := start + limit
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return OrderList{
		Items: matched[start:end],
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  totalItems,
		},
	}
}

func (h *Handler) ListOrdersByUser(userID string) []*readmodel.OrderReadModel {
	orders := make([]*readmodel.OrderReadModel, 0)
	for _, o := range h.allOrders() {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (h *Handler) allOrders() []*readmodel.OrderReadModel {
	items, err := h.readStore.GetAll("orders")
	if err != nil {
		h.log.WithError(err).Error("failed to list orders")
		return nil
	}
	orders := make([]*readmodel.OrderReadModel, 0, len(items))
	for _, item := range items {
		orders = append(orders, item.(*readmodel.OrderReadModel))
	}
	return orders
}

func orderMatches(o *readmodel.OrderReadModel, search string) bool {
	return strings.Contains(strings.ToLower(o.OrderNumber), search) ||
		strings.Contains(strings.ToLower(o.CustomerName), search) ||
		strings.Contains(strings.ToLower(o.GuestEmail), search) ||
		strings.Contains(strings.ToLower(o.ShippingAddress.Email), search)
}

// ============================================
// Inventory
// ============================================

func (h *Handler) GetInventory(productID string) (*readmodel.InventoryReadModel, bool) {
	data, ok, err := h.readStore.Get("inventory", productID)
	if err != nil {
		h.log.WithField("product_id", productID).WithError(err).Error("failed to get inventory")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return data.(*readmodel.InventoryReadModel), true
}

// ============================================
// Users
// ============================================

func (h *Handler) GetUser(id string) (*readmodel.UserReadModel, bool) {
	data, ok, err := h.readStore.Get("users", id)
	if err != nil {
		h.log.WithField("user_id", id).WithError(err).Error("failed to get user")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return data.(*readmodel.UserReadModel), true
}

func (h *Handler) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	items, err := h.readStore.GetAll("users")
	if err != nil {
		h.log.WithError(err).Error("failed to list users")
		return nil, false
	}
	for _, item := range items {
		u := item.(*readmodel.UserReadModel)
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return nil, false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

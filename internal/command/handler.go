package command

import (
	"context"
	"fmt"

	"github.com/example/craftshop/internal/domain/cart"
	"github.com/example/craftshop/internal/domain/catalog"
	"github.com/example/craftshop/internal/domain/inventory"
	"github.com/example/craftshop/internal/domain/order"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/notification"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
)

// Options toggle optional command-side behavior
type Options struct {
	// ReserveInventory makes PlaceOrder reserve stock and the fulfillment
	// transitions release or deduct it. Off by default: a small shop can
	// oversell and apologize, a failed checkout cannot.
	ReserveInventory bool
}

// Handler executes write-side commands by coordinating the domain services.
// Read models are consulted only for catalog lookups; everything the order
// depends on is re-read from the event store.
type Handler struct {
	catalogSvc   *catalog.Service
	cartSvc      *cart.Service
	orderSvc     *order.Service
	inventorySvc *inventory.Service
	readStore    store.ReadStoreInterface
	notifier     *notification.Dispatcher
	opts         Options
	log          *logrus.Entry
}

func NewHandler(
	catalogSvc *catalog.Service,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	inventorySvc *inventory.Service,
	readStore store.ReadStoreInterface,
	notifier *notification.Dispatcher,
	opts Options,
	log *logrus.Logger,
) *Handler {
	return &Handler{
		catalogSvc:   catalogSvc,
		cartSvc:      cartSvc,
		orderSvc:     orderSvc,
		inventorySvc: inventorySvc,
		readStore:    readStore,
		notifier:     notifier,
		opts:         opts,
		log:          log.WithField("component", "command"),
	}
}

// ============================================
// Product commands
// ============================================

func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*catalog.Product, error) {
	slug := cmd.Slug
	if slug == "" {
		slug = catalog.Slugify(cmd.Name)
	}

	p, err := h.catalogSvc.Create(ctx, catalog.CreateInput{
		Name:          cmd.Name,
		Slug:          h.uniqueSlug(slug),
		Description:   cmd.Description,
		Price:         cmd.Price,
		OriginalPrice: cmd.OriginalPrice,
		Inventory:     cmd.Inventory,
		Category:      cmd.Category,
		Collections:   cmd.Collections,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Inventory > 0 {
		if err := h.inventorySvc.AddStock(ctx, p.ID, cmd.Inventory); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// uniqueSlug disambiguates a slug against the projected catalog so two
// products named "Mug" become mug and mug-2. Slugs are fixed at creation,
// so the read model is the complete set of taken values.
func (h *Handler) uniqueSlug(base string) string {
	taken := make(map[string]bool)
	if all, err := h.readStore.GetAll("products"); err == nil {
		for _, data := range all {
			if p, ok := data.(*readmodel.ProductReadModel); ok {
				taken[p.Slug] = true
			}
		}
	}
	if !taken[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	return h.catalogSvc.Update(ctx, cmd.ProductID, catalog.UpdateInput{
		Name:          cmd.Name,
		Description:   cmd.Description,
		Price:         cmd.Price,
		OriginalPrice: cmd.OriginalPrice,
		Inventory:     cmd.Inventory,
		IsActive:      cmd.IsActive,
		Category:      cmd.Category,
		Collections:   cmd.Collections,
	})
}

func (h *Handler) SetProductImages(ctx context.Context, cmd SetProductImages) error {
	return h.catalogSvc.SetImages(ctx, cmd.ProductID, cmd.Images)
}

func (h *Handler) SetProductFeatured(ctx context.Context, cmd SetProductFeatured) error {
	return h.catalogSvc.SetFeatured(ctx, cmd.ProductID, cmd.Featured)
}

func (h *Handler) ArchiveProduct(ctx context.Context, cmd ArchiveProduct) error {
	return h.catalogSvc.Archive(ctx, cmd.ProductID)
}

func (h *Handler) AddStock(ctx context.Context, cmd AddStock) error {
	return h.inventorySvc.AddStock(ctx, cmd.ProductID, cmd.Quantity)
}

// ============================================
// Cart commands
// ============================================

// AddToCart snapshots the product's current name and price onto the line.
// Archived products cannot be added.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	data, ok, err := h.readStore.Get("products", cmd.ProductID)
	if err != nil {
		return err
	}
	if !ok {
		return catalog.ErrProductNotFound
	}
	prod := data.(*readmodel.ProductReadModel)
	if !prod.IsActive {
		return catalog.ErrProductArchived
	}

	snap := cart.ProductSnapshot{
		ProductID: prod.ID,
		Name:      prod.Name,
		UnitPrice: prod.Price,
	}
	return h.cartSvc.AddItem(ctx, cmd.Owner, snap, cmd.Quantity, cmd.Variant)
}

func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) error {
	return h.cartSvc.UpdateItemQuantity(ctx, cmd.Owner, cmd.ItemID, cmd.Quantity)
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) error {
	return h.cartSvc.RemoveItem(ctx, cmd.Owner, cmd.ItemID)
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.Owner)
}

// ============================================
// Order commands
// ============================================

// PlaceOrder converts the owner's cart into an immutable order. The cart
// is re-read from the event store, never trusted from the request. On
// success the cart is cleared best-effort and notifications go out in the
// background.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	c, err := h.cartSvc.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}

	items := make([]order.Item, len(c.Items))
	for i, line := range c.Items {
		items[i] = order.Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
		if line.Variant != nil {
			items[i].Variant = &order.Variant{Name: line.Variant.Name, Options: line.Variant.Options}
		}
	}

	if h.opts.ReserveInventory {
		if err := h.reserveAll(ctx, items); err != nil {
			return nil, err
		}
	}

	o, err := h.orderSvc.Place(ctx, order.PlaceInput{
		UserID:          cmd.Owner.UserID,
		UserEmail:       cmd.UserEmail,
		GuestEmail:      cmd.GuestEmail,
		Items:           items,
		ShippingAddress: cmd.ShippingAddress,
		PaymentMethod:   order.PaymentMethod(cmd.PaymentMethod),
		Notes:           cmd.Notes,
	})
	if err != nil {
		if h.opts.ReserveInventory {
			h.releaseAll(ctx, "", items)
		}
		return nil, err
	}

	// The order exists now; a failed cart clear must not undo it
	if err := h.cartSvc.Clear(ctx, cmd.Owner); err != nil {
		h.log.WithFields(logrus.Fields{
			"order_id": o.ID,
			"cart_id":  c.ID,
		}).WithError(err).Warn("failed to clear cart after placing order")
	}

	// An authenticated checkout from a browser that still carries a guest
	// session discards that session's cart too, so stale items cannot
	// resurface on logout.
	if cmd.Owner.UserID != "" && cmd.GuestSessionID != "" {
		if err := h.cartSvc.Clear(ctx, cart.SessionOwner(cmd.GuestSessionID)); err != nil {
			h.log.WithFields(logrus.Fields{
				"order_id":   o.ID,
				"session_id": cmd.GuestSessionID,
			}).WithError(err).Warn("failed to clear leftover guest cart")
		}
	}

	h.notifier.OrderPlaced(o)
	return o, nil
}

func (h *Handler) reserveAll(ctx context.Context, items []order.Item) error {
	reserved := make([]order.Item, 0, len(items))
	for _, item := range items {
		if err := h.inventorySvc.Reserve(ctx, item.ProductID, "", item.Quantity); err != nil {
			h.releaseAll(ctx, "", reserved)
			return err
		}
		reserved = append(reserved, item)
	}
	return nil
}

func (h *Handler) releaseAll(ctx context.Context, orderID string, items []order.Item) {
	for _, item := range items {
		if err := h.inventorySvc.Release(ctx, item.ProductID, orderID, item.Quantity); err != nil {
			h.log.WithFields(logrus.Fields{
				"product_id": item.ProductID,
				"order_id":   orderID,
			}).WithError(err).Warn("failed to release reserved stock")
		}
	}
}

// TransitionOrderStatus moves an order through fulfillment. When
// reservation is on, shipping consumes the reserved stock and a cancel
// before shipping returns it.
func (h *Handler) TransitionOrderStatus(ctx context.Context, cmd TransitionOrderStatus) (*order.Order, error) {
	to := order.Status(cmd.Status)

	var from order.Status
	if h.opts.ReserveInventory {
		current, err := h.orderSvc.Get(ctx, cmd.OrderID)
		if err != nil {
			return nil, err
		}
		from = current.Status
	}

	o, err := h.orderSvc.TransitionStatus(ctx, cmd.OrderID, to, cmd.Reason)
	if err != nil {
		return nil, err
	}

	if h.opts.ReserveInventory {
		switch {
		case to == order.StatusShipped:
			for _, item := range o.Items {
				if err := h.inventorySvc.Deduct(ctx, item.ProductID, o.ID, item.Quantity); err != nil {
					h.log.WithFields(logrus.Fields{
						"order_id":   o.ID,
						"product_id": item.ProductID,
					}).WithError(err).Warn("failed to deduct stock on shipment")
				}
			}
		case to == order.StatusCancelled && from != order.StatusShipped:
			h.releaseAll(ctx, o.ID, o.Items)
		}
	}

	h.notifier.OrderStatusChanged(o)
	return o, nil
}

func (h *Handler) SetPaymentStatus(ctx context.Context, cmd SetPaymentStatus) error {
	return h.orderSvc.SetPaymentStatus(ctx, cmd.OrderID, order.PaymentStatus(cmd.PaymentStatus))
}

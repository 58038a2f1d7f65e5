package notification

import (
	"context"
	"encoding/json"

	"github.com/example/craftshop/internal/domain/order"
	"github.com/example/craftshop/internal/email"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
)

// Handler consumes order events from the bus and turns them into
// notifications. It is the out-of-process alternative to the in-process
// Dispatcher: deployments run one or the other, never both.
type Handler struct {
	gateway   Gateway
	readStore store.ReadStoreInterface
	log       *logrus.Entry
}

func NewHandler(gateway Gateway, readStore store.ReadStoreInterface, log *logrus.Logger) *Handler {
	return &Handler{
		gateway:   gateway,
		readStore: readStore,
		log:       log.WithField("component", "notifier"),
	}
}

// HandleEvent processes one event from the bus. Notification failures are
// logged and swallowed so the consumer never stalls on a bad mail relay.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.log.WithError(err).Error("failed to unmarshal event")
		return err
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		h.handleOrderPlaced(ctx, event)
	case order.EventOrderStatusChanged:
		h.handleStatusChanged(ctx, event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(ctx context.Context, event store.Event) {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		h.log.WithError(err).Error("failed to unmarshal OrderPlaced event")
		return
	}

	to, customerName := h.contactFor(e.UserID, e.GuestEmail)
	if customerName == "" {
		customerName = e.ShippingAddress.FullName
	}
	if to == "" {
		to = e.ShippingAddress.Email
	}
	if to == "" {
		h.log.WithField("order_id", e.OrderID).Warn("no contact email for order, skipping confirmation")
		return
	}

	lines := make([]email.OrderLine, len(e.Items))
	for i, item := range e.Items {
		lines[i] = email.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Variant:   item.Variant.Label(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	if err := h.gateway.OrderConfirmation(ctx, to, e.OrderNumber, customerName, lines, e.Subtotal, e.ShippingCost, e.TotalAmount); err != nil {
		h.log.WithFields(logrus.Fields{
			"order_id": e.OrderID,
			"to":       to,
		}).WithError(err).Warn("failed to send order confirmation")
	} else {
		h.log.WithFields(logrus.Fields{
			"order_id": e.OrderID,
			"to":       to,
		}).Info("order confirmation sent")
	}

	if err := h.gateway.StaffNewOrder(ctx, e.OrderNumber, to, len(e.Items), e.TotalAmount); err != nil {
		h.log.WithField("order_id", e.OrderID).WithError(err).Warn("failed to send staff alert")
	}
}

func (h *Handler) handleStatusChanged(ctx context.Context, event store.Event) {
	var e order.OrderStatusChanged
	if err := json.Unmarshal(event.Data, &e); err != nil {
		h.log.WithError(err).Error("failed to unmarshal OrderStatusChanged event")
		return
	}

	data, exists, err := h.readStore.Get("orders", e.OrderID)
	if err != nil || !exists {
		h.log.WithField("order_id", e.OrderID).Warn("order read model not found, skipping status notification")
		return
	}
	o, ok := data.(*readmodel.OrderReadModel)
	if !ok {
		h.log.WithField("order_id", e.OrderID).Error("unexpected order read model type")
		return
	}

	to, _ := h.contactFor(o.UserID, o.GuestEmail)
	if to == "" {
		to = o.ShippingAddress.Email
	}
	if to == "" {
		return
	}

	if err := h.gateway.StatusUpdate(ctx, to, o.OrderNumber, string(e.Status)); err != nil {
		h.log.WithFields(logrus.Fields{
			"order_id": e.OrderID,
			"status":   e.Status,
		}).WithError(err).Warn("failed to send status update")
	}
}

// contactFor resolves the notification address: registered users by read
// model lookup, guests by the email captured at checkout.
func (h *Handler) contactFor(userID, guestEmail string) (to, name string) {
	if userID == "" {
		return guestEmail, ""
	}
	data, exists, err := h.readStore.Get("users", userID)
	if err != nil || !exists {
		return "", ""
	}
	user, ok := data.(*readmodel.UserReadModel)
	if !ok {
		return "", ""
	}
	return user.Email, user.Name
}

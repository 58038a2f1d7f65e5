package notification

import (
	"context"
	"time"

	"github.com/example/craftshop/internal/domain/order"
	"github.com/example/craftshop/internal/email"
	"github.com/sirupsen/logrus"
)

const sendTimeout = 15 * time.Second

// Dispatcher sends order notifications without ever failing the caller:
// placing an order must succeed even when the mail relay is down, so every
// error here is logged and dropped.
type Dispatcher struct {
	gateway Gateway
	log     *logrus.Entry
}

func NewDispatcher(gateway Gateway, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		log:     log.WithField("component", "notification-dispatcher"),
	}
}

// OrderPlaced sends the customer confirmation and the staff alert in the
// background. Callers do not wait for delivery.
func (d *Dispatcher) OrderPlaced(o *order.Order) {
	go d.sendOrderPlaced(o)
}

func (d *Dispatcher) sendOrderPlaced(o *order.Order) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithField("order_id", o.ID).Errorf("panic while sending order notifications: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	lines := make([]email.OrderLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = email.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Variant:   item.Variant.Label(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	to := o.ContactEmail()
	if err := d.gateway.OrderConfirmation(ctx, to, o.OrderNumber, o.ShippingAddress.FullName, lines, o.Subtotal, o.ShippingCost, o.TotalAmount); err != nil {
		d.log.WithFields(logrus.Fields{
			"order_id": o.ID,
			"to":       to,
		}).WithError(err).Warn("failed to send order confirmation")
	}

	if err := d.gateway.StaffNewOrder(ctx, o.OrderNumber, to, len(o.Items), o.TotalAmount); err != nil {
		d.log.WithField("order_id", o.ID).WithError(err).Warn("failed to send staff alert")
	}
}

// OrderStatusChanged tells the customer their order moved. Same
// best-effort contract as OrderPlaced.
func (d *Dispatcher) OrderStatusChanged(o *order.Order) {
	go d.sendStatusChanged(o)
}

func (d *Dispatcher) sendStatusChanged(o *order.Order) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithField("order_id", o.ID).Errorf("panic while sending status notification: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	to := o.ContactEmail()
	if err := d.gateway.StatusUpdate(ctx, to, o.OrderNumber, string(o.Status)); err != nil {
		d.log.WithFields(logrus.Fields{
			"order_id": o.ID,
			"status":   o.Status,
		}).WithError(err).Warn("failed to send status update")
	}
}

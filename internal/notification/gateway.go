package notification

import (
	"context"

	"github.com/example/craftshop/internal/email"
	"github.com/sirupsen/logrus"
)

// Gateway delivers customer and staff notifications. Implementations must
// be safe for concurrent use; callers treat every send as best-effort.
type Gateway interface {
	OrderConfirmation(ctx context.Context, to, orderNumber, customerName string, lines []email.OrderLine, subtotal, shippingCost, total int64) error
	StatusUpdate(ctx context.Context, to, orderNumber, status string) error
	StaffNewOrder(ctx context.Context, orderNumber, customerEmail string, itemCount int, total int64) error
}

// EmailGateway sends notifications through the SMTP email service
type EmailGateway struct {
	emailService *email.Service
}

func NewEmailGateway(emailService *email.Service) *EmailGateway {
	return &EmailGateway{emailService: emailService}
}

func (g *EmailGateway) OrderConfirmation(ctx context.Context, to, orderNumber, customerName string, lines []email.OrderLine, subtotal, shippingCost, total int64) error {
	return g.emailService.SendOrderConfirmation(to, orderNumber, customerName, lines, subtotal, shippingCost, total)
}

func (g *EmailGateway) StatusUpdate(ctx context.Context, to, orderNumber, status string) error {
	return g.emailService.SendStatusUpdate(to, orderNumber, status)
}

func (g *EmailGateway) StaffNewOrder(ctx context.Context, orderNumber, customerEmail string, itemCount int, total int64) error {
	return g.emailService.SendStaffAlert(orderNumber, customerEmail, itemCount, total)
}

// LogGateway writes notifications to the log instead of sending them.
// Used when SMTP is not configured, e.g. local development.
type LogGateway struct {
	log *logrus.Entry
}

func NewLogGateway(log *logrus.Logger) *LogGateway {
	return &LogGateway{log: log.WithField("component", "notification")}
}

func (g *LogGateway) OrderConfirmation(ctx context.Context, to, orderNumber, customerName string, lines []email.OrderLine, subtotal, shippingCost, total int64) error {
	g.log.WithFields(logrus.Fields{
		"to":           to,
		"order_number": orderNumber,
		"total":        total,
	}).Info("order confirmation (not sent, SMTP disabled)")
	return nil
}

func (g *LogGateway) StatusUpdate(ctx context.Context, to, orderNumber, status string) error {
	g.log.WithFields(logrus.Fields{
		"to":           to,
		"order_number": orderNumber,
		"status":       status,
	}).Info("status update (not sent, SMTP disabled)")
	return nil
}

func (g *LogGateway) StaffNewOrder(ctx context.Context, orderNumber, customerEmail string, itemCount int, total int64) error {
	g.log.WithFields(logrus.Fields{
		"order_number": orderNumber,
		"customer":     customerEmail,
	}).Info("staff alert (not sent, SMTP disabled)")
	return nil
}

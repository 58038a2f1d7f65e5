package email

import (
	"fmt"
	"strings"
)

// OrderLine is one purchased line rendered into an email
type OrderLine struct {
	ProductID string
	Name      string
	Variant   string
	Quantity  int
	UnitPrice int64
}

// FormatCents renders an amount in minor units as dollars, e.g. 123456 -> "$1,234.56"
func FormatCents(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	dollars := amount / 100
	cents := amount % 100

	digits := fmt.Sprintf("%d", dollars)
	var grouped strings.Builder
	remainder := len(digits) % 3
	if remainder > 0 {
		grouped.WriteString(digits[:remainder])
		if len(digits) > remainder {
			grouped.WriteString(",")
		}
	}
	for i := remainder; i < len(digits); i += 3 {
		grouped.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			grouped.WriteString(",")
		}
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), cents)
}

// BuildOrderConfirmation builds the HTML body for the customer confirmation email
func BuildOrderConfirmation(orderNumber, customerName string, lines []OrderLine, subtotal, shippingCost, total int64) string {
	var rows strings.Builder
	for _, line := range lines {
		name := line.Name
		if name == "" {
			name = line.ProductID
		}
		if line.Variant != "" {
			name = fmt.Sprintf("%s (%s)", name, line.Variant)
		}
		rows.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			name,
			line.Quantity,
			FormatCents(line.UnitPrice),
			FormatCents(line.UnitPrice*int64(line.Quantity)),
		))
	}

	greeting := "Thank you for your order!"
	if customerName != "" {
		greeting = fmt.Sprintf("Thank you for your order, %s!", customerName)
	}

	shippingLabel := FormatCents(shippingCost)
	if shippingCost == 0 {
		shippingLabel = "Free"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #5c4a3a; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Every piece in your order is made by hand, so please allow a little extra time for us to pack it with care.</p>

		<div style="background: #f8f6f3; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #5c4a3a; padding-bottom: 10px;">Your order</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f6f3;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f6f3; border-radius: 5px;">
			<p style="margin: 0; font-size: 14px; color: #666;">Subtotal: %s &nbsp;&middot;&nbsp; Shipping: %s</p>
			<p style="margin: 10px 0 0 0;">
				<span style="font-size: 14px; color: #666;">Order total</span>
				<span style="font-size: 24px; font-weight: bold; color: #5c4a3a; margin-left: 10px;">%s</span>
			</p>
		</div>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. If you have any questions about your order, just reply and we'll get back to you.
		</p>
	</div>
</body>
</html>`, greeting, orderNumber, rows.String(), FormatCents(subtotal), shippingLabel, FormatCents(total))
}

// BuildStatusUpdate builds the HTML body for a fulfillment status email
func BuildStatusUpdate(orderNumber, status string) string {
	headline := map[string]string{
		"confirmed":  "Your order is confirmed",
		"processing": "Your order is being made ready",
		"shipped":    "Your order is on its way",
		"delivered":  "Your order has been delivered",
		"cancelled":  "Your order has been cancelled",
	}[status]
	if headline == "" {
		headline = fmt.Sprintf("Order update: %s", status)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #5c4a3a; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<div style="background: #f8f6f3; padding: 15px; border-radius: 5px;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>
	</div>
</body>
</html>`, headline, orderNumber)
}

// BuildStaffAlert builds the HTML body for the internal new-order alert
func BuildStaffAlert(orderNumber, customerEmail string, itemCount int, total int64) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: monospace; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="margin-top: 0;">New order %s</h2>
	<ul>
		<li>Customer: %s</li>
		<li>Items: %d</li>
		<li>Total: %s</li>
	</ul>
</body>
</html>`, orderNumber, customerEmail, itemCount, FormatCents(total))
}

// Package pricing computes order totals from line items and a shipping
// policy. All amounts are integer minor units (cents); nothing in here
// touches floating point.
package pricing

// Line is a priced quantity of a single product
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Totals is the result of pricing a set of lines
type Totals struct {
	Subtotal     int64 `json:"subtotal"`
	ShippingCost int64 `json:"shipping_cost"`
	TotalAmount  int64 `json:"total_amount"`
}

// ShippingPolicy determines the shipping cost for a given subtotal
type ShippingPolicy interface {
	Cost(subtotal int64) int64
}

// FreeShipping charges nothing
type FreeShipping struct{}

func (FreeShipping) Cost(int64) int64 { return 0 }

// FlatRate charges a fixed amount regardless of subtotal
type FlatRate struct {
	Amount int64
}

func (p FlatRate) Cost(int64) int64 { return p.Amount }

// FreeOverThreshold charges a flat rate, waived once the subtotal reaches
// the threshold.
type FreeOverThreshold struct {
	Threshold int64
	Rate      int64
}

func (p FreeOverThreshold) Cost(subtotal int64) int64 {
	if subtotal >= p.Threshold {
		return 0
	}
	return p.Rate
}

// Subtotal sums unit price times quantity over all lines
func Subtotal(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

// Quote prices the lines under the given policy. TotalAmount is always
// exactly Subtotal + ShippingCost.
func Quote(lines []Line, policy ShippingPolicy) Totals {
	if policy == nil {
		policy = FreeShipping{}
	}
	subtotal := Subtotal(lines)
	shipping := policy.Cost(subtotal)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		TotalAmount:  subtotal + shipping,
	}
}

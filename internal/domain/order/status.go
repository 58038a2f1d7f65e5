package order

// Status is the fulfillment state of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// fulfillment sequence; cancelled sits outside it
var sequence = []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}

func (s Status) rank() int {
	for i, st := range sequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusCancelled || s.rank() >= 0
}

// Terminal reports whether no further transition may leave s
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// TransitionMode selects how strictly status changes are policed
type TransitionMode string

const (
	// ModeStrict allows only forward moves along the fulfillment sequence,
	// plus cancellation from any non-terminal state.
	ModeStrict TransitionMode = "strict"
	// ModeLenient preserves the legacy back office behavior: staff may move
	// an order between any statuses, except out of cancelled.
	ModeLenient TransitionMode = "lenient"
)

// CanTransition reports whether an order may move from one status to
// another under the given mode.
func CanTransition(from, to Status, mode TransitionMode) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	if mode == ModeLenient {
		return true
	}
	return from.rank() >= 0 && to.rank() > from.rank()
}

// PaymentStatus is the payment state label of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer intends to pay. Cash on delivery is the
// only flow the store implements; the order just records the label.
type PaymentMethod string

const PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery
}

package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/craftshop/internal/domain/aggregate"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/pricing"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const AggregateType = "Order"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyOrder           = errors.New("order must have at least one item")
	ErrInvalidItem          = errors.New("order item must have positive price and quantity")
	ErrInvalidAddress       = errors.New("shipping address is incomplete")
	ErrNoContactEmail       = errors.New("a contact email is required")
	ErrAmbiguousCustomer    = errors.New("order cannot have both a user and a guest email")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrInvalidPaymentStatus = errors.New("unknown payment status")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
)

// Validate reports which required address fields are missing
func (a Address) Validate() error {
	var missing []string
	for field, value := range map[string]string{
		"full_name":   a.FullName,
		"street":      a.Street,
		"city":        a.City,
		"state":       a.State,
		"postal_code": a.PostalCode,
		"country":     a.Country,
		"phone":       a.Phone,
		"email":       a.Email,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}
	return nil
}

// Order is the event-sourced order aggregate. Everything except the two
// status fields and the transition timestamps is fixed at placement.
type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"order_number"`
	UserID          string        `json:"user_id,omitempty"`
	GuestEmail      string        `json:"guest_email,omitempty"`
	Items           []Item        `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	Subtotal        int64         `json:"subtotal"`
	ShippingCost    int64         `json:"shipping_cost"`
	TotalAmount     int64         `json:"total_amount"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	Status          Status        `json:"status"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	ConfirmedAt     *time.Time    `json:"confirmed_at,omitempty"`
	ProcessingAt    *time.Time    `json:"processing_at,omitempty"`
	ShippedAt       *time.Time    `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
	Version         int           `json:"version"`
}

func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// ContactEmail is where customer notifications go
func (o *Order) ContactEmail() string {
	if o.GuestEmail != "" {
		return o.GuestEmail
	}
	return o.ShippingAddress.Email
}

func (o *Order) stampStatus(status Status, at time.Time) {
	switch status {
	case StatusConfirmed:
		o.ConfirmedAt = &at
	case StatusProcessing:
		o.ProcessingAt = &at
	case StatusShipped:
		o.ShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	case StatusCancelled:
		o.CancelledAt = &at
	}
}

// ApplyEvent applies a single event to the order state
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.OrderNumber = data.OrderNumber
		o.UserID = data.UserID
		o.GuestEmail = data.GuestEmail
		o.Items = data.Items
		o.ShippingAddress = data.ShippingAddress
		o.Subtotal = data.Subtotal
		o.ShippingCost = data.ShippingCost
		o.TotalAmount = data.TotalAmount
		o.PaymentMethod = data.PaymentMethod
		o.PaymentStatus = PaymentPending
		o.Status = StatusPending
		o.Notes = data.Notes
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventOrderStatusChanged:
		var data OrderStatusChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = data.Status
		o.UpdatedAt = data.ChangedAt
		o.stampStatus(data.Status, data.ChangedAt)
	case EventPaymentStatusChanged:
		var data PaymentStatusChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.PaymentStatus = data.PaymentStatus
		o.UpdatedAt = data.ChangedAt
	}
	o.Version = event.Version
	return nil
}

// Service handles order write operations
type Service struct {
	eventStore store.EventStoreInterface
	policy     pricing.ShippingPolicy
	mode       TransitionMode
	log        *logrus.Entry
}

// NewService creates an order service. A nil policy means free shipping;
// an empty mode means strict transitions.
func NewService(es store.EventStoreInterface, policy pricing.ShippingPolicy, mode TransitionMode) *Service {
	if policy == nil {
		policy = pricing.FreeShipping{}
	}
	if mode == "" {
		mode = ModeStrict
	}
	return &Service{
		eventStore: es,
		policy:     policy,
		mode:       mode,
		log:        logrus.WithField("component", "order"),
	}
}

func (s *Service) load(ctx context.Context, orderID string) (*Order, error) {
	o, found, err := aggregate.Load(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// PlaceInput carries everything needed to place an order. UserID+UserEmail
// come from the authenticated identity; GuestEmail is the explicit guest
// contact. Exactly one customer kind must be present.
type PlaceInput struct {
	UserID          string
	UserEmail       string
	GuestEmail      string
	Items           []Item
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	Notes           string
}

// Place validates the input, prices it, and persists the immutable order
// snapshot with status pending / payment pending. Nothing is written if any
// validation fails.
func (s *Service) Place(ctx context.Context, in PlaceInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range in.Items {
		if item.UnitPrice <= 0 || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidItem, item.ProductID)
		}
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return nil, err
	}

	method := in.PaymentMethod
	if method == "" {
		method = PaymentCashOnDelivery
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, in.PaymentMethod)
	}

	guestEmail := ""
	switch {
	case in.UserID != "" && in.GuestEmail != "":
		return nil, ErrAmbiguousCustomer
	case in.UserID != "":
		if in.UserEmail == "" {
			return nil, ErrNoContactEmail
		}
	default:
		guestEmail = in.GuestEmail
		if guestEmail == "" {
			guestEmail = in.ShippingAddress.Email
		}
		if guestEmail == "" {
			return nil, ErrNoContactEmail
		}
	}

	lines := make([]pricing.Line, len(in.Items))
	for i, item := range in.Items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	totals := pricing.Quote(lines, s.policy)

	orderID := uuid.New().String()
	now := time.Now()

	event := OrderPlaced{
		OrderID:         orderID,
		OrderNumber:     NewOrderNumber(now),
		UserID:          in.UserID,
		GuestEmail:      guestEmail,
		Items:           in.Items,
		ShippingAddress: in.ShippingAddress,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.ShippingCost,
		TotalAmount:     totals.TotalAmount,
		PaymentMethod:   method,
		Notes:           in.Notes,
		PlacedAt:        now,
	}

	stored, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderPlaced, event)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:              orderID,
		OrderNumber:     event.OrderNumber,
		UserID:          in.UserID,
		GuestEmail:      guestEmail,
		Items:           in.Items,
		ShippingAddress: in.ShippingAddress,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.ShippingCost,
		TotalAmount:     totals.TotalAmount,
		PaymentMethod:   method,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if stored != nil {
		o.Version = stored.Version
	}

	s.snapshot(ctx, o)
	return o, nil
}

// TransitionStatus moves an order through the fulfillment state machine.
// Invalid moves are rejected without touching state.
func (s *Service) TransitionStatus(ctx context.Context, orderID string, to Status, reason string) (*Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, to)
	}

	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, to, s.mode) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	now := time.Now()
	event := OrderStatusChanged{
		OrderID:   orderID,
		From:      o.Status,
		Status:    to,
		Reason:    reason,
		ChangedAt: now,
	}

	stored, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderStatusChanged, event)
	if err != nil {
		return nil, err
	}

	o.Status = to
	o.UpdatedAt = now
	o.stampStatus(to, now)
	if stored != nil {
		o.Version = stored.Version
	}

	s.snapshot(ctx, o)
	return o, nil
}

// SetPaymentStatus records a payment state label change
func (s *Service) SetPaymentStatus(ctx context.Context, orderID string, ps PaymentStatus) error {
	if !ps.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, ps)
	}

	o, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}

	event := PaymentStatusChanged{
		OrderID:       orderID,
		PaymentStatus: ps,
		ChangedAt:     time.Now(),
	}

	stored, err := s.eventStore.Append(ctx, orderID, AggregateType, EventPaymentStatusChanged, event)
	if err != nil {
		return err
	}

	// Mutate before snapshotting, or a threshold snapshot would record
	// the old payment status at the new version.
	o.PaymentStatus = ps
	o.UpdatedAt = event.ChangedAt
	if stored != nil {
		o.Version = stored.Version
	}
	s.snapshot(ctx, o)
	return nil
}

// Get rebuilds an order from its events
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.load(ctx, orderID)
}

func (s *Service) snapshot(ctx context.Context, o *Order) {
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, o, AggregateType); err != nil {
		s.log.WithError(err).WithField("order_id", o.ID).Warn("failed to create snapshot")
	}
}

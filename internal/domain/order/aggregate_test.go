package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/infrastructure/store/mocks"
	"github.com/example/craftshop/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return NewService(eventStore, nil, ModeStrict), eventStore
}

func validAddress() Address {
	return Address{
		FullName:   "June Carver",
		Street:     "12 Kiln Lane",
		City:       "Asheville",
		State:      "NC",
		PostalCode: "28801",
		Country:    "US",
		Phone:      "+1 828 555 0101",
		Email:      "june@example.com",
	}
}

func guestInput() PlaceInput {
	return PlaceInput{
		GuestEmail: "june@example.com",
		Items: []Item{
			{ProductID: "prod-a", Name: "Stoneware Mug", UnitPrice: 1000, Quantity: 2},
			{ProductID: "prod-b", Name: "Linen Towel", UnitPrice: 500, Quantity: 1},
		},
		ShippingAddress: validAddress(),
	}
}

// ============================================
// Place Tests
// ============================================

func TestService_Place_TotalsReconcile(t *testing.T) {
	service, eventStore := newTestOrderService()

	o, err := service.Place(context.Background(), guestInput())

	require.NoError(t, err)
	assert.Equal(t, int64(2500), o.Subtotal)
	assert.Equal(t, int64(0), o.ShippingCost)
	assert.Equal(t, int64(2500), o.TotalAmount)
	assert.Equal(t, o.Subtotal+o.ShippingCost, o.TotalAmount)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, PaymentCashOnDelivery, o.PaymentMethod)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventOrderPlaced, eventStore.AppendCalls[0].EventType)
}

func TestService_Place_FlatRateShipping(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore, pricing.FlatRate{Amount: 499}, ModeStrict)

	o, err := service.Place(context.Background(), guestInput())

	require.NoError(t, err)
	assert.Equal(t, int64(2500), o.Subtotal)
	assert.Equal(t, int64(499), o.ShippingCost)
	assert.Equal(t, int64(2999), o.TotalAmount)
}

func TestService_Place_EmptyItems(t *testing.T) {
	service, eventStore := newTestOrderService()
	in := guestInput()
	in.Items = nil

	o, err := service.Place(context.Background(), in)

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Nil(t, o)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Place_RejectsNonPositiveItems(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	in := guestInput()
	in.Items[0].Quantity = 0
	_, err := service.Place(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidItem)

	in = guestInput()
	in.Items[1].UnitPrice = -5
	_, err = service.Place(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidItem)

	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Place_IncompleteAddress(t *testing.T) {
	service, eventStore := newTestOrderService()
	in := guestInput()
	in.ShippingAddress.PostalCode = ""
	in.ShippingAddress.Phone = ""

	_, err := service.Place(context.Background(), in)

	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Contains(t, err.Error(), "postal_code")
	assert.Contains(t, err.Error(), "phone")
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Place_NoContactEmail(t *testing.T) {
	service, eventStore := newTestOrderService()
	in := guestInput()
	in.GuestEmail = ""
	in.ShippingAddress.Email = ""

	_, err := service.Place(context.Background(), in)

	// Address validation catches the missing email before contact resolution
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Place_AuthenticatedWithoutEmail(t *testing.T) {
	service, _ := newTestOrderService()
	in := guestInput()
	in.GuestEmail = ""
	in.UserID = "user-1"
	in.UserEmail = ""

	_, err := service.Place(context.Background(), in)

	assert.ErrorIs(t, err, ErrNoContactEmail)
}

func TestService_Place_UserAndGuestMutuallyExclusive(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	in := guestInput()
	in.UserID = "user-1"
	in.UserEmail = "june@example.com"
	_, err := service.Place(ctx, in)
	assert.ErrorIs(t, err, ErrAmbiguousCustomer)

	in.GuestEmail = ""
	o, err := service.Place(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "user-1", o.UserID)
	assert.Empty(t, o.GuestEmail)
}

func TestService_Place_GuestEmailFallsBackToAddress(t *testing.T) {
	service, _ := newTestOrderService()
	in := guestInput()
	in.GuestEmail = ""

	o, err := service.Place(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "june@example.com", o.GuestEmail)
	assert.Equal(t, "june@example.com", o.ContactEmail())
}

func TestService_Place_UnknownPaymentMethod(t *testing.T) {
	service, _ := newTestOrderService()
	in := guestInput()
	in.PaymentMethod = "carrier_pigeon"

	_, err := service.Place(context.Background(), in)

	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestService_Place_SnapshotSurvivesCatalogEdits(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	o, err := service.Place(ctx, guestInput())
	require.NoError(t, err)

	// Reload from events: totals and lines are fixed at placement, no
	// later catalog read can change them.
	reloaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items, reloaded.Items)
	assert.Equal(t, o.Subtotal, reloaded.Subtotal)
	assert.Equal(t, o.TotalAmount, reloaded.TotalAmount)
	assert.Len(t, eventStore.GetEvents(o.ID), 1)
}

// ============================================
// Transition Tests
// ============================================

func placeTestOrder(t *testing.T, service *Service) *Order {
	t.Helper()
	o, err := service.Place(context.Background(), guestInput())
	require.NoError(t, err)
	return o
}

func TestService_TransitionStatus_ForwardSequence(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()
	o := placeTestOrder(t, service)

	for _, status := range []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered} {
		updated, err := service.TransitionStatus(ctx, o.ID, status, "")
		require.NoError(t, err, string(status))
		assert.Equal(t, status, updated.Status)
	}

	final, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, final.Status)
	assert.NotNil(t, final.ConfirmedAt)
	assert.NotNil(t, final.ProcessingAt)
	assert.NotNil(t, final.ShippedAt)
	assert.NotNil(t, final.DeliveredAt)
	assert.Nil(t, final.CancelledAt)
}

func TestService_TransitionStatus_SkippingForwardAllowed(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)

	updated, err := service.TransitionStatus(context.Background(), o.ID, StatusShipped, "")

	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	assert.NotNil(t, updated.ShippedAt)
}

func TestService_TransitionStatus_BackwardRejected(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()
	o := placeTestOrder(t, service)

	_, err := service.TransitionStatus(ctx, o.ID, StatusShipped, "")
	require.NoError(t, err)

	_, err = service.TransitionStatus(ctx, o.ID, StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.TransitionStatus(ctx, o.ID, StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Rejection must not have mutated state
	reloaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, reloaded.Status)
}

func TestService_TransitionStatus_DeliveredThenPendingFails(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()
	o := placeTestOrder(t, service)

	_, err := service.TransitionStatus(ctx, o.ID, StatusDelivered, "")
	require.NoError(t, err)

	_, err = service.TransitionStatus(ctx, o.ID, StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_TransitionStatus_CancelFromNonTerminal(t *testing.T) {
	for _, start := range []Status{StatusPending, StatusConfirmed, StatusProcessing} {
		t.Run(string(start), func(t *testing.T) {
			service, _ := newTestOrderService()
			ctx := context.Background()
			o := placeTestOrder(t, service)

			if start != StatusPending {
				_, err := service.TransitionStatus(ctx, o.ID, start, "")
				require.NoError(t, err)
			}

			updated, err := service.TransitionStatus(ctx, o.ID, StatusCancelled, "customer request")
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, updated.Status)
			assert.NotNil(t, updated.CancelledAt)
		})
	}
}

func TestService_TransitionStatus_CancelFromTerminalFails(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	delivered := placeTestOrder(t, service)
	_, err := service.TransitionStatus(ctx, delivered.ID, StatusDelivered, "")
	require.NoError(t, err)
	_, err = service.TransitionStatus(ctx, delivered.ID, StatusCancelled, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled := placeTestOrder(t, service)
	_, err = service.TransitionStatus(ctx, cancelled.ID, StatusCancelled, "")
	require.NoError(t, err)
	_, err = service.TransitionStatus(ctx, cancelled.ID, StatusCancelled, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = service.TransitionStatus(ctx, cancelled.ID, StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_TransitionStatus_LenientAllowsBackward(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore, nil, ModeLenient)
	ctx := context.Background()
	o := placeTestOrder(t, service)

	_, err := service.TransitionStatus(ctx, o.ID, StatusShipped, "")
	require.NoError(t, err)

	updated, err := service.TransitionStatus(ctx, o.ID, StatusConfirmed, "mis-click correction")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)

	// Even lenient mode refuses to leave cancelled
	_, err = service.TransitionStatus(ctx, o.ID, StatusCancelled, "")
	require.NoError(t, err)
	_, err = service.TransitionStatus(ctx, o.ID, StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_TransitionStatus_UnknownStatus(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)

	_, err := service.TransitionStatus(context.Background(), o.ID, "misplaced", "")

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_TransitionStatus_OrderNotFound(t *testing.T) {
	service, _ := newTestOrderService()

	_, err := service.TransitionStatus(context.Background(), "missing", StatusConfirmed, "")

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_SetPaymentStatus(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()
	o := placeTestOrder(t, service)

	require.NoError(t, service.SetPaymentStatus(ctx, o.ID, PaymentPaid))

	reloaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, reloaded.PaymentStatus)

	assert.ErrorIs(t, service.SetPaymentStatus(ctx, o.ID, "bartered"), ErrInvalidPaymentStatus)
	assert.ErrorIs(t, service.SetPaymentStatus(ctx, "missing", PaymentPaid), ErrOrderNotFound)
}

func TestService_SetPaymentStatus_SurvivesSnapshotBoundary(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()
	o := placeTestOrder(t, service)

	// Place is version 1; the final status change below lands exactly on
	// the snapshot threshold and must still be visible after replay.
	for i := 1; i < store.SnapshotThreshold-1; i++ {
		require.NoError(t, service.SetPaymentStatus(ctx, o.ID, PaymentFailed))
	}
	require.NoError(t, service.SetPaymentStatus(ctx, o.ID, PaymentPaid))

	reloaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, reloaded.PaymentStatus)
	assert.Equal(t, store.SnapshotThreshold, reloaded.Version)
}

// ============================================
// Order number
// ============================================

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^CS-20260831-[2-9A-HJKMNP-Z]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewOrderNumber(now)
		assert.Regexp(t, pattern, n)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}

package notification

import (
	"errors"
	"testing"

	"github.com/example/craftshop/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placedOrder() *order.Order {
	return &order.Order{
		ID:          "order-1",
		OrderNumber: "CS-20260831-ABCDEF",
		GuestEmail:  "june@example.com",
		Items: []order.Item{
			{ProductID: "prod-1", Name: "Stoneware Mug", UnitPrice: 1000, Quantity: 2,
				Variant: &order.Variant{Name: "Glaze", Options: map[string]string{"Glaze": "Ocean"}}},
		},
		ShippingAddress: order.Address{FullName: "June Carver", Email: "june@example.com"},
		Subtotal:        2000,
		ShippingCost:    500,
		TotalAmount:     2500,
		Status:          order.StatusPending,
	}
}

func TestDispatcher_SendOrderPlaced(t *testing.T) {
	gateway := &fakeGateway{}
	d := NewDispatcher(gateway, testLogger())

	d.sendOrderPlaced(placedOrder())

	require.Len(t, gateway.Confirmations, 1)
	call := gateway.Confirmations[0]
	assert.Equal(t, "june@example.com", call.To)
	assert.Equal(t, "CS-20260831-ABCDEF", call.OrderNumber)
	assert.Equal(t, "June Carver", call.CustomerName)
	assert.Equal(t, int64(2500), call.Total)
	require.Len(t, call.Lines, 1)
	assert.Equal(t, "Glaze: Ocean", call.Lines[0].Variant)

	assert.Equal(t, []string{"CS-20260831-ABCDEF"}, gateway.StaffAlerts)
}

func TestDispatcher_SendOrderPlaced_GatewayFailureIsSwallowed(t *testing.T) {
	gateway := &fakeGateway{Err: errors.New("relay down")}
	d := NewDispatcher(gateway, testLogger())

	d.sendOrderPlaced(placedOrder())

	// The confirmation failing must not stop the staff alert attempt.
	assert.Len(t, gateway.Confirmations, 1)
	assert.Len(t, gateway.StaffAlerts, 1)
}

func TestDispatcher_SendStatusChanged(t *testing.T) {
	gateway := &fakeGateway{}
	d := NewDispatcher(gateway, testLogger())

	o := placedOrder()
	o.Status = order.StatusShipped
	d.sendStatusChanged(o)

	require.Len(t, gateway.StatusUpdates, 1)
	assert.Equal(t, statusCall{"june@example.com", "CS-20260831-ABCDEF", "shipped"}, gateway.StatusUpdates[0])
}

func TestDispatcher_SendStatusChanged_GatewayFailureIsSwallowed(t *testing.T) {
	gateway := &fakeGateway{Err: errors.New("relay down")}
	d := NewDispatcher(gateway, testLogger())

	assert.NotPanics(t, func() { d.sendStatusChanged(placedOrder()) })
	assert.Len(t, gateway.StatusUpdates, 1)
}

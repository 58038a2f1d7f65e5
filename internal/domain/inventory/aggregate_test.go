package inventory

import (
	"context"
	"testing"

	"github.com/example/craftshop/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AddStock(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 10))
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 15, inv.TotalStock)
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 15, inv.AvailableStock())

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, InventoryID("prod-1"), eventStore.AppendCalls[0].AggregateID)
	assert.Equal(t, EventStockAdded, eventStore.AppendCalls[0].EventType)
}

func TestService_AddStock_InvalidQuantity(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)

	assert.ErrorIs(t, service.AddStock(context.Background(), "prod-1", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, service.AddStock(context.Background(), "prod-1", -3), ErrInvalidQuantity)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Reserve(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 10))
	require.NoError(t, service.Reserve(ctx, "prod-1", "order-1", 4))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, inv.TotalStock)
	assert.Equal(t, 4, inv.ReservedStock)
	assert.Equal(t, 6, inv.AvailableStock())
}

func TestService_Reserve_InsufficientStock(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 3))
	require.NoError(t, service.Reserve(ctx, "prod-1", "order-1", 2))

	// Only 1 available even though 3 remain on the shelf
	err := service.Reserve(ctx, "prod-1", "order-2", 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Unknown products have zero stock
	err = service.Reserve(ctx, "prod-unknown", "order-3", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_Release(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 10))
	require.NoError(t, service.Reserve(ctx, "prod-1", "order-1", 4))
	require.NoError(t, service.Release(ctx, "prod-1", "order-1", 4))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, inv.TotalStock)
	assert.Equal(t, 0, inv.ReservedStock)
}

func TestService_Release_ClampsAtZero(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 10))
	require.NoError(t, service.Release(ctx, "prod-1", "order-1", 4))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 10, inv.AvailableStock())
}

func TestService_Deduct(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 10))
	require.NoError(t, service.Reserve(ctx, "prod-1", "order-1", 4))
	require.NoError(t, service.Deduct(ctx, "prod-1", "order-1", 4))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 6, inv.TotalStock)
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 6, inv.AvailableStock())
}

func TestService_Deduct_InsufficientStock(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 2))

	assert.ErrorIs(t, service.Deduct(ctx, "prod-1", "order-1", 5), ErrInsufficientStock)
}

func TestService_SnapshotAfterThreshold(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, service.AddStock(ctx, "prod-1", 1))
	}

	snapshot, err := eventStore.GetSnapshot(ctx, InventoryID("prod-1"))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, AggregateType, snapshot.AggregateType)
	assert.Equal(t, 10, snapshot.Version)

	// Replay after snapshot still yields the right totals
	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, inv.TotalStock)
}

package catalog

import (
	"context"
	"testing"

	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return NewService(eventStore), eventStore
}

func validCreateInput() CreateInput {
	return CreateInput{
		Name:        "Hand-thrown Stoneware Mug",
		Description: "Wheel-thrown mug with a matte glaze",
		Price:       3200,
		Inventory:   12,
		Category:    "ceramics",
		Collections: []string{"gift-ideas"},
	}
}

func TestService_Create_Success(t *testing.T) {
	service, eventStore := newTestCatalogService()

	p, err := service.Create(context.Background(), validCreateInput())

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "hand-thrown-stoneware-mug", p.Slug)
	assert.True(t, p.IsActive)
	assert.False(t, p.IsFeatured)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductCreated, eventStore.AppendCalls[0].EventType)
}

func TestService_Create_ExplicitSlugWins(t *testing.T) {
	service, _ := newTestCatalogService()
	in := validCreateInput()
	in.Slug = "stoneware-mug"

	p, err := service.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "stoneware-mug", p.Slug)
}

func TestService_Create_Validation(t *testing.T) {
	service, eventStore := newTestCatalogService()
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*CreateInput)
		wantErr error
	}{
		{"empty name", func(in *CreateInput) { in.Name = "" }, ErrInvalidName},
		{"negative price", func(in *CreateInput) { in.Price = -1 }, ErrInvalidPrice},
		{"negative inventory", func(in *CreateInput) { in.Inventory = -5 }, ErrInvalidInventory},
		{"unknown category", func(in *CreateInput) { in.Category = "plastics" }, ErrInvalidCategory},
		{"unknown collection", func(in *CreateInput) { in.Collections = []string{"whatever"} }, ErrInvalidCategory},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)
			_, err := service.Create(ctx, in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Create_ZeroPriceAllowed(t *testing.T) {
	service, _ := newTestCatalogService()
	in := validCreateInput()
	in.Price = 0

	_, err := service.Create(context.Background(), in)

	require.NoError(t, err)
}

func TestService_SetImages_SinglePrimary(t *testing.T) {
	service, eventStore := newTestCatalogService()
	ctx := context.Background()

	p, err := service.Create(ctx, validCreateInput())
	require.NoError(t, err)

	err = service.SetImages(ctx, p.ID, []Image{
		{URL: "https://img.example/a.jpg", IsPrimary: true},
		{URL: "https://img.example/b.jpg"},
	})

	require.NoError(t, err)
	assert.Equal(t, EventProductImagesSet, eventStore.AppendCalls[1].EventType)
}

func TestService_SetImages_RejectsTwoPrimaries(t *testing.T) {
	service, _ := newTestCatalogService()
	ctx := context.Background()

	p, err := service.Create(ctx, validCreateInput())
	require.NoError(t, err)

	err = service.SetImages(ctx, p.ID, []Image{
		{URL: "https://img.example/a.jpg", IsPrimary: true},
		{URL: "https://img.example/b.jpg", IsPrimary: true},
	})

	assert.ErrorIs(t, err, ErrMultiplePrimary)
}

func TestService_Update_NotFound(t *testing.T) {
	service, _ := newTestCatalogService()

	err := service.Update(context.Background(), "missing", UpdateInput{
		Name: "x", Price: 100, Category: "ceramics", IsActive: true,
	})

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Archive_ThenFeatureFails(t *testing.T) {
	service, _ := newTestCatalogService()
	ctx := context.Background()

	p, err := service.Create(ctx, validCreateInput())
	require.NoError(t, err)

	require.NoError(t, service.Archive(ctx, p.ID))

	err = service.SetFeatured(ctx, p.ID, true)
	assert.ErrorIs(t, err, ErrProductArchived)
}

func TestService_Archive_Twice(t *testing.T) {
	service, _ := newTestCatalogService()
	ctx := context.Background()

	p, err := service.Create(ctx, validCreateInput())
	require.NoError(t, err)

	require.NoError(t, service.Archive(ctx, p.ID))
	assert.ErrorIs(t, service.Archive(ctx, p.ID), ErrProductArchived)
}

func TestService_Update_SurvivesSnapshotBoundary(t *testing.T) {
	service, _ := newTestCatalogService()
	ctx := context.Background()

	p, err := service.Create(ctx, validCreateInput())
	require.NoError(t, err)

	// Create is version 1; enough updates to land one exactly on the
	// snapshot threshold. The price written there must still replay.
	in := UpdateInput{
		Name:        "Hand-thrown Stoneware Mug",
		Description: "Wheel-thrown mug with a matte glaze",
		Inventory:   12,
		IsActive:    true,
		Category:    "ceramics",
		Collections: []string{"gift-ideas"},
	}
	for i := 1; i < store.SnapshotThreshold; i++ {
		in.Price = 3200 + int64(i)
		require.NoError(t, service.Update(ctx, p.ID, in))
	}

	reloaded, err := service.load(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3200+int64(store.SnapshotThreshold-1), reloaded.Price)
	assert.Equal(t, store.SnapshotThreshold, reloaded.Version)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hand-thrown Stoneware Mug": "hand-thrown-stoneware-mug",
		"  Walnut  Serving Board ":  "walnut-serving-board",
		"100% Linen Tea Towel":      "100-linen-tea-towel",
		"épi":                       "pi",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

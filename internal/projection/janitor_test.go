package projection

import (
	"testing"
	"time"

	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCart(rs *store.ReadStore, id, userID, sessionID string, updatedAt time.Time) {
	rs.Set("carts", id, &readmodel.CartReadModel{
		ID:        id,
		UserID:    userID,
		SessionID: sessionID,
		UpdatedAt: updatedAt,
	})
}

func TestJanitor_ReclaimStaleGuestCarts(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	readStore := store.NewReadStore()
	j := NewJanitor(readStore, 30*24*time.Hour, log)

	now := time.Now()
	seedCart(readStore, "cart-session-old", "", "sess-old", now.Add(-45*24*time.Hour))
	seedCart(readStore, "cart-session-fresh", "", "sess-fresh", now.Add(-time.Hour))
	seedCart(readStore, "cart-user-dormant", "user-1", "", now.Add(-90*24*time.Hour))

	removed := j.ReclaimStaleGuestCarts()

	assert.Equal(t, 1, removed)

	_, found, err := readStore.Get("carts", "cart-session-old")
	require.NoError(t, err)
	assert.False(t, found)

	// Recent guest carts and user carts of any age survive the sweep
	_, found, _ = readStore.Get("carts", "cart-session-fresh")
	assert.True(t, found)
	_, found, _ = readStore.Get("carts", "cart-user-dormant")
	assert.True(t, found)
}

func TestJanitor_ReclaimStaleGuestCarts_EmptyStore(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	j := NewJanitor(store.NewReadStore(), 30*24*time.Hour, log)

	assert.Equal(t, 0, j.ReclaimStaleGuestCarts())
}

package projection

import (
	"context"
	"time"

	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
)

// Janitor reclaims read-model rows that no event will ever clean up:
// anonymous carts whose browser session is long gone. Carts belonging to
// a registered user never age out.
type Janitor struct {
	readStore store.ReadStoreInterface
	retention time.Duration
	log       *logrus.Entry
}

func NewJanitor(readStore store.ReadStoreInterface, retention time.Duration, log *logrus.Logger) *Janitor {
	return &Janitor{
		readStore: readStore,
		retention: retention,
		log:       log.WithField("component", "janitor"),
	}
}

// ReclaimStaleGuestCarts deletes session-owned carts untouched for longer
// than the retention window and returns how many were removed.
func (j *Janitor) ReclaimStaleGuestCarts() int {
	cutoff := time.Now().Add(-j.retention)

	all, err := j.readStore.GetAll("carts")
	if err != nil {
		j.log.WithError(err).Warn("failed to list carts for reclamation")
		return 0
	}

	removed := 0
	for _, data := range all {
		c, ok := data.(*readmodel.CartReadModel)
		if !ok {
			continue
		}
		if c.SessionID == "" || c.UserID != "" {
			continue
		}
		if !c.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := j.readStore.Delete("carts", c.ID); err != nil {
			j.log.WithError(err).WithField("cart_id", c.ID).Warn("failed to delete stale guest cart")
			continue
		}
		removed++
	}

	if removed > 0 {
		j.log.WithField("count", removed).Info("reclaimed stale guest carts")
	}
	return removed
}

// sessionSweeper is implemented by read stores that track login sessions
// in their own table, where expiry needs a periodic delete too.
type sessionSweeper interface {
	DeleteExpiredSessions() error
}

// Sweep runs one maintenance pass over everything that ages out.
func (j *Janitor) Sweep() {
	j.ReclaimStaleGuestCarts()
	if sw, ok := j.readStore.(sessionSweeper); ok {
		if err := sw.DeleteExpiredSessions(); err != nil {
			j.log.WithError(err).Warn("failed to delete expired sessions")
		}
	}
}

// Run sweeps on the given interval until the context is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

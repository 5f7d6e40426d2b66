package dashboard

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"customerapp/internal/apperr"
	"customerapp/internal/events"
)

// Coordinator serialises every dashboard write per customer and recomputes
// the derived series whenever the customer's products change.
type Coordinator struct {
	store *Store
	locks *keyMutex
}

func NewCoordinator(store *Store) *Coordinator {
	return &Coordinator{store: store, locks: newKeyMutex()}
}

// Attach subscribes the coordinator to product change notifications.
func (c *Coordinator) Attach(bus *events.Bus) error {
	return bus.SubscribeProductsChanged(c.OnProductsChanged)
}

// OnProductsChanged recomputes the customer's dashboard. Failures are logged
// and dropped: the product write that triggered the event has already
// committed and must not fail because of it.
func (c *Coordinator) OnProductsChanged(ctx context.Context, ev events.ProductsChanged) {
	unlock := c.locks.Lock(ev.CustomerID)
	defer unlock()

	if err := c.store.Recompute(ctx, ev.CustomerID); err != nil {
		zap.L().Error("dashboard recompute failed",
			zap.Uint("customer_id", ev.CustomerID),
			zap.String("reason", ev.Reason),
			zap.Bool("storage", apperr.IsStorage(err)),
			zap.Error(err))
		return
	}
	zap.L().Debug("dashboard recomputed",
		zap.Uint("customer_id", ev.CustomerID),
		zap.String("reason", ev.Reason))
}

// Create creates the customer's dashboard under the customer's lock.
func (c *Coordinator) Create(ctx context.Context, customerID uint, name string) (uint, error) {
	unlock := c.locks.Lock(customerID)
	defer unlock()
	return c.store.Create(ctx, customerID, name)
}

// Get returns the customer's dashboard.
func (c *Coordinator) Get(ctx context.Context, customerID uint) (Dashboard, error) {
	return c.store.GetByCustomer(ctx, customerID)
}

// EnsureDefault returns the customer's dashboard, creating one named
// DefaultName when missing. created reports whether a row was inserted.
// It returns ErrNoProducts when there is nothing to project.
func (c *Coordinator) EnsureDefault(ctx context.Context, customerID uint) (d Dashboard, created bool, err error) {
	d, err = c.store.GetByCustomer(ctx, customerID)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return d, false, err
	}

	_, err = c.Create(ctx, customerID, DefaultName)
	switch {
	case err == nil:
		created = true
	case errors.Is(err, apperr.ErrDashboardExists):
	default:
		return Dashboard{}, false, err
	}

	d, err = c.store.GetByCustomer(ctx, customerID)
	return d, created, err
}

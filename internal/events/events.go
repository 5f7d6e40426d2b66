// Package events carries change notifications between product handling and
// the dashboard coordinator.
package events

import (
	"context"

	EventBus "github.com/asaskevich/EventBus"
)

// TopicProductsChanged is published after a product write commits.
const TopicProductsChanged = "products:changed"

// Reasons attached to ProductsChanged.
const (
	ReasonCreated = "created"
	ReasonUpdated = "updated"
	ReasonDeleted = "deleted"
)

// ProductsChanged announces that a customer's product set was mutated.
type ProductsChanged struct {
	CustomerID uint
	Reason     string
}

// ProductsChangedHandler consumes ProductsChanged events.
type ProductsChangedHandler func(ctx context.Context, ev ProductsChanged)

// Publisher is the narrow side handed to product code.
type Publisher interface {
	PublishProductsChanged(ctx context.Context, ev ProductsChanged)
}

// Bus is a typed facade over EventBus. Handlers run synchronously on the
// publishing goroutine, so a subscriber sees the write that triggered it.
type Bus struct {
	bus EventBus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) PublishProductsChanged(ctx context.Context, ev ProductsChanged) {
	if ctx == nil {
		ctx = context.Background()
	}
	b.bus.Publish(TopicProductsChanged, ctx, ev)
}

func (b *Bus) SubscribeProductsChanged(fn ProductsChangedHandler) error {
	return b.bus.Subscribe(TopicProductsChanged, func(ctx context.Context, ev ProductsChanged) {
		fn(ctx, ev)
	})
}

// HasSubscribers reports whether anything listens for product changes.
func (b *Bus) HasSubscribers() bool {
	return b.bus.HasCallback(TopicProductsChanged)
}

// Package wishlist holds the favourited products for the life of the process.
// Nothing here is persisted.
package wishlist

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Action is a wishlist transition.
type Action interface {
	Kind() string
	isWishlistAction()
}

// Toggle adds the product when absent and removes it when present.
type Toggle struct {
	Product products.Product
}

func (Toggle) Kind() string      { return "TOGGLE_WISHLIST" }
func (Toggle) isWishlistAction() {}

// Reduce applies action to items. items is never modified.
func Reduce(items []products.Product, action Action) []products.Product {
	switch a := action.(type) {
	case Toggle:
		if products.IndexOf(items, a.Product.ID) >= 0 {
			next := make([]products.Product, 0, len(items))
			for _, p := range items {
				if p.ID != a.Product.ID {
					next = append(next, p.Clone())
				}
			}
			return next
		}
		next := clone(items)
		return append(next, a.Product.Clone())
	}
	return items
}

// Aggregate owns the in-memory wishlist.
type Aggregate struct {
	logg *logger.Logger

	mu    sync.RWMutex
	items []products.Product
}

func NewAggregate(logg *logger.Logger) *Aggregate {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Aggregate{logg: logg, items: []products.Product{}}
}

// Dispatch applies action and returns the resulting wishlist.
func (a *Aggregate) Dispatch(ctx context.Context, action Action) []products.Product {
	a.mu.Lock()
	a.items = Reduce(a.items, action)
	snapshot := clone(a.items)
	a.mu.Unlock()

	if action != nil {
		ctx = a.logg.WithFields(ctx, map[string]any{"component": "wishlist", "action": action.Kind(), "size": len(snapshot)})
		a.logg.Debug(ctx, "wishlist updated")
	}
	return snapshot
}

// Items returns the wishlist in insertion order.
func (a *Aggregate) Items() []products.Product {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return clone(a.items)
}

// Contains reports whether the product is favourited.
func (a *Aggregate) Contains(id products.ID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return products.IndexOf(a.items, id) >= 0
}

func clone(items []products.Product) []products.Product {
	out := make([]products.Product, len(items))
	for i, p := range items {
		out[i] = p.Clone()
	}
	return out
}

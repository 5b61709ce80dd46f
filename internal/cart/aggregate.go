// Package cart owns the shopping cart: a pure reducer over cart actions plus an
// aggregate that writes every change through to the durable store.
package cart

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const component = "cart"

// AggregateParams groups dependencies for the cart aggregate.
type AggregateParams struct {
	Store   kv.Store
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
}

// Aggregate is the only path through which cart state changes.
type Aggregate struct {
	store   kv.Store
	logg    *logger.Logger
	metrics *metrics.SyncMetrics

	mu      sync.RWMutex
	items   []LineItem
	version uint64

	// persistMu serialises writes; persisted is the newest version written.
	persistMu sync.Mutex
	persisted uint64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewAggregate builds an empty cart. Mutations block until Rehydrate has run.
func NewAggregate(params AggregateParams) (*Aggregate, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Aggregate{
		store:   params.Store,
		logg:    logg,
		metrics: params.Metrics,
		items:   []LineItem{},
		ready:   make(chan struct{}),
	}, nil
}

// Rehydrate loads the persisted cart. It always opens the ready gate; on a
// read or decode failure the cart starts empty and a storage error is returned
// for the caller to log or surface.
func (a *Aggregate) Rehydrate(ctx context.Context) error {
	defer a.readyOnce.Do(func() { close(a.ready) })
	ctx = a.logg.WithComponent(ctx, component)

	raw, ok, err := kv.GetOptional(ctx, a.store, kv.KeyCart)
	if err != nil {
		a.logg.Error(ctx, "failed to read persisted cart", err)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read cart")
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		a.logg.Error(ctx, "persisted cart is not valid json", err)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "decode cart")
	}

	a.mu.Lock()
	// the rehydrated value is what is already on disk, so it is not written back
	a.items, _ = Reduce(a.items, SetCart{Items: items})
	a.mu.Unlock()

	a.logg.Debug(a.logg.WithField(ctx, "line_items", len(items)), "cart rehydrated")
	return nil
}

// Ready is closed once Rehydrate has finished.
func (a *Aggregate) Ready() <-chan struct{} {
	return a.ready
}

// WaitReady blocks until the cart has been rehydrated or ctx is done.
func (a *Aggregate) WaitReady(ctx context.Context) error {
	select {
	case <-a.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch applies action and writes the resulting collection through to the
// store before returning. The returned items reflect the in-memory state even
// when persisting fails.
func (a *Aggregate) Dispatch(ctx context.Context, action Action) ([]LineItem, error) {
	if err := a.WaitReady(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	next, changed := Reduce(a.items, action)
	if !changed {
		snapshot := Clone(a.items)
		a.mu.Unlock()
		return snapshot, nil
	}
	a.items = next
	a.version++
	version := a.version
	snapshot := Clone(next)
	a.mu.Unlock()

	if action != nil {
		ctx = a.logg.WithField(ctx, "action", action.Kind())
	}
	return snapshot, a.persist(a.logg.WithComponent(ctx, component), version, snapshot)
}

// Items returns a copy of the current line items.
func (a *Aggregate) Items() []LineItem {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Clone(a.items)
}

// Contains reports whether a line item with id is in the cart.
func (a *Aggregate) Contains(id products.ID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return indexOf(a.items, id) >= 0
}

// Total is the formatted cart total.
func (a *Aggregate) Total() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return FormatTotal(a.items)
}

// Count returns the number of units in the cart.
func (a *Aggregate) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Count(a.items)
}

func (a *Aggregate) persist(ctx context.Context, version uint64, items []LineItem) error {
	a.persistMu.Lock()
	defer a.persistMu.Unlock()

	if version < a.persisted {
		a.metrics.ObservePersist(component, 0, metrics.OutcomeSkipped)
		return nil
	}

	start := time.Now()
	payload, err := json.Marshal(items)
	if err != nil {
		a.metrics.ObservePersist(component, time.Since(start), metrics.OutcomeFailure)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := a.store.Set(ctx, kv.KeyCart, string(payload)); err != nil {
		a.metrics.ObservePersist(component, time.Since(start), metrics.OutcomeFailure)
		a.logg.Error(ctx, "failed to persist cart", err)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist cart")
	}
	a.persisted = version
	a.metrics.ObservePersist(component, time.Since(start), metrics.OutcomeSuccess)
	return nil
}

package kv

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront/pkg/metrics"
)

// Instrumented counts every operation of the wrapped backend.
type Instrumented struct {
	next    Backend
	metrics *metrics.SyncMetrics
}

func NewInstrumented(next Backend, m *metrics.SyncMetrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (i *Instrumented) Get(ctx context.Context, key string) (string, error) {
	value, err := i.next.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		// a miss is a successful read
		i.metrics.ObserveStoreOp("get", nil)
		return value, err
	}
	i.metrics.ObserveStoreOp("get", err)
	return value, err
}

func (i *Instrumented) Set(ctx context.Context, key, value string) error {
	err := i.next.Set(ctx, key, value)
	i.metrics.ObserveStoreOp("set", err)
	return err
}

func (i *Instrumented) Remove(ctx context.Context, key string) error {
	err := i.next.Remove(ctx, key)
	i.metrics.ObserveStoreOp("remove", err)
	return err
}

func (i *Instrumented) Close() error {
	return i.next.Close()
}

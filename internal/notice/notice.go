// Package notice holds the single transient message shown to the user. A
// message expires after a fixed delay and is replaced by any later one.
package notice

import (
	"sync"
	"time"
)

const (
	AddedToCart     = "Added to cart"
	RemovedFromCart = "Removed from cart"
	LoadFailed      = "Failed to load carts"
	RefreshFailed   = "Refresh failed"
)

const defaultTTL = 2 * time.Second

// Notifier keeps the current notice.
type Notifier struct {
	ttl time.Duration

	mu         sync.Mutex
	message    string
	generation uint64
	timer      *time.Timer
	listeners  []func(string)
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Notifier{ttl: ttl}
}

// Show replaces the current notice. Only the latest notice's expiry clears it.
func (n *Notifier) Show(message string) {
	n.mu.Lock()
	n.generation++
	gen := n.generation
	n.message = message
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(gen) })
	listeners := append([]func(string){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(message)
	}
}

// Current returns the visible notice, or "" when none is showing.
func (n *Notifier) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message
}

// Subscribe registers fn to be called with every change, including "" on
// expiry.
func (n *Notifier) Subscribe(fn func(string)) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Stop cancels any pending expiry.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	// a later Show owns the notice now
	if gen != n.generation {
		n.mu.Unlock()
		return
	}
	n.message = ""
	listeners := append([]func(string){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn("")
	}
}

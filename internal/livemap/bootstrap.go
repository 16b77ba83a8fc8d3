// README: Exactly-once map provider bootstrap with a ready/error signal.
package livemap

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrProviderLoadFailed marks a terminal provider boot failure. Distinct from
// transient polling failures: consumers show a dedicated "map unavailable"
// state and do not retry on their own.
var ErrProviderLoadFailed = errors.New("map provider failed to load")

// ErrProviderNotReady is returned while the provider is still booting.
var ErrProviderNotReady = errors.New("map provider not ready")

// Factory constructs a concrete provider, typically performing the network
// work of loading/verifying the external mapping library.
type Factory func(ctx context.Context) (Provider, error)

// Bootstrap guards the process-wide provider load. However many tracking
// widgets start concurrently, the factory runs at most once; every consumer
// observes the same provider or the same terminal error.
type Bootstrap struct {
	factory Factory

	mu       sync.Mutex
	started  bool
	done     chan struct{}
	provider Provider
	err      error
}

func NewBootstrap(factory Factory) *Bootstrap {
	return &Bootstrap{factory: factory, done: make(chan struct{})}
}

// Start kicks off the load if it has not begun. Safe to call any number of
// times from any goroutine; calls after the first are no-ops.
func (b *Bootstrap) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go func() {
		p, err := b.factory(ctx)
		b.mu.Lock()
		if err != nil {
			b.err = fmt.Errorf("%w: %v", ErrProviderLoadFailed, err)
		} else {
			b.provider = p
		}
		b.mu.Unlock()
		close(b.done)
	}()
}

// Ready is closed once the load finished, successfully or not.
func (b *Bootstrap) Ready() <-chan struct{} {
	return b.done
}

// Err returns the terminal load error, nil while booting or after a
// successful load.
func (b *Bootstrap) Err() error {
	select {
	case <-b.done:
	default:
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Provider returns the loaded provider, ErrProviderNotReady while booting, or
// the terminal load error.
func (b *Bootstrap) Provider() (Provider, error) {
	select {
	case <-b.done:
	default:
		return nil, ErrProviderNotReady
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.provider, nil
}

// Wait blocks until the load finishes or ctx is cancelled.
func (b *Bootstrap) Wait(ctx context.Context) (Provider, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return b.Provider()
	}
}

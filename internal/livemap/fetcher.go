// README: Location fetcher: polls the tracking endpoint with typed failures.
package livemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

// ErrTrackingNotAvailable means no delivery agent has been assigned yet. Not
// an error condition: consumers show a waiting state and keep polling.
var ErrTrackingNotAvailable = errors.New("location tracking not available yet")

// FetchError is a transient network/HTTP/decode failure. Consumers keep the
// last-known-good session and let the next poll tick retry.
type FetchError struct {
	Message string
	cause   error
}

func (e *FetchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("tracking fetch failed: %s: %v", e.Message, e.cause)
	}
	return "tracking fetch failed: " + e.Message
}

func (e *FetchError) Unwrap() error { return e.cause }

// Fetcher is an HTTP client of GET /api/orders/{id}/location-tracking.
type Fetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewFetcher creates a Fetcher. timeout bounds each poll so a hung request
// surfaces as a FetchError instead of freezing the last-known view.
func NewFetcher(baseURL, token string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Poll fetches the current tracking session for an order.
func (f *Fetcher) Poll(ctx context.Context, orderID types.ID) (*tracking.Session, error) {
	url := fmt.Sprintf("%s/api/orders/%s/location-tracking", f.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Message: "build request", cause: err}
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Message: "request", cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &FetchError{Message: msg}
	}

	var sess tracking.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, &FetchError{Message: "decode response", cause: err}
	}
	if !sess.Enabled {
		return nil, ErrTrackingNotAvailable
	}
	return &sess, nil
}

// Handler receives poll outcomes. Callbacks run on the poller goroutine and
// are never invoked after Stop returns.
type Handler struct {
	// OnSession receives each successfully fetched session (full replace).
	OnSession func(*tracking.Session)
	// OnWaiting fires when tracking is not yet available for the order.
	OnWaiting func()
	// OnError receives transient fetch failures.
	OnError func(error)
}

// Poller drives Poll on a fixed interval. Polls are strictly serialized: the
// loop owns one goroutine, and ticks that fire while a fetch is in flight are
// coalesced by the ticker, so stale results can never overwrite fresher ones.
type Poller struct {
	fetcher  *Fetcher
	orderID  types.ID
	interval time.Duration
	handler  Handler

	mu     sync.Mutex
	last   *tracking.Session
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(fetcher *Fetcher, orderID types.ID, interval time.Duration, handler Handler) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		fetcher:  fetcher,
		orderID:  orderID,
		interval: interval,
		handler:  handler,
	}
}

// Start begins polling: one immediate poll, then one per interval. Calling
// Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx)
}

// Stop halts polling and waits for the loop to exit, guaranteeing that any
// in-flight fetch result is discarded without reaching the handler.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Last returns the last successfully fetched session, if any.
func (p *Poller) Last() *tracking.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.pollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	sess, err := p.fetcher.Poll(ctx, p.orderID)
	if ctx.Err() != nil {
		// Stopped while in flight; the result must not mutate anything.
		return
	}
	switch {
	case err == nil:
		p.mu.Lock()
		p.last = sess
		p.mu.Unlock()
		if p.handler.OnSession != nil {
			p.handler.OnSession(sess)
		}
	case errors.Is(err, ErrTrackingNotAvailable):
		if p.handler.OnWaiting != nil {
			p.handler.OnWaiting()
		}
	default:
		if p.handler.OnError != nil {
			p.handler.OnError(err)
		}
	}
}

package exchange

import (
	"context"
	"errors"
	"sync"
	"time"
)

type cachedQuote struct {
	Quote
	ExpiresAt time.Time
}

type inFlightCall struct {
	done  chan struct{}
	quote Quote
	err   error
}

const (
	defaultCacheTTL    = 12 * time.Hour
	maxCleanupInterval = 5 * time.Minute
)

// CachedProvider wraps a Provider with an in-memory TTL cache.
// Entries are keyed by normalized "FROM->TO" pair and concurrent misses for
// the same pair share one upstream request.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu          sync.RWMutex
	quotes      map[string]cachedQuote
	inFlight    map[string]*inFlightCall
	lastCleanup time.Time
}

// NewCachedProvider returns a provider that caches rates in memory.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{
		inner:    inner,
		ttl:      ttl,
		now:      time.Now,
		quotes:   make(map[string]cachedQuote),
		inFlight: make(map[string]*inFlightCall),
	}
}

// Rate returns the cached quote when fresh, otherwise fetches it.
func (p *CachedProvider) Rate(ctx context.Context, from, to string) (Quote, error) {
	if p.inner == nil {
		return Quote{}, errors.New("inner exchange provider is required")
	}
	from, to, err := normalizePair(from, to)
	if err != nil {
		return Quote{}, err
	}

	key := from + "->" + to
	now := p.now()

	p.mu.RLock()
	entry, ok := p.quotes[key]
	p.mu.RUnlock()
	if ok && now.Before(entry.ExpiresAt) {
		return entry.Quote, nil
	}

	p.mu.Lock()
	// Re-check under the write lock in case another goroutine refreshed it.
	entry, ok = p.quotes[key]
	if ok && now.Before(entry.ExpiresAt) {
		p.mu.Unlock()
		return entry.Quote, nil
	}
	if ok {
		delete(p.quotes, key)
	}

	if call, waiting := p.inFlight[key]; waiting {
		p.mu.Unlock()
		return waitForInFlight(ctx, call)
	}

	call := &inFlightCall{done: make(chan struct{})}
	p.inFlight[key] = call
	p.mu.Unlock()

	// The fetch outlives a single caller's cancellation so other waiters still get the result.
	go p.fetchAndBroadcast(context.WithoutCancel(ctx), key, from, to, call)
	return waitForInFlight(ctx, call)
}

func (p *CachedProvider) fetchAndBroadcast(ctx context.Context, key, from, to string, call *inFlightCall) {
	quote, err := p.inner.Rate(ctx, from, to)
	if err == nil {
		err = validateConversionRate(quote.Rate)
	}

	fetchedAt := p.now()
	p.mu.Lock()
	if err == nil {
		p.quotes[key] = cachedQuote{Quote: quote, ExpiresAt: fetchedAt.Add(p.ttl)}
		p.cleanupExpiredLocked(fetchedAt)
	}
	call.quote = quote
	call.err = err
	delete(p.inFlight, key)
	close(call.done)
	p.mu.Unlock()
}

func waitForInFlight(ctx context.Context, call *inFlightCall) (Quote, error) {
	select {
	case <-ctx.Done():
		return Quote{}, ctx.Err()
	case <-call.done:
		if call.err != nil {
			return Quote{}, call.err
		}
		return call.quote, nil
	}
}

func (p *CachedProvider) cleanupExpiredLocked(now time.Time) {
	interval := min(p.ttl, maxCleanupInterval)
	if !p.lastCleanup.IsZero() && now.Sub(p.lastCleanup) < interval {
		return
	}
	for pair, entry := range p.quotes {
		if !now.Before(entry.ExpiresAt) {
			delete(p.quotes, pair)
		}
	}
	p.lastCleanup = now
}

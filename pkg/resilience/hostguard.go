package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// GuardOpts configures a HostGuard.
type GuardOpts struct {
	// Rate is the steady-state requests per second allowed per host.
	Rate rate.Limit
	// Burst is the token bucket capacity per host.
	Burst   int
	Breaker BreakerOpts
	// OnHostState, if set, is called on every per-host breaker transition.
	OnHostState func(host string, from, to State)
}

// DefaultGuardOpts allows two requests per second per host, bursting to four.
var DefaultGuardOpts = GuardOpts{
	Rate:    2,
	Burst:   4,
	Breaker: DefaultBreakerOpts,
}

type hostEntry struct {
	limiter *rate.Limiter
	breaker *Breaker
}

// HostGuard keeps a rate limiter and circuit breaker per host so one slow or
// failing site cannot starve requests to the others.
type HostGuard struct {
	mu    sync.Mutex
	opts  GuardOpts
	hosts map[string]*hostEntry
}

// NewHostGuard creates an empty HostGuard.
func NewHostGuard(opts GuardOpts) *HostGuard {
	if opts.Rate <= 0 {
		opts.Rate = DefaultGuardOpts.Rate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultGuardOpts.Burst
	}
	return &HostGuard{opts: opts, hosts: make(map[string]*hostEntry)}
}

func (g *HostGuard) entry(host string) *hostEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.hosts[host]
	if !ok {
		bo := g.opts.Breaker
		if cb := g.opts.OnHostState; cb != nil {
			prev := bo.OnStateChange
			bo.OnStateChange = func(from, to State) {
				if prev != nil {
					prev(from, to)
				}
				cb(host, from, to)
			}
		}
		e = &hostEntry{
			limiter: rate.NewLimiter(g.opts.Rate, g.opts.Burst),
			breaker: NewBreaker(bo),
		}
		g.hosts[host] = e
	}
	return e
}

// Do waits for the host's rate limiter, then runs f through the host's breaker.
func (g *HostGuard) Do(ctx context.Context, host string, f func(context.Context) error) error {
	e := g.entry(host)
	if err := e.breaker.acquire(); err != nil {
		return err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		e.breaker.abort()
		return err
	}
	err := f(ctx)
	e.breaker.release(err)
	return err
}

// State returns the breaker state for host. Unknown hosts are closed.
func (g *HostGuard) State(host string) State {
	g.mu.Lock()
	e, ok := g.hosts[host]
	g.mu.Unlock()
	if !ok {
		return StateClosed
	}
	return e.breaker.State()
}

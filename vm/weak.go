package vm

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"
)

var collectorLog = commonlog.GetLogger("fengari.collector")

// ---------------------------------------------------------------------------
// identityRegistry: tokens for reference-type light payloads
// ---------------------------------------------------------------------------

// identToken is the opaque identity assigned to a reference-type
// light-userdata payload. Tokens are monotonic and never reused, so a
// token absent from the live set is known to be expired.
type identToken uint64

// identityRegistry maps reference-type light payloads to identity
// tokens. It is a non-owning lookup in the sense that matters here: a
// registered payload is released through the collector, at which point
// the registry entry is dropped and the token reports expired on access.
type identityRegistry struct {
	mu     sync.Mutex
	tokens map[any]identToken
	live   map[identToken]struct{}
	next   uint64
}

func newIdentityRegistry() *identityRegistry {
	return &identityRegistry{
		tokens: make(map[any]identToken),
		live:   make(map[identToken]struct{}),
	}
}

// tokenFor returns the token for payload, assigning and remembering a
// fresh one on first sight. Identity is stable across repeated calls for
// the payload's lifetime.
func (r *identityRegistry) tokenFor(payload any) identToken {
	id := registryIdentity(payload)

	r.mu.Lock()
	defer r.mu.Unlock()

	if tok, ok := r.tokens[id]; ok {
		return tok
	}
	r.next++
	tok := identToken(r.next)
	r.tokens[id] = tok
	r.live[tok] = struct{}{}
	return tok
}

// expire drops the registration for payload, returning its token if one
// was assigned.
func (r *identityRegistry) expire(payload any) (identToken, bool) {
	id := registryIdentity(payload)

	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[id]
	if !ok {
		return 0, false
	}
	delete(r.tokens, id)
	delete(r.live, tok)
	return tok, true
}

// alive reports whether tok has not been expired.
func (r *identityRegistry) alive(tok identToken) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[tok]
	return ok
}

// ---------------------------------------------------------------------------
// Collector: the host storage manager's view of dead keys
// ---------------------------------------------------------------------------

// CollectorStats holds statistics from a single sweep.
type CollectorStats struct {
	Released      int
	Purged        int
	SweepDuration time.Duration
	Timestamp     time.Time
}

// Collector stands in for the host storage manager. Tables register weak
// interest in the identity of each reference-type dead key; the host
// announces that a payload is gone via Release, and the next sweep purges
// the matching ledger entries. Sweeps run between table operations, never
// mid-operation: releases are queued and applied by Sweep, either on the
// periodic loop or explicitly through SweepNow.
type Collector struct {
	idents *identityRegistry

	mu      sync.Mutex
	pending map[any]struct{}          // released identities awaiting a sweep
	watches map[any]map[*Table]struct{} // identity -> tables with a ledger entry

	interval time.Duration
	enabled  atomic.Bool
	lifeMu   sync.Mutex // protects start/stop lifecycle
	stop     chan struct{}
	stopped  chan struct{}

	sweepCount atomic.Uint64
	lastStats  atomic.Value // *CollectorStats
}

// DefaultSweepInterval is the default interval for the periodic sweep.
const DefaultSweepInterval = 30 * time.Second

func newCollector(idents *identityRegistry, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	c := &Collector{
		idents:   idents,
		pending:  make(map[any]struct{}),
		watches:  make(map[any]map[*Table]struct{}),
		interval: interval,
	}
	c.enabled.Store(true)
	return c
}

// watch records that t holds a dead-ref ledger entry under identity.
func (c *Collector) watch(identity any, t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts, ok := c.watches[identity]
	if !ok {
		ts = make(map[*Table]struct{})
		c.watches[identity] = ts
	}
	ts[t] = struct{}{}
}

// forget drops all weak interest registered for t. Called when the table
// resets its ref ledger on insertion.
func (c *Collector) forget(t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for identity, ts := range c.watches {
		delete(ts, t)
		if len(ts) == 0 {
			delete(c.watches, identity)
		}
	}
}

// alive reports whether identity has not been released. For identity
// tokens the registry is consulted as well, so an expired token reads as
// collected even before the purging sweep has run.
func (c *Collector) alive(identity any) bool {
	if tok, ok := identity.(identToken); ok {
		if !c.idents.alive(tok) {
			return false
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, released := c.pending[identity]
	return !released
}

// Release announces that a payload previously used as a reference-type
// key is unreachable in the host. If the payload was a registered light
// handle its identity token expires immediately; ledger purging happens
// on the next sweep.
func (c *Collector) Release(payload any) {
	identities := []any{payload}
	if tok, ok := c.idents.expire(payload); ok {
		identities = append(identities, tok)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range identities {
		c.pending[id] = struct{}{}
	}
}

// SweepNow performs an immediate sweep regardless of the timer.
func (c *Collector) SweepNow() *CollectorStats {
	return c.sweep()
}

// SweepCount returns the total number of sweeps performed.
func (c *Collector) SweepCount() uint64 {
	return c.sweepCount.Load()
}

// LastStats returns statistics from the most recent sweep, or nil if no
// sweep has been performed yet.
func (c *Collector) LastStats() *CollectorStats {
	v := c.lastStats.Load()
	if v == nil {
		return nil
	}
	return v.(*CollectorStats)
}

// SetEnabled enables or disables sweeping on the periodic loop.
func (c *Collector) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// sweep drains the release queue and purges matching ledger entries from
// every watching table.
func (c *Collector) sweep() *CollectorStats {
	start := time.Now()
	stats := &CollectorStats{Timestamp: start}

	c.mu.Lock()
	released := c.pending
	c.pending = make(map[any]struct{})

	type purge struct {
		identity any
		tables   []*Table
	}
	var purges []purge
	for identity := range released {
		stats.Released++
		if ts, ok := c.watches[identity]; ok {
			p := purge{identity: identity}
			for t := range ts {
				p.tables = append(p.tables, t)
			}
			purges = append(purges, p)
			delete(c.watches, identity)
		}
	}
	c.mu.Unlock()

	for _, p := range purges {
		for _, t := range p.tables {
			stats.Purged += t.purgeDeadRef(p.identity)
		}
	}

	stats.SweepDuration = time.Since(start)
	c.sweepCount.Add(1)
	c.lastStats.Store(stats)

	if stats.Released > 0 {
		collectorLog.Debugf("sweep: released %d identities, purged %d ledger entries in %s",
			stats.Released, stats.Purged, stats.SweepDuration)
	}
	return stats
}

// Start begins the periodic sweep goroutine. Safe to call multiple
// times; only one loop will run. The loop mutates ledgers, so it is only
// safe while the runtime's tables are otherwise quiescent — embedders
// driving tables from a single interpreter thread call SweepNow between
// operations instead.
func (c *Collector) Start() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.stop != nil {
		return // already running
	}

	c.stop = make(chan struct{})
	c.stopped = make(chan struct{})

	// Capture channels locally so the goroutine does not read c.stop and
	// c.stopped after Stop has nilled them out.
	stopCh := c.stop
	stoppedCh := c.stopped
	go c.loop(stopCh, stoppedCh)
}

// Stop halts the periodic sweep goroutine and waits for it to finish.
// Safe to call multiple times or on a collector that was never started.
func (c *Collector) Stop() {
	c.lifeMu.Lock()
	stopCh := c.stop
	stoppedCh := c.stopped
	c.stop = nil
	c.stopped = nil
	c.lifeMu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-stoppedCh
	}
}

func (c *Collector) loop(stopCh <-chan struct{}, stoppedCh chan struct{}) {
	defer close(stoppedCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if c.enabled.Load() {
				c.sweep()
			}
		}
	}
}

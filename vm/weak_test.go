package vm

import (
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Identity registry
// ---------------------------------------------------------------------------

func TestIdentityRegistryTokensNeverReused(t *testing.T) {
	r := newIdentityRegistry()
	p := new(int)

	tok1 := r.tokenFor(p)
	if _, ok := r.expire(p); !ok {
		t.Fatal("expire should find the registration")
	}
	tok2 := r.tokenFor(p)

	if tok1 == tok2 {
		t.Error("re-registering after expiry must assign a fresh token")
	}
	if r.alive(tok1) {
		t.Error("expired token should not be alive")
	}
	if !r.alive(tok2) {
		t.Error("fresh token should be alive")
	}
}

func TestIdentityRegistryExpireUnknownPayload(t *testing.T) {
	r := newIdentityRegistry()
	if _, ok := r.expire(new(int)); ok {
		t.Error("expiring an unregistered payload should report false")
	}
}

// ---------------------------------------------------------------------------
// Collector
// ---------------------------------------------------------------------------

func TestCollectorReleasePurgesDeadRefLedger(t *testing.T) {
	rt := NewRuntime(Options{})
	tbl := rt.NewTable()

	payload := new(int)
	handle := FromLightUserData(payload)
	tbl.SetValue(handle, FromInteger(1))
	tbl.SetInt(1, FromInteger(2))
	tbl.Delete(handle)

	if len(tbl.deadRef) != 1 {
		t.Fatalf("dead-ref ledger size: got %d, want 1", len(tbl.deadRef))
	}

	// Iteration from the dead key still works while the ledger holds it.
	nk, _, ok := tbl.Next(handle)
	if !ok || nk.Integer() != 1 {
		t.Fatalf("Next from dead handle: got (%v, %v)", nk, ok)
	}

	rt.Collector().Release(payload)
	stats := rt.Collector().SweepNow()

	if stats.Purged != 1 {
		t.Errorf("Purged: got %d, want 1", stats.Purged)
	}
	if len(tbl.deadRef) != 0 {
		t.Errorf("ledger after sweep: got %d entries, want 0", len(tbl.deadRef))
	}

	// The vanished ledger entry makes the old cursor invalid.
	expectRaise(t, ErrInvalidIterationKey, func() { tbl.Next(handle) })
}

func TestCollectorExpiredTokenInvalidBeforeSweep(t *testing.T) {
	rt := NewRuntime(Options{})
	tbl := rt.NewTable()

	payload := new(int)
	handle := FromLightUserData(payload)
	tbl.SetValue(handle, FromInteger(1))
	tbl.Delete(handle)

	// Released but not yet swept: the ledger still physically holds the
	// entry, but the expired identity must read as collected.
	rt.Collector().Release(payload)
	expectRaise(t, ErrInvalidIterationKey, func() { tbl.Next(handle) })
}

func TestCollectorReleaseOfTableKey(t *testing.T) {
	rt := NewRuntime(Options{})
	tbl := rt.NewTable()

	keyTable := rt.NewTable()
	k := FromTable(keyTable)
	tbl.SetValue(k, FromInteger(1))
	tbl.SetInt(1, FromInteger(2))
	tbl.Delete(k)

	rt.Collector().Release(keyTable)
	rt.Collector().SweepNow()

	if len(tbl.deadRef) != 0 {
		t.Errorf("ledger after sweep: got %d entries, want 0", len(tbl.deadRef))
	}
}

func TestCollectorPendingReleaseInvalidatesTableKeyCursor(t *testing.T) {
	rt := NewRuntime(Options{})
	tbl := rt.NewTable()

	keyTable := rt.NewTable()
	k := FromTable(keyTable)
	tbl.SetValue(k, FromInteger(1))
	tbl.SetInt(1, FromInteger(2))
	tbl.Delete(k)

	// Released but unswept: the ledger hit must already read as gone.
	rt.Collector().Release(keyTable)
	expectRaise(t, ErrInvalidIterationKey, func() { tbl.Next(k) })
}

func TestCollectorValueKeyedLedgerUnaffectedBySweep(t *testing.T) {
	rt := NewRuntime(Options{})
	tbl := rt.NewTable()

	k := rt.StringValue("s")
	tbl.SetValue(k, FromInteger(1))
	tbl.SetInt(1, FromInteger(2))
	tbl.Delete(k)

	rt.Collector().SweepNow()

	// Value-type dead keys are not weakly tracked; iteration resumes.
	nk, _, ok := tbl.Next(k)
	if !ok || nk.Integer() != 1 {
		t.Errorf("Next from dead string key: got (%v, %v)", nk, ok)
	}
}

func TestCollectorForgetOnLedgerReset(t *testing.T) {
	rt := NewRuntime(Options{})
	tbl := rt.NewTable()

	payload := new(int)
	handle := FromLightUserData(payload)
	tbl.SetValue(handle, FromInteger(1))
	tbl.Delete(handle)

	// Inserting resets the ref ledger and drops the collector's watch;
	// the later release must purge nothing.
	tbl.SetInt(1, FromInteger(2))

	rt.Collector().Release(payload)
	stats := rt.Collector().SweepNow()
	if stats.Purged != 0 {
		t.Errorf("Purged after forget: got %d, want 0", stats.Purged)
	}
}

func TestCollectorStats(t *testing.T) {
	rt := NewRuntime(Options{})
	c := rt.Collector()

	if c.LastStats() != nil {
		t.Fatal("LastStats before any sweep should be nil")
	}
	c.SweepNow()
	if c.SweepCount() != 1 {
		t.Errorf("SweepCount: got %d, want 1", c.SweepCount())
	}
	if c.LastStats() == nil {
		t.Error("LastStats after a sweep should not be nil")
	}
}

func TestCollectorStartStop(t *testing.T) {
	rt := NewRuntime(Options{SweepInterval: time.Millisecond})
	c := rt.Collector()

	c.Start()
	c.Start() // idempotent
	c.Stop()
	c.Stop() // idempotent; also safe on a stopped collector
}

func TestRuntimeCloseStopsCollector(t *testing.T) {
	rt := NewRuntime(Options{SweepInterval: time.Millisecond, StartCollector: true})
	rt.Close()
	rt.Close() // safe twice
}

package vm

import (
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"
)

var runtimeLog = commonlog.GetLogger("fengari.runtime")

// ---------------------------------------------------------------------------
// Runtime: the enclosing runtime instance
// ---------------------------------------------------------------------------

// Options configures a Runtime.
type Options struct {
	// SweepInterval is the collector's periodic sweep interval.
	// Zero selects DefaultSweepInterval.
	SweepInterval time.Duration

	// StartCollector starts the periodic sweep goroutine immediately.
	// Single-threaded embedders leave this false and call
	// Collector().SweepNow() between operations.
	StartCollector bool
}

// Runtime owns the state shared by every table it creates: the table-id
// counter, the string interner, the light-handle identity registry, and
// the collector. There are no hidden process-wide globals — two Runtimes
// are fully independent.
type Runtime struct {
	tableID   atomic.Uint64
	strings   *StringTable
	idents    *identityRegistry
	collector *Collector
}

// NewRuntime creates a runtime instance.
func NewRuntime(opts Options) *Runtime {
	idents := newIdentityRegistry()
	rt := &Runtime{
		strings:   NewStringTable(),
		idents:    idents,
		collector: newCollector(idents, opts.SweepInterval),
	}
	if opts.StartCollector {
		rt.collector.Start()
		runtimeLog.Infof("runtime created, collector sweeping every %s", rt.collector.interval)
	}
	return rt
}

// nextTableID returns a fresh table id. IDs start at 1 so zero reads as
// uninitialized.
func (rt *Runtime) nextTableID() uint64 {
	return rt.tableID.Add(1)
}

// Strings returns the runtime's string interner.
func (rt *Runtime) Strings() *StringTable { return rt.strings }

// StringValue interns s and returns it as a runtime value.
func (rt *Runtime) StringValue(s string) Value {
	return FromStringID(rt.strings.Intern(s))
}

// StringContent returns the content of a string value.
func (rt *Runtime) StringContent(v Value) string {
	return rt.strings.Content(v.StringID())
}

// Collector returns the runtime's collector.
func (rt *Runtime) Collector() *Collector { return rt.collector }

// Close stops the collector's periodic loop if it is running.
func (rt *Runtime) Close() {
	rt.collector.Stop()
}

package vm

// ---------------------------------------------------------------------------
// Table: the runtime's single container type
// ---------------------------------------------------------------------------
//
// A Table is simultaneously an associative map, a growable array, and an
// object-record store. Lookup is O(1) through a hash map keyed by
// canonical key identity; iteration order is insertion order, imposed by
// a doubly linked chain threaded through the entries independently of the
// map.
//
// Deleting a key does not discard its entry. The entry is tombstoned in
// place and parked in a dead-key ledger so that an iteration which
// already yielded that key can still resume from it. Entries whose
// original key was a reference-type value sit in a weakly tracked ledger
// and may vanish between operations once the collector releases the key's
// identity.

// entry is a single key/value pair. An entry is logically owned by
// exactly one of the live chain or a dead ledger at a time, never both.
// After tombstoning, prev is severed but next stays valid for exactly one
// purpose: resuming an iteration that was paused on this entry.
type entry struct {
	key   Value
	value Value
	prev  *entry
	next  *entry
}

// Table is the public container entity.
type Table struct {
	rt *Runtime
	id uint64

	live      map[hashKey]*entry // O(1) lookup; order irrelevant
	deadValue map[hashKey]*entry // tombstones with value-type keys
	deadRef   map[hashKey]*entry // tombstones with weakly tracked ref keys

	head *entry // first live entry, nil if empty
	tail *entry // last live entry, nil if empty

	metatable *Table
	flags     uint8 // dispatch cache; zero means nothing cached
}

// NewTable creates a fresh empty table with a runtime-unique id, empty
// ledgers, and no metatable.
func (rt *Runtime) NewTable() *Table {
	return &Table{
		rt:   rt,
		id:   rt.nextTableID(),
		live: make(map[hashKey]*entry),
	}
}

// ID returns the table's process-unique identifier.
func (t *Table) ID() uint64 { return t.id }

// Count returns the number of live entries.
func (t *Table) Count() int { return len(t.live) }

// ---------------------------------------------------------------------------
// Read paths
// ---------------------------------------------------------------------------

// Get looks up key with full normalization and nil/NaN rejection.
// Returns Nil if the key is absent.
func (t *Table) Get(key Value) Value {
	hk := t.rt.normalizeKey(key)
	if e, ok := t.live[hk]; ok {
		return e.value
	}
	return Nil
}

// GetInt is the integer-keyed read fast path. The key is assumed
// pre-validated and canonical; normalization is bypassed.
func (t *Table) GetInt(i int64) Value {
	if e, ok := t.live[intKey(i)]; ok {
		return e.value
	}
	return Nil
}

// GetStr is the string-keyed read fast path for an already interned id.
func (t *Table) GetStr(id StringID) Value {
	if e, ok := t.live[strKey(id)]; ok {
		return e.value
	}
	return Nil
}

// ---------------------------------------------------------------------------
// Write paths
// ---------------------------------------------------------------------------

// Set validates key, finds or creates its entry, and returns a direct,
// mutable handle to the value slot. Callers write the value through the
// returned pointer; compound assignment in the interpreter performs one
// lookup this way. The slot stays valid for the lifetime of the entry —
// overwriting an existing key never reallocates its entry.
//
// A freshly created entry holds Nil until the caller writes through the
// slot. Storing Nil through the slot does not tombstone the entry; an
// embedder implementing `t[k] = nil` calls Delete (or SetValue).
func (t *Table) Set(key Value) *Value {
	hk := t.rt.normalizeKey(key)
	return t.slot(hk, canonicalKey(hk, key))
}

// SetValue is the taking-a-value convenience over Set. A Nil value
// defers to Delete.
func (t *Table) SetValue(key, value Value) {
	if value.IsNil() {
		t.Delete(key)
		return
	}
	*t.Set(key) = value
}

// SetInt is the integer-keyed write fast path. A Nil value defers to
// deletion; otherwise the entry is found or created and assigned in
// place.
func (t *Table) SetInt(i int64, value Value) {
	hk := intKey(i)
	if value.IsNil() {
		t.deleteEntry(hk)
		return
	}
	*t.slot(hk, FromInteger(i)) = value
}

// slot returns the assignable value slot for hk, creating and linking a
// new entry if the key is absent.
func (t *Table) slot(hk hashKey, key Value) *Value {
	if e, ok := t.live[hk]; ok {
		return &e.value
	}

	// New insertion: tombstones from previous deletions are only needed
	// during a single iteration window, so stale ledger bookkeeping is
	// discarded before the key set grows.
	t.resetLedgers()

	e := &entry{key: key}
	if t.tail == nil {
		t.head = e
	} else {
		t.tail.next = e
		e.prev = t.tail
	}
	t.tail = e
	t.live[hk] = e
	return &e.value
}

// resetLedgers clears the value-keyed ledger and resets the ref-keyed
// ledger, dropping the collector's weak interest in this table.
func (t *Table) resetLedgers() {
	clear(t.deadValue)
	if len(t.deadRef) > 0 {
		t.rt.collector.forget(t)
	}
	t.deadRef = nil
}

// ---------------------------------------------------------------------------
// Deletion
// ---------------------------------------------------------------------------

// Delete validates key, then tombstones its entry if present. Deleting
// an absent key is a no-op.
func (t *Table) Delete(key Value) {
	t.deleteEntry(t.rt.normalizeKey(key))
}

func (t *Table) deleteEntry(hk hashKey) {
	e, ok := t.live[hk]
	if !ok {
		return
	}

	// Unlink from head/tail traversal. The successor link survives so a
	// paused iteration can resume through this entry.
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		t.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		t.tail = e.prev
	}
	e.prev = nil

	e.key.markDead()
	e.value = Nil
	delete(t.live, hk)

	if hk.isRef() {
		if t.deadRef == nil {
			t.deadRef = make(map[hashKey]*entry)
		}
		t.deadRef[hk] = e
		t.rt.collector.watch(hk.identity(), t)
	} else {
		if t.deadValue == nil {
			t.deadValue = make(map[hashKey]*entry)
		}
		t.deadValue[hk] = e
	}
}

// purgeDeadRef removes ledger entries whose weakly tracked identity has
// been released. Called by the collector between table operations.
func (t *Table) purgeDeadRef(identity any) int {
	purged := 0
	for hk := range t.deadRef {
		if hk.identity() == identity {
			delete(t.deadRef, hk)
			purged++
		}
	}
	return purged
}

// ---------------------------------------------------------------------------
// Iteration
// ---------------------------------------------------------------------------

// Next is the ordered-iteration primitive. Called with Nil it yields the
// first live entry; called with the previously yielded key it yields the
// successor; ok is false once the table is exhausted.
//
// Deleting the just-yielded key mid-iteration is supported: the
// tombstoned entry is located through the dead-key ledgers and iteration
// resumes from its preserved successor link, skipping any further
// tombstones. A key found in neither the live store nor a ledger —
// including a reference-type dead key whose ledger entry the collector
// already released — raises InvalidIterationKey.
//
// Inserting new keys during iteration, or deleting a key other than the
// current one, has unspecified effect on iteration order.
func (t *Table) Next(key Value) (Value, Value, bool) {
	var e *entry
	if key.IsNil() {
		e = t.head
	} else {
		hk := t.rt.normalizeKey(key)
		if cur, ok := t.live[hk]; ok {
			e = cur.next
		} else {
			dead := t.lookupDead(hk)
			if dead == nil {
				raise(ErrInvalidIterationKey, "invalid key to 'next'")
			}
			e = dead.next
			for e != nil && e.key.isDead() {
				e = e.next
			}
		}
	}
	if e == nil {
		return Nil, Nil, false
	}
	return e.key, e.value, true
}

// lookupDead finds the tombstoned entry for hk, or nil. A ref-ledger hit
// whose identity is no longer alive is treated as not found: nothing in a
// correctly behaving caller can still be iterating on a collected key.
func (t *Table) lookupDead(hk hashKey) *entry {
	if e, ok := t.deadValue[hk]; ok {
		return e
	}
	if e, ok := t.deadRef[hk]; ok {
		if !t.rt.collector.alive(hk.identity()) {
			return nil
		}
		return e
	}
	return nil
}

// ---------------------------------------------------------------------------
// Array boundary
// ---------------------------------------------------------------------------

// Boundary returns an n such that t[n] is non-absent and t[n+1] is
// absent, or 0 if t[1] is absent. On a table whose integer keys contain
// holes this is *a* valid boundary, not necessarily the largest one; the
// ambiguity is a documented property of boundary-based length semantics.
//
// The live entry count bounds the search: an integer key above the count
// would require at least that many live entries, so t[count+1] being
// probed absent is always sound as the initial "known absent" bound.
func (t *Table) Boundary() int64 {
	i, j := int64(0), int64(len(t.live))+1
	for j-i > 1 {
		m := (i + j) / 2
		if t.GetInt(m).IsNil() {
			j = m
		} else {
			i = m
		}
	}
	return i
}

// ---------------------------------------------------------------------------
// Metatable and dispatch cache
// ---------------------------------------------------------------------------

// Metatable returns the table's metatable, or nil. The metatable is
// shared, not owned; its lifetime is independent of this table.
func (t *Table) Metatable() *Table { return t.metatable }

// SetMetatable replaces the table's metatable. The interpreter is
// responsible for invalidating the dispatch cache when it matters.
func (t *Table) SetMetatable(mt *Table) { t.metatable = mt }

// DispatchCached reports whether the given dispatch flag is cached.
func (t *Table) DispatchCached(flag uint8) bool { return t.flags&flag != 0 }

// CacheDispatch records a dispatch flag on the fast-path cache.
func (t *Table) CacheDispatch(flag uint8) { t.flags |= flag }

// InvalidateDispatchCache resets the dispatch cache to empty. The
// surrounding interpreter calls this whenever a mutation could change
// which specialized dispatch is valid for this table; the engine itself
// does not decide when that is.
func (t *Table) InvalidateDispatchCache() { t.flags = 0 }

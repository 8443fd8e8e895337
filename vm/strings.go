package vm

import "sync"

// ---------------------------------------------------------------------------
// StringTable: interned strings with precomputed content hashes
// ---------------------------------------------------------------------------

// StringID is the stable handle for an interned string. Interning
// guarantees one id per distinct content, so id equality is content
// equality and the id alone is the canonical key identity of a string.
type StringID uint32

// interned is the per-string record. The content hash is computed once,
// at intern time; every later Hash call is an index into this slice.
type interned struct {
	content string
	hash    uint64
}

// StringTable interns string contents to unique ids. The table engine
// consumes it as a black box: given a string, return a stable identity
// with content-based equality. The FNV-1a content hash rides along for
// hosts that need a spreadable hash of the content itself (serializing
// embedders, host-side caches); the engine keys on the id.
type StringTable struct {
	mu   sync.RWMutex
	ids  map[string]StringID
	recs []interned
}

// NewStringTable creates a new empty string table.
func NewStringTable() *StringTable {
	return &StringTable{
		ids:  make(map[string]StringID),
		recs: make([]interned, 0, 256),
	}
}

// fnv1a is the 64-bit FNV-1a hash of s.
func fnv1a(s string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// Intern returns the id for a string, creating a new record if the
// content has not been seen before.
func (st *StringTable) Intern(s string) StringID {
	id, _ := st.HashAndIntern(s)
	return id
}

// HashAndIntern interns s and returns both its id and its content hash.
// The hash is computed at most once per distinct content, on the first
// intern.
func (st *StringTable) HashAndIntern(s string) (StringID, uint64) {
	st.mu.RLock()
	if id, ok := st.ids[s]; ok {
		h := st.recs[id].hash
		st.mu.RUnlock()
		return id, h
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// Re-check under the write lock; another goroutine may have interned
	// s between the two acquisitions.
	if id, ok := st.ids[s]; ok {
		return id, st.recs[id].hash
	}

	id := StringID(len(st.recs))
	rec := interned{content: s, hash: fnv1a(s)}
	st.ids[s] = id
	st.recs = append(st.recs, rec)
	return id, rec.hash
}

// Lookup returns the id for a string, or false if it was never interned.
// Lookup never interns.
func (st *StringTable) Lookup(s string) (StringID, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.ids[s]
	return id, ok
}

// Content returns the string content for an id, or "" for an id this
// table never issued.
func (st *StringTable) Content(id StringID) string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if int(id) >= len(st.recs) {
		return ""
	}
	return st.recs[id].content
}

// Hash returns the precomputed content hash for an id, or 0 for an id
// this table never issued.
func (st *StringTable) Hash(id StringID) uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if int(id) >= len(st.recs) {
		return 0
	}
	return st.recs[id].hash
}

// Len returns the number of interned strings.
func (st *StringTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.recs)
}

package heap

import "github.com/mna/emberlang/lang/object"

// internTable is a hand-written open-addressed hash table with tombstone
// deletion, keyed by (hash, length, content). It exists instead of a
// general-purpose map because the specification calls for the VM to be able
// to weak-sweep dead strings out of the intern set during GC without
// disturbing live entries sharing the same bucket chain — something a plain
// Go map cannot do without rebuilding itself.
type internTable struct {
	entries []internEntry
	count   int // live entries + tombstones
}

type internEntry struct {
	str       *object.ObjString
	tombstone bool
}

const internMaxLoad = 0.75

func newInternTable() *internTable {
	return &internTable{}
}

// find returns the interned string with the given hash/content, or nil.
func (t *internTable) find(chars string, hash uint32) *object.ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	cap32 := uint32(len(t.entries))
	idx := hash % cap32
	for {
		e := &t.entries[idx]
		if e.str == nil {
			if !e.tombstone {
				return nil
			}
		} else if e.str.Hash == hash && e.str.Chars == chars {
			return e.str
		}
		idx = (idx + 1) % cap32
	}
}

// set inserts str into the table, growing it first if needed. Callers look
// str up with find first, so set never sees a key that is already present;
// it reuses the first tombstone on str's probe sequence, if any.
func (t *internTable) set(str *object.ObjString) {
	if float64(t.count+1) > float64(len(t.entries))*internMaxLoad {
		t.grow()
	}
	idx := t.findSlot(str.Hash)
	if !t.entries[idx].tombstone {
		t.count++
	}
	t.entries[idx] = internEntry{str: str}
}

// delete marks the entry for str as a tombstone, used by the GC's weak-sweep
// step: a string about to be freed must no longer be resurrectable via
// lookup.
func (t *internTable) delete(str *object.ObjString) {
	if len(t.entries) == 0 {
		return
	}
	cap32 := uint32(len(t.entries))
	idx := str.Hash % cap32
	for {
		e := &t.entries[idx]
		if e.str == nil && !e.tombstone {
			return
		}
		if e.str == str {
			e.str = nil
			e.tombstone = true
			return
		}
		idx = (idx + 1) % cap32
	}
}

func (t *internTable) findSlot(hash uint32) uint32 {
	cap32 := uint32(len(t.entries))
	idx := hash % cap32
	var tombstone int = -1
	for {
		e := &t.entries[idx]
		if e.str == nil {
			if !e.tombstone {
				if tombstone != -1 {
					return uint32(tombstone)
				}
				return idx
			}
			if tombstone == -1 {
				tombstone = int(idx)
			}
		}
		idx = (idx + 1) % cap32
	}
}

func (t *internTable) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]internEntry, newCap)
	t.count = 0
	for _, e := range old {
		if e.str == nil {
			continue
		}
		idx := t.findSlot(e.str.Hash)
		t.entries[idx] = internEntry{str: e.str}
		t.count++
	}
}

// hashFNV1a computes the 32-bit FNV-1a hash of s, matching the algorithm
// used throughout the clox family for string content hashing.
func hashFNV1a(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

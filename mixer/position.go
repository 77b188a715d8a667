package mixer

import "sort"

// AllPools is the bitmask of every pool.
const AllPools uint8 = 0xFF

// PositionEntry is one row of a position table.
type PositionEntry struct {
	Number int
	Active bool
	Pool   uint8
}

// PositionTable orders numbers by a signed key for next/previous stepping.
// Keys may be inserted sparse and in any order.
type PositionTable struct {
	byKey  map[int]PositionEntry
	keys   []int
	sorted bool
	keyOf  map[int]int
}

// NewPositionTable returns an empty table.
func NewPositionTable() *PositionTable {
	return &PositionTable{
		byKey: make(map[int]PositionEntry),
		keyOf: make(map[int]int),
	}
}

// Set inserts or replaces the entry at key.
func (t *PositionTable) Set(key, number int, active bool, pool uint8) {
	if old, ok := t.byKey[key]; ok {
		delete(t.keyOf, old.Number)
	} else {
		t.keys = append(t.keys, key)
		t.sorted = false
	}
	t.byKey[key] = PositionEntry{Number: number, Active: active, Pool: pool}
	t.keyOf[number] = key
}

// SetActive changes the active flag of the entry holding number.
func (t *PositionTable) SetActive(number int, active bool) {
	key, ok := t.keyOf[number]
	if !ok {
		return
	}
	e := t.byKey[key]
	e.Active = active
	t.byKey[key] = e
}

// Len returns the number of entries.
func (t *PositionTable) Len() int { return len(t.keys) }

// KeyOf returns the key holding number.
func (t *PositionTable) KeyOf(number int) (int, bool) {
	k, ok := t.keyOf[number]
	return k, ok
}

// Entry returns the entry at key.
func (t *PositionTable) Entry(key int) (PositionEntry, bool) {
	e, ok := t.byKey[key]
	return e, ok
}

func (t *PositionTable) sortKeys() {
	if !t.sorted {
		sort.Ints(t.keys)
		t.sorted = true
	}
}

// Step moves delta qualifying entries away from current, wrapping around
// both ends. An entry qualifies if it is active, belongs to pool and passes
// accept (accept may be nil). If current is not in the table the walk starts
// before the first key. When no entry qualifies after a full loop the
// original number is returned.
func (t *PositionTable) Step(current, delta, pool int, accept func(number int) bool) int {
	if delta == 0 || len(t.keys) == 0 {
		return current
	}
	t.sortKeys()

	idx := -1
	if key, ok := t.keyOf[current]; ok {
		idx = sort.SearchInts(t.keys, key)
	}

	dir := 1
	steps := delta
	if delta < 0 {
		dir = -1
		steps = -delta
		if idx < 0 {
			idx = 0
		}
	}

	n := len(t.keys)
	result := current
	for ; steps > 0; steps-- {
		found := false
		for tries := 0; tries < n; tries++ {
			idx = ((idx+dir)%n + n) % n
			e := t.byKey[t.keys[idx]]
			if !e.Active || !inPool(e.Pool, pool) {
				continue
			}
			if accept != nil && !accept(e.Number) {
				continue
			}
			result = e.Number
			found = true
			break
		}
		if !found {
			return current
		}
	}
	return result
}

func inPool(mask uint8, pool int) bool {
	if pool < 0 || pool >= NumPools {
		return true
	}
	return mask&(1<<uint(pool)) != 0
}

package round

import "sort"

// Collection is an immutable map from party index to the value received from that party.
//
// With returns a new Collection and leaves the receiver untouched, so that the state
// snapshots of a machine never alias.
// The zero value is an empty Collection.
type Collection[T any] struct {
	entries map[int]T
}

// With returns a Collection containing v for index, and true.
// If index already has an entry, the receiver is returned unchanged together with false:
// a duplicate delivery never overrides the first one.
func (c Collection[T]) With(index int, v T) (Collection[T], bool) {
	if _, ok := c.entries[index]; ok {
		return c, false
	}
	entries := make(map[int]T, len(c.entries)+1)
	for i, e := range c.entries {
		entries[i] = e
	}
	entries[index] = v
	return Collection[T]{entries: entries}, true
}

// Get returns the value stored for index.
func (c Collection[T]) Get(index int) (T, bool) {
	v, ok := c.entries[index]
	return v, ok
}

// Has returns true if index has an entry.
func (c Collection[T]) Has(index int) bool {
	_, ok := c.entries[index]
	return ok
}

// Len returns the number of entries.
func (c Collection[T]) Len() int {
	return len(c.entries)
}

// Complete returns true if every index in [1, n] has an entry.
func (c Collection[T]) Complete(n int) bool {
	for i := 1; i <= n; i++ {
		if _, ok := c.entries[i]; !ok {
			return false
		}
	}
	return true
}

// Ordered returns the values for the indices 1, …, n.
// It should only be called once Complete(n) holds.
func (c Collection[T]) Ordered(n int) []T {
	out := make([]T, n)
	for i := 1; i <= n; i++ {
		out[i-1] = c.entries[i]
	}
	return out
}

// Indices returns the sorted indices which have an entry.
func (c Collection[T]) Indices() []int {
	out := make([]int, 0, len(c.entries))
	for i := range c.entries {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

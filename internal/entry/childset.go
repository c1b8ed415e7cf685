package entry

import "sort"

// bucket holds every child of a given size in a slice. A newly added
// equal-size entry lands at the front of the slice, so same-size entries
// enumerate in reverse insertion order (most-recently-added first).
type bucket struct {
	size    int64
	entries []*Entry
}

// childSet is the children container of an Entry: a size-keyed multimap of
// buckets, kept sorted by descending size so ForEach visits children in
// non-increasing order (I2). Any structure achieving that ordering
// invariant is acceptable; this one trades a few extra comparisons on
// insert/remove for a straightforward, easy-to-verify implementation.
type childSet struct {
	buckets []*bucket // sorted strictly descending by size
	count   int
}

// find returns the index of the bucket with the given size, or -1.
func (cs *childSet) find(size int64) int {
	i := sort.Search(len(cs.buckets), func(i int) bool {
		return cs.buckets[i].size <= size
	})
	if i < len(cs.buckets) && cs.buckets[i].size == size {
		return i
	}
	return -1
}

// insertionPoint returns the index at which a new bucket of the given size
// should be inserted to keep cs.buckets sorted descending.
func (cs *childSet) insertionPoint(size int64) int {
	return sort.Search(len(cs.buckets), func(i int) bool {
		return cs.buckets[i].size <= size
	})
}

// insert adds child to the bucket for child.Size(), creating the bucket if
// necessary. New entries are placed at the front of their bucket's chain.
func (cs *childSet) insert(child *Entry) {
	idx := cs.find(child.size)
	if idx >= 0 {
		b := cs.buckets[idx]
		b.entries = append(b.entries, nil)
		copy(b.entries[1:], b.entries)
		b.entries[0] = child
		cs.count++
		return
	}

	at := cs.insertionPoint(child.size)
	b := &bucket{size: child.size, entries: []*Entry{child}}
	cs.buckets = append(cs.buckets, nil)
	copy(cs.buckets[at+1:], cs.buckets[at:])
	cs.buckets[at] = b
	cs.count++
}

// remove detaches child from the bucket keyed by size (the bucket it was
// inserted under, which may differ from child's current Size() if the
// caller is mid-resort). Removes the bucket entirely if it becomes empty.
func (cs *childSet) remove(child *Entry, size int64) {
	idx := cs.find(size)
	if idx < 0 {
		return
	}
	b := cs.buckets[idx]
	for i, e := range b.entries {
		if e == child {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			cs.count--
			break
		}
	}
	if len(b.entries) == 0 {
		cs.buckets = append(cs.buckets[:idx], cs.buckets[idx+1:]...)
	}
}

// forEach enumerates every child in size-decreasing order, stopping early
// if visit returns false.
func (cs *childSet) forEach(visit func(*Entry) bool) {
	for _, b := range cs.buckets {
		for _, e := range b.entries {
			if !visit(e) {
				return
			}
		}
	}
}

// extractPendingDelete removes every child flagged PendingDelete across all
// buckets, returning the removed entries and the sum of their sizes.
func (cs *childSet) extractPendingDelete() ([]*Entry, int64) {
	var deleted []*Entry
	var delta int64

	kept := cs.buckets[:0]
	for _, b := range cs.buckets {
		remaining := b.entries[:0]
		for _, e := range b.entries {
			if e.PendingDelete {
				deleted = append(deleted, e)
				delta += e.size
				cs.count--
			} else {
				remaining = append(remaining, e)
			}
		}
		b.entries = remaining
		if len(b.entries) > 0 {
			kept = append(kept, b)
		}
	}
	cs.buckets = kept
	return deleted, delta
}

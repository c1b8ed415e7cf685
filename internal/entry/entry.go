// Package entry implements the size-sorted n-ary file tree node (FileEntry)
// and its recycling allocator (EntryPool). Mutation is not safe for
// concurrent use by itself — callers (filedb.FileDB) serialize access with a
// lock.
package entry

// Kind distinguishes a directory entry from a file entry.
type Kind int

const (
	File Kind = iota
	Directory
)

// Entry is one node of the file tree. A directory's Size is the sum of its
// children's sizes (I1); children enumerate in non-increasing size order
// (I2); PathCrc is the running XOR of nameCrc along the ancestor chain (I3);
// every entry but the root has exactly one Parent (I4); the root has none
// (I5).
type Entry struct {
	nameBuf []byte
	kind    Kind
	size    int64
	nameCrc uint16
	pathCrc uint16

	parent   *Entry
	children childSet

	// PendingDelete is set during FileDB's diff-apply to mark children not
	// present in a fresh listing; cleared if later found in the listing.
	PendingDelete bool
}

// Name returns the entry's base name (not a full path).
func (e *Entry) Name() string { return string(e.nameBuf) }

// KindOf returns whether this entry is a file or directory.
func (e *Entry) KindOf() Kind { return e.kind }

// IsDir reports whether this entry is a directory.
func (e *Entry) IsDir() bool { return e.kind == Directory }

// Size returns the entry's size: the intrinsic size for a file, or the sum
// of descendant sizes for a directory.
func (e *Entry) Size() int64 { return e.size }

// NameCrc returns the CRC-16 of the entry's base name.
func (e *Entry) NameCrc() uint16 { return e.nameCrc }

// PathCrc returns the running XOR of nameCrcs along the ancestor chain.
func (e *Entry) PathCrc() uint16 { return e.pathCrc }

// Parent returns the non-owning back-reference to this entry's parent, or
// nil for the root.
func (e *Entry) Parent() *Entry { return e.parent }

// IsRoot reports whether this entry has no parent.
func (e *Entry) IsRoot() bool { return e.parent == nil }

// ChildCount returns the number of direct children.
func (e *Entry) ChildCount() int { return e.children.count }

// SetNameCrc sets the entry's precomputed name checksum; used by callers
// that compute the crc once and want to avoid recomputing it.
func (e *Entry) SetNameCrc(crc uint16) { e.nameCrc = crc }

// UpdatePathCrc recomputes PathCrc as parentPathCrc XOR nameCrc. Called on
// insertion; there are no in-place moves in this design.
func (e *Entry) UpdatePathCrc(parentPathCrc uint16) {
	e.pathCrc = parentPathCrc ^ e.nameCrc
}

// SetSize directly assigns this entry's intrinsic size. Used only for
// leaf/file entries being populated before they are attached to a parent;
// once attached, size changes must go through the parent's
// OnChildSizeChanged so the tree stays invariant.
func (e *Entry) SetSize(size int64) { e.size = size }

// AddChild attaches child under e: sets child.parent, inserts child into e's
// size-ordered children set (newly added equal-size entries land at the
// front of their bucket), adds childSize to e.size, and propagates the
// delta to e's ancestors.
func (e *Entry) AddChild(child *Entry) {
	child.parent = e
	e.children.insert(child)
	e.size += child.size
	if e.parent != nil {
		e.parent.onChildSizeChanged(e, child.size)
	}
}

// onChildSizeChanged is invoked on a parent when one of its direct children
// (child) has already had its Size field updated to its new value; delta is
// newSize-oldSize. It re-buckets child, adjusts this entry's own size, and
// recurses toward the root.
func (e *Entry) onChildSizeChanged(child *Entry, delta int64) {
	oldBucketSize := child.size - delta
	e.children.remove(child, oldBucketSize)
	e.size += delta
	e.children.insert(child)
	if e.parent != nil {
		e.parent.onChildSizeChanged(e, delta)
	}
}

// SetChildSize updates child's size (child must be a direct child of e) and
// propagates the delta up the tree, preserving the size-sort invariant.
func (e *Entry) SetChildSize(child *Entry, newSize int64) {
	delta := newSize - child.size
	if delta == 0 {
		return
	}
	child.size = newSize
	e.onChildSizeChanged(child, delta)
}

// MarkChildrenPendingDelete flags every direct child as pending delete and
// returns the (files, dirs) counts marked.
func (e *Entry) MarkChildrenPendingDelete() (files, dirs int) {
	e.children.forEach(func(c *Entry) bool {
		c.PendingDelete = true
		if c.IsDir() {
			dirs++
		} else {
			files++
		}
		return true
	})
	return files, dirs
}

// RemovePendingDelete removes every direct child flagged PendingDelete,
// subtracts their sizes from e (propagated to ancestors), and returns the
// removed entries for recycling by the caller.
func (e *Entry) RemovePendingDelete() []*Entry {
	deleted, delta := e.children.extractPendingDelete()
	if delta != 0 {
		e.size -= delta
		if e.parent != nil {
			e.parent.onChildSizeChanged(e, -delta)
		}
	}
	return deleted
}

// ForEach enumerates children in size-decreasing order, stopping early if
// visit returns false. Returns false if the entry has no children.
func (e *Entry) ForEach(visit func(*Entry) bool) bool {
	if e.children.count == 0 {
		return false
	}
	e.children.forEach(visit)
	return true
}

// ChildNamed returns the direct child with the given name, or nil. This is a
// linear scan over all children — FileDB's pathCrc index is the fast path;
// this helper exists for disambiguating CRC collisions by name.
func (e *Entry) ChildNamed(name string) *Entry {
	var found *Entry
	e.children.forEach(func(c *Entry) bool {
		if c.Name() == name {
			found = c
			return false
		}
		return true
	})
	return found
}

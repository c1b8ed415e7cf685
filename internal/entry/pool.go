package entry

import "sync"

// Pool recycles detached Entry structs and their name buffers. File-tree
// churn (rescans, deletes) produces many alloc/free cycles on large
// volumes; reusing both the Entry allocation and its name buffer avoids
// allocator pressure under that workload.
type Pool struct {
	mu          sync.Mutex
	freeEntries []*Entry
	nameBuffers map[int][][]byte
}

// NewPool constructs an empty pool.
func NewPool() *Pool {
	return &Pool{nameBuffers: make(map[int][][]byte)}
}

// Acquire returns a fully reinitialized Entry (size 0, no parent, no
// children, PendingDelete false) with the given name and kind, drawing from
// the free list and a matching-length name buffer when available.
func (p *Pool) Acquire(name string, kind Kind) *Entry {
	p.mu.Lock()
	e := p.takeEntryLocked()
	buf := p.takeNameBufferLocked(len(name))
	p.mu.Unlock()

	*e = Entry{nameBuf: append(buf[:0], name...), kind: kind}
	return e
}

func (p *Pool) takeEntryLocked() *Entry {
	if n := len(p.freeEntries); n > 0 {
		e := p.freeEntries[n-1]
		p.freeEntries = p.freeEntries[:n-1]
		return e
	}
	return &Entry{}
}

func (p *Pool) takeNameBufferLocked(length int) []byte {
	if bufs, ok := p.nameBuffers[length]; ok && len(bufs) > 0 {
		buf := bufs[len(bufs)-1]
		p.nameBuffers[length] = bufs[:len(bufs)-1]
		return buf
	}
	return make([]byte, 0, length)
}

// releaseLocked files a single detached entry's name buffer and the entry itself
// into their respective free lists. Must be called with p.mu held.
func (p *Pool) releaseLocked(e *Entry) {
	if cap(e.nameBuf) > 0 {
		length := cap(e.nameBuf)
		p.nameBuffers[length] = append(p.nameBuffers[length], e.nameBuf[:0])
	}
	e.children = childSet{}
	e.parent = nil
	e.nameBuf = nil
	p.freeEntries = append(p.freeEntries, e)
}

// ReleaseChain walks root and every descendant depth-first, filing each
// entry and its name buffer back into the pool. Returns the number of
// entries released.
func (p *Pool) ReleaseChain(root *Entry) int {
	if root == nil {
		return 0
	}
	children := make([]*Entry, 0, root.children.count)
	root.children.forEach(func(c *Entry) bool {
		children = append(children, c)
		return true
	})

	count := 1
	for _, c := range children {
		count += p.ReleaseChain(c)
	}

	p.mu.Lock()
	p.releaseLocked(root)
	p.mu.Unlock()
	return count
}

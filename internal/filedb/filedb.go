// Package filedb implements FileDB: the locked container owning the live
// file tree, a path-crc index for O(1)-expected lookup, and aggregate space
// and entry-count statistics.
package filedb

import (
	"sort"
	"sync"

	"diskmap/internal/crc16"
	"diskmap/internal/entry"
	"diskmap/internal/pathkey"
)

// ChildSpec describes one directly-scanned child, as produced by
// diriter.Iterator, to be diffed against the existing tree by
// SetChildrenForPath.
type ChildSpec struct {
	Name string
	Kind entry.Kind
	Size int64
}

// FileDB owns the root entry and root path, and a pathCrc -> entries index
// used for O(1)-expected lookup. All mutation and observation is guarded by
// a single lock.
type FileDB struct {
	mu sync.Mutex

	pool *entry.Pool

	root     *entry.Entry
	rootPath *pathkey.Path

	totalSpace     uint64
	availableSpace uint64
	fileCount      int64
	dirCount       int64
	hasChanges     bool

	index map[uint16][]*entry.Entry
}

// New constructs an empty, uninitialized FileDB backed by pool.
func New(pool *entry.Pool) *FileDB {
	return &FileDB{
		pool:  pool,
		index: make(map[uint16][]*entry.Entry),
	}
}

// SetRoot drops any existing tree (recycling it via the pool), creates a
// fresh root directory entry for path, and resets all counters.
func (db *FileDB) SetRoot(path string) error {
	rootPath, err := pathkey.New(path)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.clearLocked()

	root := db.pool.Acquire(rootPath.Path(true), entry.Directory)
	root.SetNameCrc(crc16.Checksum(pathkey.TrimSeparator(rootPath.Path(true))))
	root.UpdatePathCrc(0)

	db.root = root
	db.rootPath = rootPath
	db.dirCount = 1
	db.hasChanges = true
	db.indexInsertLocked(root)
	return nil
}

// Clear empties the database, leaving it uninitialized.
func (db *FileDB) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.clearLocked()
}

func (db *FileDB) clearLocked() {
	if db.root != nil {
		db.pool.ReleaseChain(db.root)
	}
	db.root = nil
	db.rootPath = nil
	db.fileCount = 0
	db.dirCount = 0
	db.hasChanges = true
	db.index = make(map[uint16][]*entry.Entry)
}

// IsReady reports whether the database has a valid root.
func (db *FileDB) IsReady() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.root != nil
}

// HasChanges is a hint: true whenever a writer has mutated the tree since
// the last successful ProcessEntry call, whatever path that call named.
func (db *FileDB) HasChanges() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.hasChanges
}

// RootPath returns the current root path, or nil if uninitialized.
func (db *FileDB) RootPath() *pathkey.Path {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.rootPath == nil {
		return nil
	}
	return db.rootPath.Clone()
}

// FileCount returns the number of file entries reachable from root.
func (db *FileDB) FileCount() int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.fileCount
}

// DirCount returns the number of directory entries reachable from root
// (including the root itself).
func (db *FileDB) DirCount() int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.dirCount
}

// SetSpace records the total and available space of the mount point backing
// this tree.
func (db *FileDB) SetSpace(total, available uint64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.totalSpace = total
	db.availableSpace = available
}

// GetSpace returns used, available and total space. used is clamped so that
// used+available never exceeds total.
func (db *FileDB) GetSpace() (used, available, total uint64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	total = db.totalSpace
	available = db.availableSpace
	used = 0
	if db.root != nil {
		used = uint64(db.root.Size())
	}
	if used+available > total {
		if available > total {
			used = 0
		} else {
			used = total - available
		}
	}
	return used, available, total
}

// FindEntry looks up an entry by full path via the pathCrc index,
// disambiguating collisions by walking the ancestor chain and comparing
// names against path.Parts().
func (db *FileDB) FindEntry(path *pathkey.Path) *entry.Entry {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.findEntryLocked(path)
}

func (db *FileDB) findEntryLocked(path *pathkey.Path) *entry.Entry {
	if db.root == nil {
		return nil
	}
	candidates := db.index[path.PathCrc()]
	for _, candidate := range candidates {
		if entryMatchesPath(candidate, path) {
			return candidate
		}
	}
	return nil
}

// entryMatchesPath walks e's ancestor chain and compares names against
// path's parts, from the deepest part down to the root.
func entryMatchesPath(e *entry.Entry, path *pathkey.Path) bool {
	parts := path.Parts()
	node := e
	for i := len(parts) - 1; i >= 1; i-- {
		if node == nil {
			return false
		}
		if node.Name() != pathkey.TrimSeparator(parts[i]) {
			return false
		}
		node = node.Parent()
	}
	return node != nil && node.Parent() == nil
}

// ProcessEntry looks up path and, if found, invokes visit with the live
// entry under the lock. visit must not retain the reference beyond the
// call. On success, clears HasChanges. Returns false if the database is
// uninitialized or the path is not found.
func (db *FileDB) ProcessEntry(path *pathkey.Path, visit func(*entry.Entry)) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.root == nil {
		return false
	}
	e := db.findEntryLocked(path)
	if e == nil {
		return false
	}
	visit(e)
	db.hasChanges = false
	return true
}

// SetChildrenForPath is the central diff-apply: it finds the entry at path
// and makes its children match incoming, adding new entries (drawn from the
// pool), clearing or removing stale ones, and updating sizes in place. If
// collectNewDirs is true, the full path of every newly discovered directory
// is returned for the caller to enqueue as a new scan request. Returns false
// if path does not resolve to an existing entry.
func (db *FileDB) SetChildrenForPath(path *pathkey.Path, incoming []ChildSpec, collectNewDirs bool) ([]*pathkey.Path, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.root == nil {
		return nil, false
	}
	parent := db.findEntryLocked(path)
	if parent == nil {
		return nil, false
	}

	parent.MarkChildrenPendingDelete()

	sorted := make([]ChildSpec, len(incoming))
	copy(sorted, incoming)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size > sorted[j].Size })

	var newDirs []*pathkey.Path

	for _, spec := range sorted {
		nameCrc := crc16.Checksum(spec.Name)
		crc := parent.PathCrc() ^ nameCrc
		existing := db.findChildByNameLocked(parent, crc, spec.Name)

		switch {
		case existing != nil && existing.IsDir():
			existing.PendingDelete = false
		case existing != nil && existing.Size() == spec.Size:
			existing.PendingDelete = false
		case existing != nil:
			existing.PendingDelete = false
			parent.SetChildSize(existing, spec.Size)
		default:
			child := db.pool.Acquire(spec.Name, spec.Kind)
			child.SetNameCrc(nameCrc)
			if spec.Kind == entry.File {
				child.SetSize(spec.Size)
			}
			child.UpdatePathCrc(parent.PathCrc())
			parent.AddChild(child)
			db.indexInsertLocked(child)
			if spec.Kind == entry.Directory {
				db.dirCount++
				if collectNewDirs {
					newDirs = append(newDirs, childPath(path, spec.Name))
				}
			} else {
				db.fileCount++
			}
		}
	}

	deleted := parent.RemovePendingDelete()
	for _, d := range deleted {
		db.removeSubtreeLocked(d)
	}

	db.hasChanges = true
	return newDirs, true
}

// findChildByNameLocked probes the index for a direct child of parent with
// the given path crc, disambiguating collisions by name and parent
// identity (cheaper than a full ancestor walk since parent is already
// known).
func (db *FileDB) findChildByNameLocked(parent *entry.Entry, crc uint16, name string) *entry.Entry {
	for _, candidate := range db.index[crc] {
		if candidate.Parent() == parent && candidate.Name() == name {
			return candidate
		}
	}
	return nil
}

// removeSubtreeLocked removes d and every descendant from the pathCrc
// index, decrements counters, and returns the detached chain to the pool.
func (db *FileDB) removeSubtreeLocked(d *entry.Entry) {
	db.tallyRemovalLocked(d)
	db.pool.ReleaseChain(d)
}

func (db *FileDB) tallyRemovalLocked(e *entry.Entry) {
	if e.IsDir() {
		db.dirCount--
	} else {
		db.fileCount--
	}
	db.indexRemoveLocked(e)

	var children []*entry.Entry
	e.ForEach(func(c *entry.Entry) bool {
		children = append(children, c)
		return true
	})
	for _, c := range children {
		db.tallyRemovalLocked(c)
	}
}

func (db *FileDB) indexInsertLocked(e *entry.Entry) {
	crc := e.PathCrc()
	db.index[crc] = append(db.index[crc], e)
}

func (db *FileDB) indexRemoveLocked(e *entry.Entry) {
	crc := e.PathCrc()
	bucket := db.index[crc]
	for i, candidate := range bucket {
		if candidate == e {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(db.index, crc)
	} else {
		db.index[crc] = bucket
	}
}

// childPath builds the full path of a child named name directly under
// parent.
func childPath(parent *pathkey.Path, name string) *pathkey.Path {
	child := parent.Clone()
	// Directories are the only callers of childPath (see newDirs above);
	// AddDir is always the right append here.
	_ = child.AddDir(name)
	return child
}

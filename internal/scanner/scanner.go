// Package scanner implements the worker that drives FileDB from directory
// listings and watcher events: a request queue with subsumption rules, a
// pause/stop/resume state machine, and the space/progress bookkeeping a host
// surfaces to a user.
package scanner

import (
	"errors"
	"os"
	"sync"
	"time"

	"diskmap/internal/diriter"
	"diskmap/internal/diskspace"
	"diskmap/internal/entry"
	"diskmap/internal/filedb"
	"diskmap/internal/mountdiscovery"
	"diskmap/internal/pathkey"
	"diskmap/internal/watcher"
)

// Status is the scanner's run state.
type Status int

const (
	Idle Status = iota
	Scanning
	ScanPaused
	Stopping
)

var (
	ErrScanRunning = errors.New("scanner: a scan is already running")
	ErrCantOpenDir = errors.New("scanner: root directory cannot be opened")
	ErrPathUnknown = errors.New("scanner: path is not part of the current tree")
)

// request is one queued scan, either recursive (discovered subdirectories
// are queued in turn) or a single-level refresh driven by a watcher event.
type request struct {
	path      *pathkey.Path
	recursive bool
}

// Scanner owns the worker goroutine, the request queue, a FileDB, and a
// Watcher. A single instance scans exactly one root at a time.
type Scanner struct {
	pollInterval time.Duration

	scanMu          sync.Mutex
	queue           []request
	currentScanPath *pathkey.Path
	status          Status

	db *filedb.FileDB
	w  *watcher.Watcher

	availableRoots []string
	excludedMounts []string

	events []string

	run     chan struct{}
	stopped chan struct{}
}

const maxBufferedEvents = 256

// New opens path for scanning, starting the worker goroutine idle. The
// caller must call Scan to begin traversal.
func New(path string) (*Scanner, error) {
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return nil, ErrCantOpenDir
	}

	pool := entry.NewPool()
	db := filedb.New(pool)
	if err := db.SetRoot(path); err != nil {
		return nil, ErrCantOpenDir
	}

	w, err := watcher.Create()
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		pollInterval:   20 * time.Millisecond,
		db:             db,
		w:              w,
		availableRoots: mountdiscovery.AvailableRoots(),
		excludedMounts: mountdiscovery.ExcludedMounts(),
		run:            make(chan struct{}),
		stopped:        make(chan struct{}),
	}
	go s.workerLoop()
	return s, nil
}

// Scan seeds the request queue with root and begins a recursive scan.
func (s *Scanner) Scan() {
	root := s.db.RootPath()
	if root == nil {
		return
	}
	s.w.AddDir(root.Path(false))
	s.enqueue(request{path: root, recursive: true}, true)
}

// RescanPath enqueues a recursive rescan of path at the front of the queue.
// No-op if path is not part of the current tree.
func (s *Scanner) RescanPath(path *pathkey.Path) {
	if s.db.FindEntry(path) == nil {
		return
	}
	s.enqueue(request{path: path, recursive: true}, true)
}

// Pause transitions Scanning -> ScanPaused.
func (s *Scanner) Pause() {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	if s.status == Scanning {
		s.status = ScanPaused
	}
}

// Resume transitions ScanPaused -> Scanning.
func (s *Scanner) Resume() {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	if s.status == ScanPaused {
		s.status = Scanning
	}
}

// Stop requests the worker to finish its current directory and return to
// Idle, then blocks until it does. The watcher keeps running; Close is what
// shuts it down.
func (s *Scanner) Stop() {
	s.scanMu.Lock()
	if s.status == Idle {
		s.scanMu.Unlock()
		return
	}
	s.status = Stopping
	s.scanMu.Unlock()

	for {
		s.scanMu.Lock()
		st := s.status
		s.scanMu.Unlock()
		if st == Idle {
			return
		}
		time.Sleep(s.pollInterval)
	}
}

// Close stops any running scan, then tears down the watcher and worker
// goroutine. The watcher is closed before the worker goroutine exits so its
// read loop unblocks first, matching the shutdown order required by the
// destructor contract.
func (s *Scanner) Close() error {
	s.Stop()
	err := s.w.Close()
	close(s.run)
	<-s.stopped
	return err
}

// CanRefresh reports whether a new scan or rescan may currently be started.
func (s *Scanner) CanRefresh() bool {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return s.status == Idle
}

// IsRunning reports whether the worker is actively scanning or paused
// mid-scan.
func (s *Scanner) IsRunning() bool {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return s.status != Idle
}

// HasChanges delegates to the underlying FileDB's change hint.
func (s *Scanner) HasChanges() bool {
	return s.db.HasChanges()
}

// CurrentScanPath returns the path currently being scanned, or nil if idle.
func (s *Scanner) CurrentScanPath() *pathkey.Path {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	if s.currentScanPath == nil {
		return nil
	}
	return s.currentScanPath.Clone()
}

// GetSpace reports used, available and total space of the scanned volume.
func (s *Scanner) GetSpace() (used, available, total uint64) {
	return s.db.GetSpace()
}

// FileCount returns the number of files in the current tree.
func (s *Scanner) FileCount() int64 { return s.db.FileCount() }

// DirCount returns the number of directories in the current tree.
func (s *Scanner) DirCount() int64 { return s.db.DirCount() }

// RootPath returns the scanned root.
func (s *Scanner) RootPath() *pathkey.Path { return s.db.RootPath() }

// WatcherLimits reports the number of directories currently watched and the
// platform's watch-descriptor limit (-1 if the platform exposes none), and
// whether watchedNow has reached that limit. A count still below the limit,
// however close, is not reported as exceeded.
func (s *Scanner) WatcherLimits() (watchedNow, limit int64, exceeded bool) {
	watchedNow = s.w.WatchedCount()
	limit = s.w.DirLimit()
	if limit < 0 {
		return watchedNow, limit, false
	}
	exceeded = watchedNow >= limit
	return watchedNow, limit, exceeded
}

// RecentEvents returns watcher-driven filesystem events handled since the
// last call, formatted for display, and clears the internal buffer.
func (s *Scanner) RecentEvents() []string {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	out := s.events
	s.events = nil
	return out
}

// GetAvailableRoots returns the platform's scannable mount points.
func (s *Scanner) GetAvailableRoots() []string { return s.availableRoots }

// ExcludedMounts returns the platform's excluded mount points.
func (s *Scanner) ExcludedMounts() []string { return s.excludedMounts }

// FileDB exposes the underlying database for ViewProjector and direct
// read-only callers.
func (s *Scanner) FileDB() *filedb.FileDB { return s.db }

// ScanProgress returns 0..100 if is_progress_known, else an unspecified
// value that callers must ignore unless IsProgressKnown is true.
func (s *Scanner) ScanProgress() int {
	used, available, total := s.GetSpace()
	if !s.IsProgressKnown() {
		return 0
	}
	denom := total - available
	if denom == 0 {
		return 100
	}
	pct := int(used * 100 / denom)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// IsProgressKnown reports whether the scanned path equals a filesystem
// mount point (the only case progress can be computed against total
// capacity).
func (s *Scanner) IsProgressKnown() bool {
	root := s.db.RootPath()
	if root == nil {
		return false
	}
	// Path(false) of a bare root such as "/" is empty, so the trailing-slash
	// form is compared as well.
	rootStr, rootDir := root.Path(false), root.Path(true)
	for _, m := range s.availableRoots {
		if m == rootStr || m == rootDir {
			return true
		}
	}
	return false
}

func (s *Scanner) enqueue(r request, front bool) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	s.enqueueLocked(r, front)
	if s.status == Idle {
		s.status = Scanning
	}
}

// enqueueLocked applies the subsumption discipline against the existing
// queue before inserting r.
func (s *Scanner) enqueueLocked(r request, front bool) {
	filtered := s.queue[:0]
	for i, q := range s.queue {
		switch r.path.CompareTo(q.path) {
		case pathkey.Different:
			filtered = append(filtered, q)
		case pathkey.Parent:
			// r's scan subsumes q; drop q.
		case pathkey.Child:
			if q.recursive {
				// q's recursive scan will reach r; keep q and the rest of
				// the queue, and do not enqueue r.
				s.queue = append(append(filtered, q), s.queue[i+1:]...)
				return
			}
			filtered = append(filtered, q)
		case pathkey.Equal:
			// drop q; r replaces it below.
		}
	}
	s.queue = filtered

	if front {
		s.queue = append([]request{r}, s.queue...)
	} else {
		s.queue = append(s.queue, r)
	}
}

func (s *Scanner) workerLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.run:
			return
		default:
		}

		s.scanMu.Lock()
		for len(s.queue) == 0 && s.status == Idle {
			s.scanMu.Unlock()
			select {
			case <-s.run:
				return
			case <-time.After(s.pollInterval):
			}
			s.drainWatcherEvents()
			s.scanMu.Lock()
		}
		s.scanMu.Unlock()

		s.updateDiskSpace()

		for {
			s.scanMu.Lock()
			if len(s.queue) == 0 || s.status != Scanning {
				s.scanMu.Unlock()
				break
			}
			r := s.queue[0]
			s.queue = s.queue[1:]
			s.currentScanPath = r.path
			s.scanMu.Unlock()

			s.scanOne(r)

			s.scanMu.Lock()
			stopping := s.status == Stopping
			s.scanMu.Unlock()
			if stopping {
				break
			}

			for {
				s.scanMu.Lock()
				paused := s.status == ScanPaused
				s.scanMu.Unlock()
				if !paused {
					break
				}
				time.Sleep(s.pollInterval)
			}

			s.scanMu.Lock()
			s.drainWatcherEventsLocked()
			s.scanMu.Unlock()
		}

		s.updateDiskSpace()
		s.scanMu.Lock()
		s.queue = nil
		s.currentScanPath = nil
		s.status = Idle
		s.scanMu.Unlock()
	}
}

func (s *Scanner) scanOne(r request) {
	it := diriter.New(r.path.Path(false))
	var specs []filedb.ChildSpec
	for it.Advance() {
		specs = append(specs, filedb.ChildSpec{
			Name: it.Name(),
			Kind: kindOf(it.IsDir()),
			Size: it.Size(),
		})
	}

	// Newly discovered directories are always reported by the diff-apply
	// (regardless of whether r itself is recursive); a non-recursive scan
	// only recurses into children it has never seen before, not into ones
	// it already knows about. Excluded mount points still get an entry in
	// the tree; they are just never queued for further scanning.
	newDirs, ok := s.db.SetChildrenForPath(r.path, specs, true)
	if !ok {
		return
	}

	for _, d := range newDirs {
		if s.isExcluded(d.Path(false)) {
			continue
		}
		s.w.AddDir(d.Path(false))
		s.enqueue(request{path: d, recursive: r.recursive}, r.recursive)
	}
}

func kindOf(isDir bool) entry.Kind {
	if isDir {
		return entry.Directory
	}
	return entry.File
}

func (s *Scanner) isExcluded(fullPath string) bool {
	for _, m := range s.availableRoots {
		if m == fullPath {
			return true
		}
	}
	for _, m := range s.excludedMounts {
		if m == fullPath {
			return true
		}
	}
	return false
}

func (s *Scanner) updateDiskSpace() {
	root := s.db.RootPath()
	if root == nil {
		return
	}
	total, available, err := diskspace.Query(root.Path(false))
	if err != nil {
		return
	}
	s.db.SetSpace(total, available)
}

func (s *Scanner) drainWatcherEvents() {
	s.scanMu.Lock()
	s.drainWatcherEventsLocked()
	s.scanMu.Unlock()
}

func (s *Scanner) drainWatcherEventsLocked() {
	for {
		ev, ok := s.w.PopEvent()
		if !ok {
			return
		}
		s.recordEventLocked(ev)

		parentPath, err := pathkey.NewFromFull(ev.ParentPath, s.rootStringLocked())
		if err != nil {
			continue
		}
		s.enqueueLocked(request{path: parentPath, recursive: false}, false)
		if s.status == Idle {
			s.status = Scanning
		}
	}
}

func (s *Scanner) recordEventLocked(ev watcher.FileEvent) {
	desc := formatEvent(ev)
	s.events = append(s.events, desc)
	if len(s.events) > maxBufferedEvents {
		s.events = s.events[len(s.events)-maxBufferedEvents:]
	}
}

func formatEvent(ev watcher.FileEvent) string {
	switch ev.Action {
	case watcher.Added:
		return "added " + ev.Filepath
	case watcher.Removed:
		return "removed " + ev.Filepath
	case watcher.Modified:
		return "modified " + ev.Filepath
	case watcher.OldName:
		return "renamed from " + ev.Filepath
	case watcher.NewName:
		return "renamed to " + ev.Filepath
	default:
		return ev.Filepath
	}
}

func (s *Scanner) rootStringLocked() string {
	root := s.db.RootPath()
	if root == nil {
		return ""
	}
	return root.Path(true)
}

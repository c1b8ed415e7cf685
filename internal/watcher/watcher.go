// Package watcher implements a recursive filesystem change notifier on top
// of fsnotify's per-directory watch registration, matching the inotify
// shape described for the core scanner: directories are registered
// individually, a background goroutine drains raw events into a FileEvent
// queue, and auto-removed watches are dropped from the descriptor map.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"diskmap/internal/applog"
)

// Action classifies a FileEvent.
type Action int

const (
	Added Action = iota
	Removed
	Modified
	OldName
	NewName
)

// FileEvent reports a single filesystem change. Filepath and ParentPath are
// both non-empty; ParentPath always ends in a separator, Filepath never
// does.
type FileEvent struct {
	Action     Action
	Filepath   string
	ParentPath string
}

var (
	ErrAccessDenied    = errors.New("watcher: access denied")
	ErrDirLimitReached = errors.New("watcher: directory watch limit reached")
	ErrNotInitialized  = errors.New("watcher: not initialized")
	ErrAlreadyWatched  = errors.New("watcher: already watched")
)

// AddDirResult reports the outcome of AddDir.
type AddDirResult int

const (
	ResultAdded AddDirResult = iota
	ResultAlreadyWatched
	ResultDirLimitReached
	ResultAccessDenied
	ResultNotInitialized
)

// Watcher watches a directory subtree recursively, translating raw fsnotify
// events into FileEvents queued for Scanner to drain.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	watched map[string]bool
	queue   []FileEvent
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Create opens a new watcher rooted (eventually) at whatever directories are
// registered via AddDir. Fails if the underlying OS watch facility cannot be
// opened.
func Create() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		watched: make(map[string]bool),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.readLoop()
	return w, nil
}

// AddDir registers path and recursively registers every subdirectory
// beneath it (skipping symlinks, so scans never loop).
func (w *Watcher) AddDir(path string) AddDirResult {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ResultNotInitialized
	}
	w.mu.Unlock()

	result := ResultAdded
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		r := w.addOne(p)
		if r != ResultAdded && p == path {
			result = r
		}
		return nil
	})
	if err != nil && result == ResultAdded {
		return ResultAccessDenied
	}
	return result
}

func (w *Watcher) addOne(path string) AddDirResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ResultNotInitialized
	}
	if w.watched[path] {
		return ResultAlreadyWatched
	}
	if err := w.fsw.Add(path); err != nil {
		if errors.Is(err, fsnotify.ErrNonExistentWatch) || os.IsPermission(err) {
			return ResultAccessDenied
		}
		if strings.Contains(err.Error(), "too many open files") {
			return ResultDirLimitReached
		}
		return ResultAccessDenied
	}
	w.watched[path] = true
	return ResultAdded
}

// RmDir stops watching path and every subdirectory beneath it.
func (w *Watcher) RmDir(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	for watched := range w.watched {
		if watched == path || isSubPath(watched, path) {
			_ = w.fsw.Remove(watched)
			delete(w.watched, watched)
		}
	}
}

// PopEvent removes and returns the oldest queued FileEvent, if any.
func (w *Watcher) PopEvent() (FileEvent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return FileEvent{}, false
	}
	e := w.queue[0]
	w.queue = w.queue[1:]
	return e, true
}

// WatchedCount returns the number of directories currently under watch.
func (w *Watcher) WatchedCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(len(w.watched))
}

// DirLimit reports the OS's per-user watch-descriptor cap (e.g. Linux's
// /proc/sys/fs/inotify/max_user_watches), or -1 if the platform's backend
// imposes no such cap, or it cannot be read.
func (w *Watcher) DirLimit() int64 {
	return dirLimit()
}

// Close stops the read loop and releases the underlying OS watch facility.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.watched = make(map[string]bool)
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) readLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			applog.Warn("watcher: read failure", "error", err)
		case <-ticker.C:
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	parent := filepath.Dir(event.Name) + string(filepath.Separator)

	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
			w.addOne(event.Name)
		}
		w.push(FileEvent{Action: Added, Filepath: event.Name, ParentPath: parent})
	case event.Op&fsnotify.Write != 0:
		w.push(FileEvent{Action: Modified, Filepath: event.Name, ParentPath: parent})
	case event.Op&fsnotify.Remove != 0:
		w.RmDir(event.Name)
		w.push(FileEvent{Action: Removed, Filepath: event.Name, ParentPath: parent})
	case event.Op&fsnotify.Rename != 0:
		w.RmDir(event.Name)
		w.push(FileEvent{Action: OldName, Filepath: event.Name, ParentPath: parent})
	}
}

func (w *Watcher) push(e FileEvent) {
	w.mu.Lock()
	w.queue = append(w.queue, e)
	w.mu.Unlock()
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && strings.HasPrefix(path, parent+string(filepath.Separator))
}

// Package hostapi is the toolkit-agnostic service layer a frontend binds
// to: it owns one Scanner/Projector pair per scanned root and exposes the
// methods a CLI or GUI host calls, one method per operation, without any
// UI-framework dependency.
package hostapi

import (
	"context"
	"time"

	"diskmap/internal/applog"
	"diskmap/internal/config"
	"diskmap/internal/pathkey"
	"diskmap/internal/recents"
	"diskmap/internal/scanner"
	"diskmap/internal/view"
)

// Service holds the scan state for a single root and the log history a
// diagnostic panel consumes.
type Service struct {
	scanner   *scanner.Scanner
	projector *view.Projector
	History   *applog.History

	pollInterval time.Duration
}

// Open prepares a scanner for path and returns a Service bound to it; no
// traversal happens until Scan is called. The caller must call Close when
// done.
func Open(path string) (*Service, error) {
	s, err := scanner.New(path)
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	p := view.New()
	p.SetFileDB(s.FileDB())
	p.SetViewPath(s.RootPath())
	p.SetViewDepth(cfg.DefaultViewDepth)
	p.SetTextHeight(cfg.TextLineHeight)

	return &Service{
		scanner:      s,
		projector:    p,
		History:      applog.NewHistory(),
		pollInterval: 20 * time.Millisecond,
	}, nil
}

// Scan starts a recursive scan of the bound root.
func (svc *Service) Scan() {
	svc.History.Log("scan started: " + svc.scanner.RootPath().Path(false))
	applog.Startup("scan started", "root", svc.scanner.RootPath().Path(false))
	svc.scanner.Scan()
}

// RescanPath enqueues a recursive rescan of path within the bound root.
func (svc *Service) RescanPath(full string) error {
	p, err := pathkey.NewFromFull(full, svc.scanner.RootPath().Path(true))
	if err != nil {
		return err
	}
	svc.scanner.RescanPath(p)
	svc.History.Log("rescan requested: " + full)
	return nil
}

// IsRunning reports whether a scan is currently in progress.
func (svc *Service) IsRunning() bool { return svc.scanner.IsRunning() }

// WaitIdle blocks until the scanner returns to Idle or ctx is done.
func (svc *Service) WaitIdle(ctx context.Context) error {
	for svc.scanner.IsRunning() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(svc.pollInterval):
		}
	}
	return nil
}

// Summary reports the current tree's headline numbers.
type Summary struct {
	FileCount int64
	DirCount  int64
	Used      uint64
	Available uint64
	Total     uint64
}

// Summary returns the current tree's headline numbers.
func (svc *Service) Summary() Summary {
	used, available, total := svc.scanner.GetSpace()
	return Summary{
		FileCount: svc.scanner.FileCount(),
		DirCount:  svc.scanner.DirCount(),
		Used:      used,
		Available: available,
		Total:     total,
	}
}

// Progress returns 0..100, and whether that value is meaningful (the
// scanned root equals a filesystem mount point).
func (svc *Service) Progress() (pct int, known bool) {
	return svc.scanner.ScanProgress(), svc.scanner.IsProgressKnown()
}

// RecordRecent upserts a recents entry for the bound root using the
// current tree summary.
func (svc *Service) RecordRecent() error {
	sum := svc.Summary()
	return recents.Record(svc.scanner.RootPath().Path(false), int64(sum.Used), sum.FileCount, sum.DirCount)
}

// View rebuilds and returns the treemap snapshot for area.
func (svc *Service) View(area view.Rect) (*view.Entry, bool) {
	cfg := config.Get()
	svc.projector.SetViewArea(area)
	ok := svc.projector.Update(cfg.IncludeUnknownSpace, cfg.IncludeFreeSpace)
	if !ok {
		return nil, false
	}
	var snapshot *view.Entry
	svc.projector.ProcessEntry(func(e *view.Entry) { snapshot = e })
	return snapshot, snapshot != nil
}

// DrainEvents returns watcher-driven filesystem events observed since the
// last call, and appends them to History.
func (svc *Service) DrainEvents() []string {
	events := svc.scanner.RecentEvents()
	for _, e := range events {
		svc.History.Log(e, "WATCH")
	}
	return events
}

// AvailableRoots returns the platform's scannable mount points.
func (svc *Service) AvailableRoots() []string { return svc.scanner.GetAvailableRoots() }

// Close stops the scan and releases watcher resources.
func (svc *Service) Close() error {
	return svc.scanner.Close()
}

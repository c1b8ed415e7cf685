package hostapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"diskmap/internal/view"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestOpenScanAndSummary(t *testing.T) {
	root := buildTree(t)
	svc, err := Open(root)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer svc.Close()

	svc.Scan()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle failed: %v", err)
	}

	sum := svc.Summary()
	if sum.FileCount != 1 {
		t.Fatalf("file count = %d, want 1", sum.FileCount)
	}
	if sum.Used != 10 {
		t.Fatalf("used = %d, want 10", sum.Used)
	}
}

func TestViewReturnsSnapshotAfterScan(t *testing.T) {
	root := buildTree(t)
	svc, err := Open(root)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer svc.Close()

	svc.Scan()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle failed: %v", err)
	}

	snapshot, ok := svc.View(view.Rect{W: 120, H: 40})
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snapshot == nil {
		t.Fatal("expected a non-nil snapshot")
	}
}

func TestHistoryRecordsScanStart(t *testing.T) {
	root := buildTree(t)
	svc, err := Open(root)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer svc.Close()

	svc.Scan()
	if !svc.History.HasNew() {
		t.Fatal("expected Scan to log a history entry")
	}
}

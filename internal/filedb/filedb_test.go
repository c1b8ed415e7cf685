package filedb

import (
	"testing"

	"diskmap/internal/entry"
	"diskmap/internal/pathkey"
)

func newTestDB(t *testing.T, root string) (*FileDB, *pathkey.Path) {
	t.Helper()
	db := New(entry.NewPool())
	if err := db.SetRoot(root); err != nil {
		t.Fatal(err)
	}
	// A volume large enough that GetSpace's clamp never applies, so the
	// used figure it reports equals the root entry's size.
	db.SetSpace(1<<40, 0)
	p, err := pathkey.New(root)
	if err != nil {
		t.Fatal(err)
	}
	return db, p
}

func TestEmptySubtree(t *testing.T) {
	db, root := newTestDB(t, "/TestDir/")

	newDirs, ok := db.SetChildrenForPath(root, nil, true)
	if !ok {
		t.Fatal("expected SetChildrenForPath to succeed")
	}
	if len(newDirs) != 0 {
		t.Fatalf("expected no new dirs, got %v", newDirs)
	}
	if db.DirCount() != 1 || db.FileCount() != 0 {
		t.Fatalf("dirCount=%d fileCount=%d", db.DirCount(), db.FileCount())
	}

	used, _, _ := db.GetSpace()
	if used != 0 {
		t.Fatalf("used space = %d, want 0", used)
	}

	var childCount int
	ok = db.ProcessEntry(root, func(e *entry.Entry) {
		e.ForEach(func(*entry.Entry) bool { childCount++; return true })
	})
	if !ok {
		t.Fatal("expected ProcessEntry to find root")
	}
	if childCount != 0 {
		t.Fatalf("expected empty child enumeration, got %d", childCount)
	}
}

func TestFlatListing(t *testing.T) {
	db, root := newTestDB(t, "/TestDir/")

	_, ok := db.SetChildrenForPath(root, []ChildSpec{
		{Name: "a", Kind: entry.File, Size: 10},
		{Name: "b", Kind: entry.File, Size: 20},
		{Name: "c", Kind: entry.File, Size: 30},
	}, false)
	if !ok {
		t.Fatal("expected success")
	}

	used, _, _ := db.GetSpace()
	if used != 60 {
		t.Fatalf("used = %d, want 60", used)
	}

	var order []string
	db.ProcessEntry(root, func(e *entry.Entry) {
		e.ForEach(func(c *entry.Entry) bool {
			order = append(order, c.Name())
			return true
		})
	})
	want := []string{"c", "b", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestNestedDiffApply(t *testing.T) {
	db, root := newTestDB(t, "/TestDir/")

	d1, err := pathkey.NewFromFull("/TestDir/d1/", "/TestDir/")
	if err != nil {
		t.Fatal(err)
	}

	_, ok := db.SetChildrenForPath(root, []ChildSpec{
		{Name: "d1", Kind: entry.Directory},
	}, true)
	if !ok {
		t.Fatal("expected success")
	}

	_, ok = db.SetChildrenForPath(d1, []ChildSpec{
		{Name: "f1", Kind: entry.File, Size: 10},
		{Name: "f2", Kind: entry.File, Size: 30},
		{Name: "f3", Kind: entry.File, Size: 20},
	}, false)
	if !ok {
		t.Fatal("expected success")
	}

	_, ok = db.SetChildrenForPath(d1, []ChildSpec{
		{Name: "f2", Kind: entry.File, Size: 128},
		{Name: "f3", Kind: entry.File, Size: 20},
		{Name: "f5", Kind: entry.File, Size: 64},
	}, false)
	if !ok {
		t.Fatal("expected second apply to succeed")
	}

	var order []string
	db.ProcessEntry(d1, func(e *entry.Entry) {
		e.ForEach(func(c *entry.Entry) bool {
			order = append(order, c.Name())
			return true
		})
	})
	want := []string{"f2", "f5", "f3"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	used, _, _ := db.GetSpace()
	if used != 212 {
		t.Fatalf("used = %d, want 212", used)
	}

	f1Path, _ := pathkey.NewFromFull("/TestDir/d1/f1", "/TestDir/")
	if db.FindEntry(f1Path) != nil {
		t.Fatal("expected f1 to be removed from the index")
	}
}

func TestSizeSortedRescan(t *testing.T) {
	db, root := newTestDB(t, "/TestDir/")
	d1, _ := pathkey.NewFromFull("/TestDir/d1/", "/TestDir/")

	db.SetChildrenForPath(root, []ChildSpec{{Name: "d1", Kind: entry.Directory}}, true)
	db.SetChildrenForPath(d1, []ChildSpec{
		{Name: "f1", Kind: entry.File, Size: 10},
		{Name: "f2", Kind: entry.File, Size: 30},
		{Name: "f3", Kind: entry.File, Size: 20},
	}, false)
	db.SetChildrenForPath(d1, []ChildSpec{
		{Name: "f2", Kind: entry.File, Size: 128},
		{Name: "f3", Kind: entry.File, Size: 20},
		{Name: "f5", Kind: entry.File, Size: 64},
	}, false)

	db.SetChildrenForPath(d1, []ChildSpec{
		{Name: "f2", Kind: entry.File, Size: 128},
		{Name: "f3", Kind: entry.File, Size: 200},
		{Name: "f5", Kind: entry.File, Size: 64},
	}, false)

	var order []string
	db.ProcessEntry(d1, func(e *entry.Entry) {
		e.ForEach(func(c *entry.Entry) bool {
			order = append(order, c.Name())
			return true
		})
	})
	want := []string{"f3", "f2", "f5"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	used, _, _ := db.GetSpace()
	if used != 392 {
		t.Fatalf("used = %d, want 392", used)
	}
}

func TestGetSpaceClampsUsed(t *testing.T) {
	db, _ := newTestDB(t, "/TestDir/")
	db.SetSpace(100, 90)

	used, available, total := db.GetSpace()
	if total != 100 || available != 90 {
		t.Fatalf("total=%d available=%d", total, available)
	}
	if used != 0 {
		t.Fatalf("used = %d, want 0 (no files scanned)", used)
	}
}

func TestIndexHasNoUnreachableEntries(t *testing.T) {
	db, root := newTestDB(t, "/TestDir/")
	db.SetChildrenForPath(root, []ChildSpec{
		{Name: "a", Kind: entry.File, Size: 1},
		{Name: "b", Kind: entry.File, Size: 2},
	}, false)
	db.SetChildrenForPath(root, []ChildSpec{
		{Name: "a", Kind: entry.File, Size: 1},
	}, false)

	bPath, _ := pathkey.NewFromFull("/TestDir/b", "/TestDir/")
	if db.FindEntry(bPath) != nil {
		t.Fatal("expected b to be unreachable after rescan dropped it")
	}
	aPath, _ := pathkey.NewFromFull("/TestDir/a", "/TestDir/")
	if db.FindEntry(aPath) == nil {
		t.Fatal("expected a to remain reachable")
	}
}

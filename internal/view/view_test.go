package view

import (
	"testing"

	"diskmap/internal/entry"
	"diskmap/internal/filedb"
)

func buildDB(t *testing.T) *filedb.FileDB {
	t.Helper()
	db := filedb.New(entry.NewPool())
	if err := db.SetRoot("/TestDir/"); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestUpdateBuildsRootSnapshot(t *testing.T) {
	db := buildDB(t)
	root := db.RootPath()
	db.SetChildrenForPath(root, []filedb.ChildSpec{
		{Name: "a", Kind: entry.File, Size: 100},
		{Name: "b", Kind: entry.File, Size: 50},
	}, false)
	db.SetSpace(1000, 700)

	p := New()
	p.SetFileDB(db)
	p.SetViewPath(root)
	p.SetViewArea(Rect{W: 800, H: 600})
	p.SetTextHeight(12)
	p.SetViewDepth(2)

	if !p.Update(false, false) {
		t.Fatal("expected Update to succeed")
	}

	var snapshot *Entry
	p.ProcessEntry(func(e *Entry) { snapshot = e })
	if snapshot == nil {
		t.Fatal("expected a snapshot")
	}
	if len(snapshot.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(snapshot.Children))
	}
	if snapshot.Children[0].Name != "a" {
		t.Fatalf("expected largest child first, got %q", snapshot.Children[0].Name)
	}
}

func TestUpdateSynthesizesFreeAndUnknownForRootOnly(t *testing.T) {
	db := buildDB(t)
	root := db.RootPath()
	db.SetChildrenForPath(root, []filedb.ChildSpec{
		{Name: "a", Kind: entry.File, Size: 100},
	}, false)
	db.SetSpace(1000, 700)

	p := New()
	p.SetFileDB(db)
	p.SetViewPath(root)
	p.SetViewArea(Rect{W: 800, H: 600})
	p.SetTextHeight(12)

	if !p.Update(true, true) {
		t.Fatal("expected Update to succeed")
	}

	var snapshot *Entry
	p.ProcessEntry(func(e *Entry) { snapshot = e })

	var sawFree, sawUnknown bool
	for _, c := range snapshot.Children {
		switch c.Kind {
		case FreeSpace:
			sawFree = true
			if c.Size != 700 {
				t.Fatalf("free space size = %d, want 700", c.Size)
			}
		case UnknownSpace:
			sawUnknown = true
			if c.Size != 200 {
				t.Fatalf("unknown space size = %d, want 200 (1000-700-100)", c.Size)
			}
		}
	}
	if !sawFree || !sawUnknown {
		t.Fatalf("expected both synthetic entries, got children %+v", snapshot.Children)
	}
}

func TestRectanglesFillParentArea(t *testing.T) {
	db := buildDB(t)
	root := db.RootPath()
	db.SetChildrenForPath(root, []filedb.ChildSpec{
		{Name: "a", Kind: entry.File, Size: 300},
		{Name: "b", Kind: entry.File, Size: 200},
		{Name: "c", Kind: entry.File, Size: 100},
	}, false)

	p := New()
	p.SetFileDB(db)
	p.SetViewPath(root)
	p.SetViewArea(Rect{W: 600, H: 400})
	p.SetTextHeight(10)

	if !p.Update(false, false) {
		t.Fatal("expected Update to succeed")
	}

	var snapshot *Entry
	p.ProcessEntry(func(e *Entry) { snapshot = e })

	var totalArea float64
	for _, c := range snapshot.Children {
		totalArea += c.Area.area()
	}
	inner := Rect{W: 600, H: 400 - 1.5*10}
	want := inner.area()
	diff := want - totalArea
	if diff < 0 {
		diff = -diff
	}
	if diff > want*0.05 {
		t.Fatalf("children areas sum to %.1f, want close to %.1f", totalArea, want)
	}
}

func TestHoveredViewReturnsDeepestMatch(t *testing.T) {
	db := buildDB(t)
	root := db.RootPath()
	db.SetChildrenForPath(root, []filedb.ChildSpec{
		{Name: "a", Kind: entry.File, Size: 100},
	}, false)

	p := New()
	p.SetFileDB(db)
	p.SetViewPath(root)
	p.SetViewArea(Rect{W: 200, H: 200})
	p.SetTextHeight(10)
	p.Update(false, false)

	hit := p.HoveredView(1, 1)
	if hit == nil {
		t.Fatal("expected a hit within the view area")
	}

	miss := p.HoveredView(-10, -10)
	if miss != nil {
		t.Fatal("expected no hit outside the view area")
	}
}

func TestIDsAreStableAcrossRebuilds(t *testing.T) {
	db := buildDB(t)
	root := db.RootPath()
	db.SetChildrenForPath(root, []filedb.ChildSpec{
		{Name: "a", Kind: entry.File, Size: 100},
	}, false)

	p := New()
	p.SetFileDB(db)
	p.SetViewPath(root)
	p.SetViewArea(Rect{W: 200, H: 200})
	p.SetTextHeight(10)

	p.Update(false, false)
	var first *Entry
	p.ProcessEntry(func(e *Entry) { first = e })
	firstChildID := first.Children[0].ID

	p.Update(false, false)
	var second *Entry
	p.ProcessEntry(func(e *Entry) { second = e })
	secondChildID := second.Children[0].ID

	if firstChildID != secondChildID {
		t.Fatalf("id changed across rebuilds: %d != %d", firstChildID, secondChildID)
	}
}

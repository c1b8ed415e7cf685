package pathkey

import "testing"

func TestNewRootNormalizesTrailingSlash(t *testing.T) {
	p, err := New("/home/user")
	if err != nil {
		t.Fatal(err)
	}
	if p.Path(true) != "/home/user/" {
		t.Fatalf("got %q", p.Path(true))
	}
	if !p.IsDir() {
		t.Fatal("root must be a directory")
	}
}

func TestNewEmptyRootFails(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestAddDirAndFile(t *testing.T) {
	p, err := New("/home/")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddDir("user"); err != nil {
		t.Fatal(err)
	}
	if err := p.AddFile("notes.txt"); err != nil {
		t.Fatal(err)
	}
	if p.Path(true) != "/home/user/notes.txt" {
		t.Fatalf("got %q", p.Path(true))
	}
	if p.IsDir() {
		t.Fatal("path ending in a file must not be a directory")
	}
	if p.Name() != "notes.txt" {
		t.Fatalf("got name %q", p.Name())
	}
	if err := p.AddDir("x"); err == nil {
		t.Fatal("expected error appending to a file-terminated path")
	}
}

func TestNameStripsTrailingSeparatorExceptRoot(t *testing.T) {
	p, _ := New("/home/")
	if p.Name() != "/home/" {
		t.Fatalf("root name should be returned as-is, got %q", p.Name())
	}
	_ = p.AddDir("user")
	if p.Name() != "user" {
		t.Fatalf("got %q", p.Name())
	}
}

func TestGoUp(t *testing.T) {
	p, _ := New("/home/")
	_ = p.AddDir("user")
	_ = p.AddDir("docs")
	if err := p.GoUp(); err != nil {
		t.Fatal(err)
	}
	if p.Path(true) != "/home/user/" {
		t.Fatalf("got %q", p.Path(true))
	}
	if err := p.GoUp(); err != nil {
		t.Fatal(err)
	}
	if err := p.GoUp(); err == nil {
		t.Fatal("expected error going up from root")
	}
}

func TestCrcInvariants(t *testing.T) {
	p, _ := New("/home/")
	_ = p.AddDir("user")
	_ = p.AddDir("docs")

	crcs := p.Crcs()
	parts := p.Parts()
	if len(crcs) != len(parts) {
		t.Fatalf("crcs len %d != parts len %d", len(crcs), len(parts))
	}
	// pathCrcs[0] must equal crc16(root without trailing separator).
	if crcs[0] != checksumOf(trimTrailingSeparator(parts[0])) {
		t.Fatal("root crc mismatch")
	}
	for i := 1; i < len(parts); i++ {
		want := crcs[i-1] ^ checksumOf(trimTrailingSeparator(parts[i]))
		if crcs[i] != want {
			t.Fatalf("crc[%d] = %x, want %x", i, crcs[i], want)
		}
	}
}

func checksumOf(s string) uint16 {
	p, _ := New(s + string(Separator))
	return p.PathCrc()
}

func TestCompareToEqual(t *testing.T) {
	a, _ := New("/home/")
	_ = a.AddDir("user")
	b, _ := New("/home/")
	_ = b.AddDir("user")

	if a.CompareTo(b) != Equal {
		t.Fatalf("expected EQUAL")
	}
}

func TestCompareToParentChild(t *testing.T) {
	parent, _ := New("/home/")
	_ = parent.AddDir("user")

	child := parent.Clone()
	_ = child.AddDir("docs")

	if parent.CompareTo(child) != Parent {
		t.Fatalf("expected PARENT")
	}
	if child.CompareTo(parent) != Child {
		t.Fatalf("expected CHILD")
	}
}

func TestCompareToDifferent(t *testing.T) {
	a, _ := New("/home/")
	_ = a.AddDir("user")
	b, _ := New("/var/")
	_ = b.AddDir("log")

	if a.CompareTo(b) != Different {
		t.Fatalf("expected DIFFERENT")
	}
}

func TestCompareToSiblingSameDepth(t *testing.T) {
	a, _ := New("/home/")
	_ = a.AddDir("alice")
	b, _ := New("/home/")
	_ = b.AddDir("bob")

	if a.CompareTo(b) != Different {
		t.Fatalf("expected DIFFERENT for same-depth siblings")
	}
}

func TestMakeRelativeTo(t *testing.T) {
	parent, _ := New("/home/")
	_ = parent.AddDir("user")

	child := parent.Clone()
	_ = child.AddDir("docs")
	_ = child.AddFile("a.txt")

	rel, err := child.MakeRelativeTo(parent)
	if err != nil {
		t.Fatal(err)
	}
	if rel.Path(true) != "docs/a.txt" && rel.Path(true) != `docs\a.txt` {
		t.Fatalf("got %q", rel.Path(true))
	}
}

func TestMakeRelativeToRequiresChild(t *testing.T) {
	a, _ := New("/home/")
	b, _ := New("/var/")
	if _, err := a.MakeRelativeTo(b); err == nil {
		t.Fatal("expected error for non-child relation")
	}
}

func TestNewFromFullFile(t *testing.T) {
	p, err := NewFromFull("/home/user/notes.txt", "/home/")
	if err != nil {
		t.Fatal(err)
	}
	if p.IsDir() {
		t.Fatal("expected file path")
	}
	if p.Name() != "notes.txt" {
		t.Fatalf("got %q", p.Name())
	}
}

func TestNewFromFullDir(t *testing.T) {
	p, err := NewFromFull("/home/user/docs/", "/home/")
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsDir() {
		t.Fatal("expected directory path")
	}
}

func TestNewFromFullRejectsNonPrefix(t *testing.T) {
	if _, err := NewFromFull("/var/log", "/home/"); err == nil {
		t.Fatal("expected error when root is not a prefix")
	}
}

func TestRoundTripRenderedPath(t *testing.T) {
	p, _ := New("/home/")
	_ = p.AddDir("user")
	_ = p.AddFile("a.txt")

	rebuilt, err := NewFromFull(p.Path(true), p.Root())
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.PathCrc() != p.PathCrc() {
		t.Fatal("round trip produced a different crc")
	}
	if len(rebuilt.Parts()) != len(p.Parts()) {
		t.Fatal("round trip produced a different part count")
	}
}

// Package pathkey implements FilePath: a normalized, crc-tagged
// representation of a filesystem path built up from an ordered sequence of
// parts. It never touches disk — it's a pure value type.
package pathkey

import (
	"errors"
	"os"
	"strings"

	"diskmap/internal/crc16"
)

// Separator is the platform path separator parts are normalized to.
// It mirrors os.PathSeparator but is a var so tests can pin a separator
// independent of the host OS.
var Separator = byte(os.PathSeparator)

// invertedSeparator is the separator accepted as foreign input and rewritten
// to Separator.
func invertedSeparator() byte {
	if Separator == '/' {
		return '\\'
	}
	return '/'
}

// CompareResult is the outcome of comparing two paths by prefix.
type CompareResult int

const (
	Equal CompareResult = iota
	Parent
	Child
	Different
)

func (r CompareResult) String() string {
	switch r {
	case Equal:
		return "EQUAL"
	case Parent:
		return "PARENT"
	case Child:
		return "CHILD"
	default:
		return "DIFFERENT"
	}
}

var (
	ErrEmptyRoot       = errors.New("pathkey: root cannot be empty")
	ErrEmptyName       = errors.New("pathkey: name cannot be empty")
	ErrPathIsFile      = errors.New("pathkey: cannot append to a path already terminated by a file")
	ErrNotPrefix       = errors.New("pathkey: root is not a prefix of path")
	ErrAtRoot          = errors.New("pathkey: already at root")
	ErrNotChild        = errors.New("pathkey: path is not a child of parent")
)

// Path is an ordered sequence of path components ("parts") with a parallel
// running XOR of CRC-16 checksums. parts[0] is the root and always carries a
// trailing separator; later parts carry a trailing separator iff they are
// directories; only the final part may be a file.
type Path struct {
	parts []string
	crcs  []uint16
}

// New constructs a path from a root directory. The root is normalized: all
// foreign separators are rewritten, and a trailing separator is appended if
// missing.
func New(root string) (*Path, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}
	root = normalize(root, true)
	if root == "" {
		return nil, ErrEmptyRoot
	}
	return &Path{
		parts: []string{root},
		crcs:  []uint16{crc16.Checksum(trimTrailingSeparator(root))},
	}, nil
}

// NewFromFull constructs a path given a full path string and its root. root
// must be a prefix of path. If path ends in a separator it is treated as a
// directory, otherwise as a file.
func NewFromFull(full, root string) (*Path, error) {
	p, err := New(root)
	if err != nil {
		return nil, err
	}
	normFull := normalize(full, false)
	normRoot := trimTrailingSeparator(p.parts[0])

	if !strings.HasPrefix(normFull, normRoot) {
		return nil, ErrNotPrefix
	}
	remainder := strings.TrimPrefix(normFull, normRoot)
	remainder = strings.TrimPrefix(remainder, string(Separator))
	if remainder == "" {
		return p, nil
	}

	isDir := strings.HasSuffix(full, "/") || strings.HasSuffix(full, `\`)

	segments := strings.Split(remainder, string(Separator))
	for i, seg := range segments {
		last := i == len(segments)-1
		if seg == "" {
			continue
		}
		if last && !isDir {
			if err := p.AddFile(seg); err != nil {
				return nil, err
			}
		} else {
			if err := p.AddDir(seg); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// AddDir appends a directory component. Fails if the current path already
// ends in a file.
func (p *Path) AddDir(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !p.IsDir() {
		return ErrPathIsFile
	}
	if name[len(name)-1] != Separator {
		name = name + string(Separator)
	}
	p.parts = append(p.parts, name)
	p.crcs = append(p.crcs, p.crcs[len(p.crcs)-1]^crc16.Checksum(trimTrailingSeparator(name)))
	return nil
}

// AddFile appends a file component. Fails if the current path already ends
// in a file. Nothing else may be appended afterward.
func (p *Path) AddFile(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !p.IsDir() {
		return ErrPathIsFile
	}
	p.parts = append(p.parts, name)
	p.crcs = append(p.crcs, p.crcs[len(p.crcs)-1]^crc16.Checksum(name))
	return nil
}

// GoUp navigates to the parent path, failing if already at the root.
func (p *Path) GoUp() error {
	if !p.CanGoUp() {
		return ErrAtRoot
	}
	p.parts = p.parts[:len(p.parts)-1]
	p.crcs = p.crcs[:len(p.crcs)-1]
	return nil
}

// CanGoUp reports whether the path has more than just a root component.
func (p *Path) CanGoUp() bool {
	return len(p.parts) > 1
}

// IsDir reports whether this path denotes a directory (its last part ends
// in a separator).
func (p *Path) IsDir() bool {
	if len(p.parts) == 0 {
		return false
	}
	last := p.parts[len(p.parts)-1]
	return last != "" && last[len(last)-1] == Separator
}

// Path renders the full path string. If withTrailingSlash is false and this
// path is a directory, the trailing separator is stripped.
func (p *Path) Path(withTrailingSlash bool) string {
	var b strings.Builder
	for _, part := range p.parts {
		b.WriteString(part)
	}
	s := b.String()
	if !withTrailingSlash && len(s) > 0 && s[len(s)-1] == Separator {
		s = s[:len(s)-1]
	}
	return s
}

// Name returns the base name of this path. The root is returned as-is;
// every other part has its trailing separator stripped.
func (p *Path) Name() string {
	if len(p.parts) == 0 {
		return ""
	}
	if len(p.parts) == 1 {
		return p.parts[0]
	}
	return trimTrailingSeparator(p.parts[len(p.parts)-1])
}

// Root returns the root part of the path, unmodified.
func (p *Path) Root() string {
	if len(p.parts) == 0 {
		return ""
	}
	return p.parts[0]
}

// Parts returns the ordered path components. Callers must not mutate the
// returned slice.
func (p *Path) Parts() []string {
	return p.parts
}

// Crcs returns the running XOR of CRC-16 checksums, parallel to Parts().
// Callers must not mutate the returned slice.
func (p *Path) Crcs() []uint16 {
	return p.crcs
}

// PathCrc returns the crc of the full path (the last entry of Crcs()).
func (p *Path) PathCrc() uint16 {
	if len(p.crcs) == 0 {
		return 0
	}
	return p.crcs[len(p.crcs)-1]
}

// Clone returns an independent copy of this path.
func (p *Path) Clone() *Path {
	parts := make([]string, len(p.parts))
	copy(parts, p.parts)
	crcs := make([]uint16, len(p.crcs))
	copy(crcs, p.crcs)
	return &Path{parts: parts, crcs: crcs}
}

// CompareTo compares this path to other via a prefix walk over Parts,
// guarded by a cheap crc equality check before the string comparison.
func (p *Path) CompareTo(other *Path) CompareResult {
	if len(p.parts) == len(other.parts) {
		if p.PathCrc() == other.PathCrc() && samePartsPrefix(p.parts, other.parts, len(p.parts)) {
			return Equal
		}
		return Different
	}

	shorter, longer, result := p, other, Parent
	if len(p.parts) > len(other.parts) {
		shorter, longer, result = other, p, Child
	}

	if !samePartsPrefix(shorter.parts, longer.parts, len(shorter.parts)) {
		return Different
	}
	return result
}

// MakeRelativeTo returns a copy of this path with parent's leading parts
// erased. Requires CompareTo(parent) == Child.
func (p *Path) MakeRelativeTo(parent *Path) (*Path, error) {
	if p.CompareTo(parent) != Child {
		return nil, ErrNotChild
	}
	rel := p.Clone()
	rel.parts = append([]string{}, p.parts[len(parent.parts):]...)
	rel.crcs = append([]uint16{}, p.crcs[len(parent.parts):]...)
	return rel, nil
}

func samePartsPrefix(a, b []string, n int) bool {
	if len(a) < n || len(b) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if trimTrailingSeparator(a[i]) != trimTrailingSeparator(b[i]) {
			return false
		}
	}
	return true
}

// TrimSeparator strips a trailing path separator from s, if present.
func TrimSeparator(s string) string {
	return trimTrailingSeparator(s)
}

func trimTrailingSeparator(s string) string {
	if s != "" && s[len(s)-1] == Separator {
		return s[:len(s)-1]
	}
	return s
}

// normalize rewrites foreign separators to Separator and enforces the
// requested trailing-separator convention.
func normalize(path string, keepTrailingSlash bool) string {
	if path == "" {
		return ""
	}
	foreign := invertedSeparator()
	b := []byte(path)
	for i := range b {
		if b[i] == foreign {
			b[i] = Separator
		}
	}
	s := string(b)
	hasTrailing := s[len(s)-1] == Separator
	if keepTrailingSlash && !hasTrailing {
		s += string(Separator)
	} else if !keepTrailingSlash && hasTrailing {
		s = s[:len(s)-1]
	}
	return s
}

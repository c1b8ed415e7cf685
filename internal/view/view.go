// Package view implements ViewProjector: a squarified-treemap rectangle
// allocator that derives a bounded, render-ready snapshot from a live
// FileDB tree.
package view

import (
	"sort"
	"sync"

	"diskmap/internal/entry"
	"diskmap/internal/filedb"
	"diskmap/internal/pathkey"
)

const (
	minPixelArea = 50.0
	maxChildren  = 100
)

// Kind classifies a rendered cell. Directory and File mirror entry.Kind;
// FreeSpace and UnknownSpace are synthesized only for the root view.
type Kind int

const (
	Directory Kind = iota
	File
	FreeSpace
	UnknownSpace
)

// Rect is a pixel rectangle. A zero-area Rect means the cell collapsed
// below the 1x1 floor and must not be rendered.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) area() float64 { return r.W * r.H }

func (r Rect) contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Entry is one rendered cell. Id is stable across Update calls for the same
// logical child so a host can correlate a previously-hovered cell across
// rebuilds.
type Entry struct {
	ID       int64
	Name     string
	Size     int64
	Kind     Kind
	Area     Rect
	Children []*Entry
}

// Projector derives bounded, rectangle-allocated snapshots from a FileDB
// under renderer-supplied constraints.
type Projector struct {
	mu sync.Mutex

	db         *filedb.FileDB
	viewArea   Rect
	viewPath   *pathkey.Path
	viewDepth  int
	textHeight float64

	ids    map[uint16]int64
	nextID int64

	// Space figures read from db just before a rebuild; buildNode runs
	// inside db's lock, where db.GetSpace cannot be called.
	used, available, total uint64

	root *Entry
}

// New constructs an unconfigured projector. SetFileDB and SetViewPath must
// be called before Update.
func New() *Projector {
	return &Projector{ids: make(map[uint16]int64), viewDepth: 2}
}

func (p *Projector) SetFileDB(db *filedb.FileDB) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.db = db
}

func (p *Projector) SetViewArea(r Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewArea = r
}

func (p *Projector) SetViewPath(path *pathkey.Path) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewPath = path
}

func (p *Projector) SetViewDepth(depth int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewDepth = depth
}

func (p *Projector) SetTextHeight(h float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textHeight = h
}

// OnThemeChanged invalidates any cached render assets a consumer keyed to
// this projector. The core itself caches nothing; this is purely a hook.
func (p *Projector) OnThemeChanged() {}

// Update rebuilds the snapshot from the live tree under the FileDB lock.
// Returns false if the projector is unconfigured or viewPath no longer
// resolves.
func (p *Projector) Update(includeUnknown, includeFree bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil || p.viewPath == nil {
		return false
	}

	p.used, p.available, p.total = p.db.GetSpace()
	isRootView := !p.viewPath.CanGoUp()

	var built *Entry
	ok := p.db.ProcessEntry(p.viewPath, func(e *entry.Entry) {
		built = p.buildNode(e, 0, isRootView, includeUnknown, includeFree)
		built.Area = p.viewArea
		p.layoutLevel(built, includeUnknown, includeFree)
	})
	if !ok {
		return false
	}
	p.root = built
	return true
}

// buildNode constructs the snapshot node for e without assigning pixel
// areas (areas are assigned by layoutLevel, which needs the full sibling
// set first).
func (p *Projector) buildNode(e *entry.Entry, depth int, isRootView, includeUnknown, includeFree bool) *Entry {
	kind := Directory
	if !e.IsDir() {
		kind = File
	}
	node := &Entry{
		ID:   p.idFor(e.PathCrc()),
		Name: e.Name(),
		Size: e.Size(),
		Kind: kind,
	}

	if !e.IsDir() || depth >= p.viewDepth {
		return node
	}

	var children []*Entry
	e.ForEach(func(c *entry.Entry) bool {
		if len(children) >= maxChildren {
			return false
		}
		children = append(children, p.buildNode(c, depth+1, false, includeUnknown, includeFree))
		return true
	})

	if isRootView {
		children = p.withSyntheticEntries(children, includeUnknown, includeFree)
	}
	node.Children = children
	return node
}

// withSyntheticEntries inserts FreeSpace/UnknownSpace pseudo-entries into
// the root view's children, in their correct sorted-by-size position.
func (p *Projector) withSyntheticEntries(children []*Entry, includeUnknown, includeFree bool) []*Entry {
	if p.db == nil {
		return children
	}
	used, available, total := p.used, p.available, p.total
	if includeFree && available > 0 {
		children = insertSorted(children, &Entry{
			ID:   p.idFor(syntheticKey("free")),
			Name: "Free space",
			Size: int64(available),
			Kind: FreeSpace,
		})
	}
	if includeUnknown {
		unknown := int64(total) - int64(available) - int64(used)
		if unknown > 0 {
			children = insertSorted(children, &Entry{
				ID:   p.idFor(syntheticKey("unknown")),
				Name: "Unknown",
				Size: unknown,
				Kind: UnknownSpace,
			})
		}
	}
	return children
}

func insertSorted(children []*Entry, e *Entry) []*Entry {
	i := sort.Search(len(children), func(i int) bool { return children[i].Size <= e.Size })
	children = append(children, nil)
	copy(children[i+1:], children[i:])
	children[i] = e
	return children
}

func syntheticKey(tag string) uint16 {
	var crc uint16
	for _, b := range []byte(tag) {
		crc = crc<<1 ^ uint16(b)
	}
	return crc | 0x8000
}

func (p *Projector) idFor(key uint16) int64 {
	if id, ok := p.ids[key]; ok {
		return id
	}
	p.nextID++
	p.ids[key] = p.nextID
	return p.nextID
}

// layoutLevel allocates rectangles for node's children (reserving a title
// strip if node is a directory), then recurses into each child that itself
// has children.
func (p *Projector) layoutLevel(node *Entry, includeUnknown, includeFree bool) {
	if len(node.Children) == 0 {
		return
	}

	inner := node.Area
	if node.Kind == Directory {
		strip := 1.5 * p.textHeight
		inner.Y += strip
		inner.H -= strip
		if inner.H < 0 {
			inner.H = 0
		}
	}

	kept := dropBelowMinArea(node.Children, inner)
	layoutRects(inner, kept)
	node.Children = kept

	for _, c := range node.Children {
		p.layoutLevel(c, includeUnknown, includeFree)
	}
}

// dropBelowMinArea removes children whose proportional share of rect would
// render below minPixelArea, smallest first, always keeping the two
// largest.
func dropBelowMinArea(children []*Entry, rect Rect) []*Entry {
	if len(children) <= 2 {
		return children
	}
	total := int64(0)
	for _, c := range children {
		total += c.Size
	}
	if total == 0 {
		return children
	}
	area := rect.area()

	kept := append([]*Entry{}, children...)
	for len(kept) > 2 {
		last := kept[len(kept)-1]
		share := (float64(last.Size) / float64(total)) * area
		if share >= minPixelArea {
			break
		}
		kept = kept[:len(kept)-1]
	}
	return kept
}

// layoutRects partitions nodes into two size-balanced bins, splits rect
// along its longer axis in proportion to each bin's sum, and recurses until
// every bin is a singleton.
func layoutRects(rect Rect, nodes []*Entry) {
	if len(nodes) == 0 {
		return
	}
	if len(nodes) == 1 {
		nodes[0].Area = clampToPixel(rect)
		return
	}

	bin1, bin2, sum1, sum2 := partition(nodes)
	r1, r2 := splitRect(rect, float64(sum1), float64(sum2))
	layoutRects(r1, bin1)
	layoutRects(r2, bin2)
}

// partition greedily balances nodes (assumed sorted largest-first) into two
// bins, moving the next-largest remaining node into bin1 only while doing
// so reduces the imbalance.
func partition(nodes []*Entry) (bin1, bin2 []*Entry, sum1, sum2 int64) {
	bin1 = []*Entry{nodes[0]}
	sum1 = nodes[0].Size
	for _, n := range nodes[1:] {
		sum2 += n.Size
	}

	idx := 1
	for idx < len(nodes) {
		n := nodes[idx]
		before := abs64(sum1 - sum2)
		after := abs64((sum1 + n.Size) - (sum2 - n.Size))
		if after >= before {
			break
		}
		sum1 += n.Size
		sum2 -= n.Size
		bin1 = append(bin1, n)
		idx++
	}
	bin2 = append(bin2, nodes[idx:]...)
	return bin1, bin2, sum1, sum2
}

func splitRect(rect Rect, sum1, sum2 float64) (r1, r2 Rect) {
	total := sum1 + sum2
	if total <= 0 {
		return rect, Rect{}
	}
	frac := sum1 / total

	if rect.W >= rect.H {
		w1 := rect.W * frac
		r1 = Rect{X: rect.X, Y: rect.Y, W: w1, H: rect.H}
		r2 = Rect{X: rect.X + w1, Y: rect.Y, W: rect.W - w1, H: rect.H}
	} else {
		h1 := rect.H * frac
		r1 = Rect{X: rect.X, Y: rect.Y, W: rect.W, H: h1}
		r2 = Rect{X: rect.X, Y: rect.Y + h1, W: rect.W, H: rect.H - h1}
	}
	return clampToPixel(r1), clampToPixel(r2)
}

func clampToPixel(r Rect) Rect {
	if r.W < 1 || r.H < 1 {
		return Rect{}
	}
	return r
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ProcessEntry invokes visit with the current root snapshot, if any.
func (p *Projector) ProcessEntry(visit func(*Entry)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.root == nil {
		return false
	}
	visit(p.root)
	return true
}

// HoveredView returns the deepest cell whose draw area contains (x, y).
func (p *Projector) HoveredView(x, y float64) *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.root == nil {
		return nil
	}
	return deepestContaining(p.root, x, y)
}

func deepestContaining(node *Entry, x, y float64) *Entry {
	if !node.Area.contains(x, y) {
		return nil
	}
	for _, c := range node.Children {
		if hit := deepestContaining(c, x, y); hit != nil {
			return hit
		}
	}
	return node
}

// ClosestView descends from the root, matching successive path parts
// against child names up to maxDepth, skipping cells too small to have a
// draw area, and returns the deepest matched ancestor.
func (p *Projector) ClosestView(path *pathkey.Path, maxDepth int) *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.root == nil {
		return nil
	}

	parts := path.Parts()
	node := p.root
	best := node
	for depth := 1; depth < len(parts) && depth <= maxDepth; depth++ {
		name := pathkey.TrimSeparator(parts[depth])
		var next *Entry
		for _, c := range node.Children {
			if c.Name == name && c.Area.area() > 0 {
				next = c
				break
			}
		}
		if next == nil {
			break
		}
		node = next
		best = node
	}
	return best
}

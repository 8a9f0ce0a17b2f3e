package geo

import (
	"sync"

	"github.com/dhconnelly/rtreego"
)

// minExtent keeps degenerate (single point) rectangles valid for rtreego.
const minExtent = 1e-6

// indexedCandidate wraps a DetourCandidate to satisfy rtreego.Spatial.
type indexedCandidate struct {
	candidate DetourCandidate
	bounds    rtreego.Rect
}

func (c *indexedCandidate) Bounds() rtreego.Rect {
	return c.bounds
}

// Index is an R-tree of candidate paths keyed by their bounding boxes.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	size int
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)}
}

// Insert adds a candidate. Candidates with invalid coordinates are skipped.
func (idx *Index) Insert(c DetourCandidate) bool {
	path := c.Path()
	for _, p := range path {
		if !p.Valid() {
			return false
		}
	}

	sw, ne := pathBounds(path)
	rect, err := toRect(sw, ne)
	if err != nil {
		return false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.Insert(&indexedCandidate{candidate: c, bounds: rect})
	idx.size++
	return true
}

// Len returns the number of indexed candidates.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}

// Near returns candidates whose bounding box intersects the box of radiusKm
// around p. A box crossing the antimeridian is searched as two halves.
func (idx *Index) Near(p Point, radiusKm float64) []DetourCandidate {
	sw, ne := BoundingBox(p, radiusKm)
	boxes := [][2]Point{{sw, ne}}
	if sw.Lng > ne.Lng {
		boxes = [][2]Point{
			{sw, Point{Lat: ne.Lat, Lng: 180}},
			{Point{Lat: sw.Lat, Lng: -180}, ne},
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[*indexedCandidate]bool)
	var result []DetourCandidate
	for _, box := range boxes {
		rect, err := toRect(box[0], box[1])
		if err != nil {
			continue
		}
		for _, h := range idx.tree.SearchIntersect(rect) {
			c := h.(*indexedCandidate)
			if seen[c] {
				continue
			}
			seen[c] = true
			result = append(result, c.candidate)
		}
	}
	return result
}

func toRect(sw, ne Point) (rtreego.Rect, error) {
	lengths := []float64{
		max(ne.Lat-sw.Lat, minExtent),
		max(ne.Lng-sw.Lng, minExtent),
	}
	return rtreego.NewRect(rtreego.Point{sw.Lat, sw.Lng}, lengths)
}

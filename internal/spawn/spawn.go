// Package spawn resolves sighting positions to a tracker's known spawn points.
package spawn

import (
	"github.com/scout-helper/tracker/internal/geo"
	"github.com/scout-helper/tracker/pkg/core"
)

// Point is a spawn location a tracker can address.
// Label is the Siren glyph or the Turtle point id rendered as a string.
type Point struct {
	Label string
	ID    uint
	Pos   core.Position
}

// Catalog maps a territory id to its spawn points in data-file order.
type Catalog map[uint][]Point

// Nearest returns the point of territoryID closest to pos. Ties go to the
// point listed first. No distance cutoff is applied.
func (c Catalog) Nearest(territoryID uint, pos core.Position) (Point, bool) {
	return Nearest(c[territoryID], pos)
}

// Has reports whether the catalog knows the territory.
func (c Catalog) Has(territoryID uint) bool {
	_, ok := c[territoryID]
	return ok
}

// Nearest returns the point minimizing squared distance to pos.
func Nearest(points []Point, pos core.Position) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	best := points[0]
	bestDist := geo.DistanceSquared(best.Pos, pos)
	for _, p := range points[1:] {
		if d := geo.DistanceSquared(p.Pos, pos); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, true
}

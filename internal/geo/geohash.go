package geo

import (
	"slices"

	"github.com/mmcloughlin/geohash"
)

// PlaceGeohashPrecision is the precision stored alongside saved places.
const PlaceGeohashPrecision = 9

// neighbourOffsets lists the N, NE, E, SE, S, SW, W and NW steps in cells.
var neighbourOffsets = [8][2]float64{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Geohash encodes p with the given number of characters.
func Geohash(p Point, precision uint) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, precision)
}

// GeohashNeighbors returns the cells surrounding hash. Longitudes wrap across
// the antimeridian and cells beyond a pole are left out.
func GeohashNeighbors(hash string) []string {
	box := geohash.BoundingBox(hash)
	lat, lng := box.Center()
	height := box.MaxLat - box.MinLat
	width := box.MaxLng - box.MinLng
	precision := uint(len(hash))

	neighbours := make([]string, 0, len(neighbourOffsets))
	for _, off := range neighbourOffsets {
		nLat := lat + off[0]*height
		if nLat > 90 || nLat < -90 {
			continue
		}
		n := geohash.EncodeWithPrecision(nLat, wrapLng(lng+off[1]*width), precision)
		if n != hash && !slices.Contains(neighbours, n) {
			neighbours = append(neighbours, n)
		}
	}
	return neighbours
}

// PrecisionForRadius returns the finest precision at which the cell holding
// p and its neighbours contain every point within radiusKm of p. Cells
// narrow with latitude, so the answer depends on p. It returns 0, meaning
// no prefix narrows the search, when the circle reaches a pole or no
// precision is coarse enough.
func PrecisionForRadius(p Point, radiusKm float64) uint {
	dLat, dLng := angularSpan(p, radiusKm)
	if dLng >= 180 {
		return 0
	}

	for precision := uint(PlaceGeohashPrecision); precision >= 1; precision-- {
		box := geohash.BoundingBox(Geohash(p, precision))
		height := box.MaxLat - box.MinLat
		width := box.MaxLng - box.MinLng
		if box.MinLat-height <= p.Lat-dLat && p.Lat+dLat <= box.MaxLat+height &&
			box.MinLng-width <= p.Lng-dLng && p.Lng+dLng <= box.MaxLng+width {
			return precision
		}
	}
	return 0
}

// CoveringCells returns geohash prefixes that together contain every point
// within radiusKm of p: the cell holding p first, then its neighbours.
func CoveringCells(p Point, radiusKm float64) []string {
	precision := PrecisionForRadius(p, radiusKm)
	if precision == 0 {
		return []string{""}
	}
	hash := Geohash(p, precision)
	return append([]string{hash}, GeohashNeighbors(hash)...)
}

// Package geo holds the trip geometry used by the API: ground distances,
// stop sequencing, detour costs, travel estimates and spatial lookups.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h slightly past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// PathLength returns the summed Haversine length of consecutive legs.
func PathLength(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}

// BoundingBox returns the south-west and north-east corners of a box that
// contains every point within radiusKm of center. Longitudes stay within
// [-180, 180], so a box crossing the antimeridian has sw.Lng > ne.Lng. A
// circle reaching a pole spans every longitude.
func BoundingBox(center Point, radiusKm float64) (Point, Point) {
	dLat, dLng := angularSpan(center, radiusKm)

	sw := Point{Lat: math.Max(-90, center.Lat-dLat), Lng: -180}
	ne := Point{Lat: math.Min(90, center.Lat+dLat), Lng: 180}
	if dLng < 180 {
		sw.Lng = wrapLng(center.Lng - dLng)
		ne.Lng = wrapLng(center.Lng + dLng)
	}
	return sw, ne
}

// angularSpan returns the half extents in degrees of the circle of radiusKm
// around center. dLng is 180 when the circle reaches a pole.
func angularSpan(center Point, radiusKm float64) (dLat, dLng float64) {
	angular := radiusKm / EarthRadiusKm
	dLat = angular * 180 / math.Pi
	if center.Lat+dLat >= 90 || center.Lat-dLat <= -90 {
		return dLat, 180
	}

	s := math.Sin(angular) / math.Cos(toRadians(center.Lat))
	if s >= 1 {
		return dLat, 180
	}
	return dLat, math.Asin(s) * 180 / math.Pi
}

// pathBounds returns the smallest box containing all points. Longitudes are
// not wrapped: a path crossing the antimeridian gets a box spanning every
// longitude in between, which over-matches but never misses.
func pathBounds(points []Point) (Point, Point) {
	sw, ne := points[0], points[0]
	for _, p := range points[1:] {
		sw.Lat = math.Min(sw.Lat, p.Lat)
		sw.Lng = math.Min(sw.Lng, p.Lng)
		ne.Lat = math.Max(ne.Lat, p.Lat)
		ne.Lng = math.Max(ne.Lng, p.Lng)
	}
	return sw, ne
}

func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

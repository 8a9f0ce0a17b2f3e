package geo

import "time"

// DefaultSpeedKmh is used when an Estimator has no speed configured.
const DefaultSpeedKmh = 40.0

// Estimate is a distance/duration pair for a path.
type Estimate struct {
	DistanceKm float64       `json:"distance_km"`
	Duration   time.Duration `json:"-"`
}

// Minutes returns the duration in minutes.
func (e Estimate) Minutes() float64 {
	return e.Duration.Minutes()
}

// Estimator derives travel estimates from ground distance and a constant
// average speed. No road network is consulted.
type Estimator struct {
	SpeedKmh float64
}

// NewEstimator creates an Estimator for the given average speed.
func NewEstimator(speedKmh float64) Estimator {
	return Estimator{SpeedKmh: speedKmh}
}

// Estimate returns the length of the path and the time to drive it.
func (e Estimator) Estimate(points []Point) Estimate {
	speed := e.SpeedKmh
	if speed <= 0 {
		speed = DefaultSpeedKmh
	}

	distance := PathLength(points)
	hours := distance / speed

	return Estimate{
		DistanceKm: distance,
		Duration:   time.Duration(hours * float64(time.Hour)).Round(time.Second),
	}
}

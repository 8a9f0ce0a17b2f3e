package domain

import (
	"time"

	"rideshare/internal/geo"
)

// DriverLocation is the latest position reported by a driver.
type DriverLocation struct {
	DriverID  string    `json:"driver_id"`
	Point     geo.Point `json:"point"`
	Heading   float64   `json:"heading"`
	SpeedKmh  float64   `json:"speed_kmh"`
	UpdatedAt time.Time `json:"updated_at"`
}

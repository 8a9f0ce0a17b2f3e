package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/geo"
	"rideshare/internal/service"
)

// OptimizeHandler exposes the stateless geometry operations.
type OptimizeHandler struct {
	estimator geo.Estimator
}

// NewOptimizeHandler creates a new OptimizeHandler.
func NewOptimizeHandler(estimator geo.Estimator) *OptimizeHandler {
	return &OptimizeHandler{estimator: estimator}
}

// OrderStopsRequest is the HTTP request body for stop ordering.
type OrderStopsRequest struct {
	Start      geo.Point       `json:"start"`
	End        geo.Point       `json:"end"`
	Waypoints  []geo.Point     `json:"waypoints,omitempty"`
	Passengers []geo.Passenger `json:"passengers,omitempty"`
}

// OrderStopsResponse is the ordered sequence with its estimate.
type OrderStopsResponse struct {
	Stops           []geo.Stop  `json:"stops"`
	Polyline        []geo.Point `json:"polyline"`
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes float64     `json:"duration_minutes"`
}

// RankDetoursRequest is the HTTP request body for detour ranking.
type RankDetoursRequest struct {
	Pickup      geo.Point             `json:"pickup"`
	Dropoff     geo.Point             `json:"dropoff"`
	Candidates  []geo.DetourCandidate `json:"candidates"`
	MaxDetourKm float64               `json:"max_detour_km,omitempty"`
}

// OrderStops handles POST /v1/optimize/order
func (h *OptimizeHandler) OrderStops(c *gin.Context) {
	var req OrderStopsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	points := []geo.Point{req.Start, req.End}
	points = append(points, req.Waypoints...)
	for _, p := range req.Passengers {
		points = append(points, p.Pickup, p.Dropoff)
	}
	if !allValid(points) {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	stops := geo.OrderStops(req.Start, req.End, req.Waypoints, req.Passengers)
	polyline := geo.Polyline(stops)
	estimate := h.estimator.Estimate(polyline)

	respondJSON(c, http.StatusOK, OrderStopsResponse{
		Stops:           stops,
		Polyline:        polyline,
		DistanceKm:      estimate.DistanceKm,
		DurationMinutes: estimate.Minutes(),
	})
}

// RankDetours handles POST /v1/optimize/detours
func (h *OptimizeHandler) RankDetours(c *gin.Context) {
	var req RankDetoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		respondError(c, service.ErrInvalidLocation)
		return
	}
	for _, cand := range req.Candidates {
		if !allValid(cand.Path()) {
			respondError(c, service.ErrInvalidLocation)
			return
		}
	}

	respondJSON(c, http.StatusOK, geo.RankByDetour(req.Candidates, req.Pickup, req.Dropoff, req.MaxDetourKm))
}

func allValid(points []geo.Point) bool {
	for _, p := range points {
		if !p.Valid() {
			return false
		}
	}
	return true
}

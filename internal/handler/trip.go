package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/middleware"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService    *service.TripService
	requestService *service.RequestService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, requestService *service.RequestService) *TripHandler {
	return &TripHandler{
		tripService:    tripService,
		requestService: requestService,
	}
}

// CreateTripRequest is the HTTP request body for scheduling a trip.
type CreateTripRequest struct {
	RouteID string `json:"route_id"`
	Date    string `json:"date"` // YYYY-MM-DD
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID         string      `json:"trip_id"`
	RouteID        string      `json:"route_id"`
	DriverID       string      `json:"driver_id"`
	Date           string      `json:"date"`
	Start          geo.Point   `json:"start"`
	End            geo.Point   `json:"end"`
	Waypoints      []geo.Point `json:"waypoints"`
	DepartureTime  string      `json:"departure_time"`
	Price          float64     `json:"price"`
	SeatsTotal     int         `json:"seats_total"`
	SeatsAvailable int         `json:"seats_available"`
	Status         string      `json:"status"`
	StartedAt      string      `json:"started_at,omitempty"`
	EndedAt        string      `json:"ended_at,omitempty"`
	CreatedAt      string      `json:"created_at"`
}

func toTripResponse(t *domain.Trip) TripResponse {
	waypoints := t.Waypoints
	if waypoints == nil {
		waypoints = []geo.Point{}
	}

	return TripResponse{
		TripID:         t.ID,
		RouteID:        t.RouteID,
		DriverID:       t.DriverID,
		Date:           t.Date.Format(domain.DateLayout),
		Start:          t.Start,
		End:            t.End,
		Waypoints:      waypoints,
		DepartureTime:  t.DepartureTime,
		Price:          t.Price,
		SeatsTotal:     t.SeatsTotal,
		SeatsAvailable: t.SeatsAvailable,
		Status:         string(t.Status),
		StartedAt:      formatTime(t.StartedAt),
		EndedAt:        formatTime(t.EndedAt),
		CreatedAt:      formatTime(t.CreatedAt),
	}
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, service.ErrInvalidDate
	}
	return d, nil
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), service.CreateTripRequest{
		RouteID:  req.RouteID,
		DriverID: middleware.UserID(c),
		Date:     date,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips?driver_id=&status=&date=
func (h *TripHandler) GetAll(c *gin.Context) {
	filter := repository.TripFilter{
		DriverID: c.Query("driver_id"),
		Status:   domain.TripStatus(c.Query("status")),
	}

	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Date = &date
	}

	trips, err := h.tripService.ListTrips(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		response = append(response, toTripResponse(t))
	}

	respondJSON(c, http.StatusOK, response)
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	h.transition(c, h.tripService.StartTrip)
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	h.transition(c, h.tripService.CompleteTrip)
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	h.transition(c, h.tripService.CancelTrip)
}

func (h *TripHandler) transition(c *gin.Context, fn func(ctx context.Context, tripID, callerID string) (*domain.Trip, error)) {
	trip, err := fn(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetItinerary handles GET /v1/trips/:id/itinerary
func (h *TripHandler) GetItinerary(c *gin.Context) {
	itinerary, err := h.tripService.GetItinerary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, itinerary)
}

// GetRequests handles GET /v1/trips/:id/requests?status=
func (h *TripHandler) GetRequests(c *gin.Context) {
	requests, err := h.requestService.ListTripRequests(
		c.Request.Context(),
		c.Param("id"),
		middleware.UserID(c),
		domain.RequestStatus(c.Query("status")),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponses(requests))
}

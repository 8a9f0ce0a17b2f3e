package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// RequestHandler handles trip search and client seat requests.
type RequestHandler struct {
	matchingService *service.MatchingService
	requestService  *service.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(matchingService *service.MatchingService, requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{
		matchingService: matchingService,
		requestService:  requestService,
	}
}

// SearchTripsRequest is the HTTP request body for a trip search.
type SearchTripsRequest struct {
	Pickup      geo.Point `json:"pickup"`
	Dropoff     geo.Point `json:"dropoff"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Seats       int       `json:"seats,omitempty"`
	MaxDetourKm float64   `json:"max_detour_km,omitempty"`
}

// TripMatchResponse is one search result.
type TripMatchResponse struct {
	TripID          string           `json:"trip_id"`
	DriverID        string           `json:"driver_id"`
	DepartureTime   string           `json:"departure_time"`
	PricePerSeat    float64          `json:"price_per_seat"`
	SeatsAvailable  int              `json:"seats_available"`
	DetourKm        float64          `json:"detour_km"`
	RideEstimate    EstimateResponse `json:"ride_estimate"`
	DriverRating    float64          `json:"driver_rating"`
	DriverRatingCnt int              `json:"driver_rating_count"`
}

// CreateClientRequest is the HTTP request body for requesting seats.
type CreateClientRequest struct {
	TripID       string    `json:"trip_id"`
	Pickup       geo.Point `json:"pickup"`
	Dropoff      geo.Point `json:"dropoff"`
	PickupLabel  string    `json:"pickup_label,omitempty"`
	DropoffLabel string    `json:"dropoff_label,omitempty"`
	Seats        int       `json:"seats"`
}

// ClientRequestResponse is the HTTP response for seat requests.
type ClientRequestResponse struct {
	ID           string    `json:"id"`
	TripID       string    `json:"trip_id"`
	ClientID     string    `json:"client_id"`
	Pickup       geo.Point `json:"pickup"`
	Dropoff      geo.Point `json:"dropoff"`
	PickupLabel  string    `json:"pickup_label,omitempty"`
	DropoffLabel string    `json:"dropoff_label,omitempty"`
	Seats        int       `json:"seats"`
	Status       string    `json:"status"`
	DetourKm     float64   `json:"detour_km"`
	Price        float64   `json:"price"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at,omitempty"`
}

func toRequestResponse(r *domain.ClientRequest) ClientRequestResponse {
	return ClientRequestResponse{
		ID:           r.ID,
		TripID:       r.TripID,
		ClientID:     r.ClientID,
		Pickup:       r.Pickup,
		Dropoff:      r.Dropoff,
		PickupLabel:  r.PickupLabel,
		DropoffLabel: r.DropoffLabel,
		Seats:        r.Seats,
		Status:       string(r.Status),
		DetourKm:     r.DetourKm,
		Price:        r.Price,
		CreatedAt:    formatTime(r.CreatedAt),
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
}

func toRequestResponses(requests []*domain.ClientRequest) []ClientRequestResponse {
	response := make([]ClientRequestResponse, 0, len(requests))
	for _, r := range requests {
		response = append(response, toRequestResponse(r))
	}
	return response
}

// Search handles POST /v1/matches/search
func (h *RequestHandler) Search(c *gin.Context) {
	var req SearchTripsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	matches, err := h.matchingService.Search(c.Request.Context(), service.SearchRequest{
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		Date:        date,
		Seats:       req.Seats,
		MaxDetourKm: req.MaxDetourKm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripMatchResponse, 0, len(matches))
	for _, m := range matches {
		response = append(response, TripMatchResponse{
			TripID:          m.Trip.ID,
			DriverID:        m.Trip.DriverID,
			DepartureTime:   m.Trip.DepartureTime,
			PricePerSeat:    m.Trip.Price,
			SeatsAvailable:  m.Trip.SeatsAvailable,
			DetourKm:        m.DetourKm,
			RideEstimate:    toEstimateResponse(m.RideEstimate),
			DriverRating:    m.DriverRating.Average,
			DriverRatingCnt: m.DriverRating.Count,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// CreateRequest handles POST /v1/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.requestService.CreateRequest(c.Request.Context(), service.CreateClientRequest{
		TripID:       req.TripID,
		ClientID:     middleware.UserID(c),
		Pickup:       req.Pickup,
		Dropoff:      req.Dropoff,
		PickupLabel:  req.PickupLabel,
		DropoffLabel: req.DropoffLabel,
		Seats:        req.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRequestResponse(created))
}

// GetMine handles GET /v1/requests?status=
func (h *RequestHandler) GetMine(c *gin.Context) {
	requests, err := h.requestService.ListClientRequests(
		c.Request.Context(),
		middleware.UserID(c),
		domain.RequestStatus(c.Query("status")),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponses(requests))
}

// AcceptRequest handles POST /v1/requests/:id/accept
func (h *RequestHandler) AcceptRequest(c *gin.Context) {
	h.decide(c, h.requestService.AcceptRequest)
}

// RejectRequest handles POST /v1/requests/:id/reject
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	h.decide(c, h.requestService.RejectRequest)
}

// CancelRequest handles POST /v1/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	h.decide(c, h.requestService.CancelRequest)
}

func (h *RequestHandler) decide(c *gin.Context, fn func(ctx context.Context, requestID, callerID string) (*domain.ClientRequest, error)) {
	updated, err := fn(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponse(updated))
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

const defaultNearbyRadiusKm = 1.0

// PlaceHandler handles saved places and reverse geocoding.
type PlaceHandler struct {
	placeService *service.PlaceService
}

// NewPlaceHandler creates a new PlaceHandler.
func NewPlaceHandler(placeService *service.PlaceService) *PlaceHandler {
	return &PlaceHandler{placeService: placeService}
}

// CreatePlaceRequest is the HTTP request body for saving a place.
type CreatePlaceRequest struct {
	Label   string    `json:"label,omitempty"`
	Address string    `json:"address,omitempty"`
	Point   geo.Point `json:"point"`
}

// PlaceResponse is the HTTP response for saved places.
type PlaceResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Label      string    `json:"label"`
	Address    string    `json:"address,omitempty"`
	Point      geo.Point `json:"point"`
	Geohash    string    `json:"geohash"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
	CreatedAt  string    `json:"created_at"`
}

func toPlaceResponse(p *domain.SavedPlace) PlaceResponse {
	return PlaceResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Label:     p.Label,
		Address:   p.Address,
		Point:     p.Point,
		Geohash:   p.Geohash,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

// CreatePlace handles POST /v1/places
func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	var req CreatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	place, err := h.placeService.CreatePlace(c.Request.Context(), service.CreatePlaceRequest{
		UserID:  middleware.UserID(c),
		Label:   req.Label,
		Address: req.Address,
		Point:   req.Point,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPlaceResponse(place))
}

// GetMine handles GET /v1/places
func (h *PlaceHandler) GetMine(c *gin.Context) {
	places, err := h.placeService.ListPlaces(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PlaceResponse, 0, len(places))
	for _, p := range places {
		response = append(response, toPlaceResponse(p))
	}

	respondJSON(c, http.StatusOK, response)
}

// Nearby handles GET /v1/places/nearby?lat=&lng=&radius_km=
func (h *PlaceHandler) Nearby(c *gin.Context) {
	p, ok := queryPoint(c)
	if !ok {
		respondBadRequest(c, "lat and lng are required")
		return
	}
	radius, ok := queryFloat(c, "radius_km", defaultNearbyRadiusKm)
	if !ok {
		respondBadRequest(c, "invalid radius_km")
		return
	}

	places, err := h.placeService.NearbyPlaces(c.Request.Context(), middleware.UserID(c), p, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PlaceResponse, 0, len(places))
	for _, pd := range places {
		r := toPlaceResponse(pd.Place)
		d := pd.DistanceKm
		r.DistanceKm = &d
		response = append(response, r)
	}

	respondJSON(c, http.StatusOK, response)
}

// DeletePlace handles DELETE /v1/places/:id
func (h *PlaceHandler) DeletePlace(c *gin.Context) {
	if err := h.placeService.DeletePlace(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReverseGeocode handles GET /v1/geocode/reverse?lat=&lng=
func (h *PlaceHandler) ReverseGeocode(c *gin.Context) {
	p, ok := queryPoint(c)
	if !ok {
		respondBadRequest(c, "lat and lng are required")
		return
	}

	address, err := h.placeService.ReverseGeocode(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, address)
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/middleware"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// RouteHandler handles HTTP requests for recurring routes.
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// CreateRouteRequest is the HTTP request body for creating a route.
type CreateRouteRequest struct {
	Kind          string      `json:"kind"` // DRIVER, CLIENT
	Start         geo.Point   `json:"start"`
	End           geo.Point   `json:"end"`
	StartLabel    string      `json:"start_label,omitempty"`
	EndLabel      string      `json:"end_label,omitempty"`
	Waypoints     []geo.Point `json:"waypoints,omitempty"`
	Days          []int       `json:"days"` // 0 = Sunday ... 6 = Saturday
	DepartureTime string      `json:"departure_time"`
	Price         float64     `json:"price"`
	Seats         int         `json:"seats"`
}

// RouteResponse is the HTTP response for route data.
type RouteResponse struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"owner_id"`
	Kind          string      `json:"kind"`
	Start         geo.Point   `json:"start"`
	End           geo.Point   `json:"end"`
	StartLabel    string      `json:"start_label,omitempty"`
	EndLabel      string      `json:"end_label,omitempty"`
	Waypoints     []geo.Point `json:"waypoints"`
	Days          []int       `json:"days"`
	DepartureTime string      `json:"departure_time"`
	Price         float64     `json:"price"`
	Seats         int         `json:"seats"`
	Active        bool        `json:"active"`
	CreatedAt     string      `json:"created_at"`
}

// EstimateResponse is the HTTP response for a distance/duration estimate.
type EstimateResponse struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
}

func toRouteResponse(r *domain.Route) RouteResponse {
	days := make([]int, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, int(d))
	}
	waypoints := r.Waypoints
	if waypoints == nil {
		waypoints = []geo.Point{}
	}

	return RouteResponse{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Kind:          string(r.Kind),
		Start:         r.Start,
		End:           r.End,
		StartLabel:    r.StartLabel,
		EndLabel:      r.EndLabel,
		Waypoints:     waypoints,
		Days:          days,
		DepartureTime: r.DepartureTime,
		Price:         r.Price,
		Seats:         r.Seats,
		Active:        r.Active,
		CreatedAt:     formatTime(r.CreatedAt),
	}
}

func toEstimateResponse(e geo.Estimate) EstimateResponse {
	return EstimateResponse{
		DistanceKm:      e.DistanceKm,
		DurationMinutes: e.Minutes(),
	}
}

// CreateRoute handles POST /v1/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	days := make([]time.Weekday, 0, len(req.Days))
	for _, d := range req.Days {
		days = append(days, time.Weekday(d))
	}

	route, err := h.routeService.CreateRoute(c.Request.Context(), service.CreateRouteRequest{
		OwnerID:       middleware.UserID(c),
		Kind:          domain.RouteKind(req.Kind),
		Start:         req.Start,
		End:           req.End,
		StartLabel:    req.StartLabel,
		EndLabel:      req.EndLabel,
		Waypoints:     req.Waypoints,
		Days:          days,
		DepartureTime: req.DepartureTime,
		Price:         req.Price,
		Seats:         req.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRouteResponse(route))
}

// GetRoute handles GET /v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeService.GetRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// GetAll handles GET /v1/routes?owner_id=&kind=&active=&day=
func (h *RouteHandler) GetAll(c *gin.Context) {
	filter := repository.RouteFilter{
		OwnerID: c.Query("owner_id"),
		Kind:    domain.RouteKind(c.Query("kind")),
	}

	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "invalid active filter")
			return
		}
		filter.Active = &active
	}

	if raw := c.Query("day"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 || d > 6 {
			respondBadRequest(c, "invalid day filter")
			return
		}
		day := time.Weekday(d)
		filter.Day = &day
	}

	routes, err := h.routeService.ListRoutes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		response = append(response, toRouteResponse(r))
	}

	respondJSON(c, http.StatusOK, response)
}

// DeactivateRoute handles POST /v1/routes/:id/deactivate
func (h *RouteHandler) DeactivateRoute(c *gin.Context) {
	route, err := h.routeService.DeactivateRoute(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// EstimateRoute handles GET /v1/routes/:id/estimate
func (h *RouteHandler) EstimateRoute(c *gin.Context) {
	estimate, err := h.routeService.EstimateRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toEstimateResponse(estimate))
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/geo"
	"rideshare/internal/geocode"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondBadRequest sends a 400 with a fixed message.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, geocode.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrSamePoints),
		errors.Is(err, service.ErrInvalidRouteKind),
		errors.Is(err, service.ErrNoDaysSelected),
		errors.Is(err, service.ErrInvalidDay),
		errors.Is(err, service.ErrInvalidDepartureTime),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidSeats),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidScore):
		return http.StatusBadRequest

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrOwnTrip),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrSelfRating):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrPhoneTaken),
		errors.Is(err, service.ErrRouteInactive),
		errors.Is(err, service.ErrNotDriverRoute),
		errors.Is(err, service.ErrDayNotScheduled),
		errors.Is(err, service.ErrTripExists),
		errors.Is(err, service.ErrInvalidTripTransition),
		errors.Is(err, service.ErrTripNotScheduled),
		errors.Is(err, service.ErrNotEnoughSeats),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrTripBusy),
		errors.Is(err, service.ErrRequestNotPending),
		errors.Is(err, service.ErrRequestNotOpen),
		errors.Is(err, service.ErrPlaceLabelTaken),
		errors.Is(err, service.ErrTripNotCompleted),
		errors.Is(err, service.ErrAlreadyRated):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, geocode.ErrDisabled),
		errors.Is(err, geocode.ErrUnexpectedStatus),
		errors.Is(err, geocode.ErrInvalidResponse):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// formatTime renders t, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeFormat)
}

// queryPoint reads a point from the lat/lng query parameters.
func queryPoint(c *gin.Context) (geo.Point, bool) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lng: lng}, true
}

// queryFloat reads an optional float query parameter.
func queryFloat(c *gin.Context, key string, fallback float64) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

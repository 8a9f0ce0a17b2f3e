package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// RatingHandler handles HTTP requests for ratings.
type RatingHandler struct {
	ratingService *service.RatingService
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// CreateRatingRequest is the HTTP request body for rating a participant.
type CreateRatingRequest struct {
	TripID  string `json:"trip_id"`
	RateeID string `json:"ratee_id"`
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// RatingResponse is the HTTP response for a rating.
type RatingResponse struct {
	ID        string `json:"id"`
	TripID    string `json:"trip_id"`
	RaterID   string `json:"rater_id"`
	RateeID   string `json:"ratee_id"`
	Score     int    `json:"score"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toRatingResponse(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		TripID:    r.TripID,
		RaterID:   r.RaterID,
		RateeID:   r.RateeID,
		Score:     r.Score,
		Comment:   r.Comment,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

// CreateRating handles POST /v1/ratings
func (h *RatingHandler) CreateRating(c *gin.Context) {
	var req CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	rating, err := h.ratingService.CreateRating(c.Request.Context(), service.CreateRatingRequest{
		TripID:  req.TripID,
		RaterID: middleware.UserID(c),
		RateeID: req.RateeID,
		Score:   req.Score,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRatingResponse(rating))
}

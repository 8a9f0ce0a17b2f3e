package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userService   *service.UserService
	ratingService *service.RatingService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, ratingService *service.RatingService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		ratingService: ratingService,
	}
}

// RegisterRequest is the HTTP request body for user registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role,omitempty"` // DRIVER, PASSENGER, ADMIN
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UserRatingsResponse is the HTTP response for a user's ratings.
type UserRatingsResponse struct {
	UserID  string           `json:"user_id"`
	Count   int              `json:"count"`
	Average float64          `json:"average"`
	Ratings []RatingResponse `json:"ratings"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: formatTime(u.CreatedAt),
	}
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterUserRequest{
		Name:  req.Name,
		Phone: req.Phone,
		Role:  domain.Role(req.Role),
	})
	if errors.Is(err, service.ErrPhoneTaken) && user != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "User already registered",
			"user":    toUserResponse(user),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUserResponse(user))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}

// GetAll handles GET /v1/users
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetRatings handles GET /v1/users/:id/ratings
func (h *UserHandler) GetRatings(c *gin.Context) {
	summary, ratings, err := h.ratingService.UserRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := UserRatingsResponse{
		UserID:  summary.UserID,
		Count:   summary.Count,
		Average: summary.Average,
		Ratings: make([]RatingResponse, 0, len(ratings)),
	}
	for _, r := range ratings {
		response.Ratings = append(response.Ratings, toRatingResponse(r))
	}

	respondJSON(c, http.StatusOK, response)
}

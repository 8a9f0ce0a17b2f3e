package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RatingService handles ratings between trip participants.
type RatingService struct {
	ratingRepo  repository.RatingRepository
	tripRepo    repository.TripRepository
	requestRepo repository.RequestRepository
	log         *zap.Logger
}

// NewRatingService creates a new RatingService.
func NewRatingService(
	ratingRepo repository.RatingRepository,
	tripRepo repository.TripRepository,
	requestRepo repository.RequestRepository,
	log *zap.Logger,
) *RatingService {
	return &RatingService{
		ratingRepo:  ratingRepo,
		tripRepo:    tripRepo,
		requestRepo: requestRepo,
		log:         log.Named("rating"),
	}
}

// CreateRatingRequest contains the parameters for rating a participant.
type CreateRatingRequest struct {
	TripID  string
	RaterID string
	RateeID string
	Score   int
	Comment string
}

// CreateRating stores one participant's rating of another on a completed trip.
func (s *RatingService) CreateRating(ctx context.Context, req CreateRatingRequest) (*domain.Rating, error) {
	if req.RaterID == "" || req.RateeID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Score < domain.MinRatingScore || req.Score > domain.MaxRatingScore {
		return nil, ErrInvalidScore
	}
	if req.RaterID == req.RateeID {
		return nil, ErrSelfRating
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrTripNotCompleted
	}

	participants, err := s.participants(ctx, trip)
	if err != nil {
		return nil, err
	}
	if !participants[req.RaterID] || !participants[req.RateeID] {
		return nil, ErrNotParticipant
	}

	rating := &domain.Rating{
		ID:        uuid.New().String(),
		TripID:    trip.ID,
		RaterID:   req.RaterID,
		RateeID:   req.RateeID,
		Score:     req.Score,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	s.log.Info("rating created",
		zap.String("trip_id", trip.ID),
		zap.String("ratee_id", rating.RateeID),
		zap.Int("score", rating.Score),
	)
	return rating, nil
}

// UserRatings returns the summary and latest ratings a user received.
func (s *RatingService) UserRatings(ctx context.Context, userID string) (*domain.RatingSummary, []*domain.Rating, error) {
	if userID == "" {
		return nil, nil, ErrInvalidUserID
	}

	summary, err := s.ratingRepo.Summary(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ratings, err := s.ratingRepo.ListByRatee(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return summary, ratings, nil
}

// participants returns the driver and every accepted client of the trip.
func (s *RatingService) participants(ctx context.Context, trip *domain.Trip) (map[string]bool, error) {
	accepted, err := s.requestRepo.List(ctx, repository.RequestFilter{
		TripID:   trip.ID,
		Statuses: []domain.RequestStatus{domain.RequestStatusAccepted},
	})
	if err != nil {
		return nil, err
	}

	ids := map[string]bool{trip.DriverID: true}
	for _, r := range accepted {
		ids[r.ClientID] = true
	}
	return ids, nil
}

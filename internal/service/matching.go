package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/repository"
)

const (
	defaultSearchRadiusKm = 10.0
	maxSearchCandidates   = 500
	ratingLookupWorkers   = 8
)

// MatchingConfig holds the search tunables.
type MatchingConfig struct {
	SearchRadiusKm float64
	MaxDetourKm    float64
}

// MatchingService finds scheduled trips a passenger can join.
type MatchingService struct {
	tripRepo   repository.TripRepository
	ratingRepo repository.RatingRepository
	estimator  geo.Estimator
	cfg        MatchingConfig
	log        *zap.Logger
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	tripRepo repository.TripRepository,
	ratingRepo repository.RatingRepository,
	estimator geo.Estimator,
	cfg MatchingConfig,
	log *zap.Logger,
) *MatchingService {
	if cfg.SearchRadiusKm <= 0 {
		cfg.SearchRadiusKm = defaultSearchRadiusKm
	}
	return &MatchingService{
		tripRepo:   tripRepo,
		ratingRepo: ratingRepo,
		estimator:  estimator,
		cfg:        cfg,
		log:        log.Named("matching"),
	}
}

// SearchRequest contains the parameters of a trip search.
type SearchRequest struct {
	Pickup      geo.Point
	Dropoff     geo.Point
	Date        time.Time
	Seats       int
	MaxDetourKm float64 // Optional: 0 uses the configured limit
}

// TripMatch is one trip that can take the passenger.
type TripMatch struct {
	Trip         *domain.Trip
	DetourKm     float64
	RideEstimate geo.Estimate
	DriverRating domain.RatingSummary
}

// Search returns scheduled trips on the date with enough seats whose path
// passes near the pickup, cheapest detour first.
func (s *MatchingService) Search(ctx context.Context, req SearchRequest) ([]TripMatch, error) {
	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		return nil, ErrInvalidLocation
	}
	if req.Pickup == req.Dropoff {
		return nil, ErrSamePoints
	}
	if req.Date.IsZero() {
		return nil, ErrInvalidDate
	}
	seats := req.Seats
	if seats == 0 {
		seats = 1
	}
	if seats < 1 {
		return nil, ErrInvalidSeats
	}

	maxDetour := req.MaxDetourKm
	if maxDetour <= 0 {
		maxDetour = s.cfg.MaxDetourKm
	}

	date := domain.TruncateDate(req.Date)
	trips, err := s.tripRepo.List(ctx, repository.TripFilter{
		Status:   domain.TripStatusScheduled,
		Date:     &date,
		MinSeats: seats,
		Limit:    maxSearchCandidates,
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Trip, len(trips))
	index := geo.NewIndex()
	for _, t := range trips {
		byID[t.ID] = t
		index.Insert(geo.DetourCandidate{ID: t.ID, Start: t.Start, End: t.End, Waypoints: t.Waypoints})
	}

	near := index.Near(req.Pickup, s.cfg.SearchRadiusKm)
	ranked := geo.RankByDetour(near, req.Pickup, req.Dropoff, maxDetour)

	ride := s.estimator.Estimate([]geo.Point{req.Pickup, req.Dropoff})
	matches := make([]TripMatch, len(ranked))
	for i, r := range ranked {
		matches[i] = TripMatch{
			Trip:         byID[r.ID],
			DetourKm:     r.DetourKm,
			RideEstimate: ride,
		}
	}

	if err := s.loadDriverRatings(ctx, matches); err != nil {
		return nil, err
	}

	s.log.Debug("trip search",
		zap.Int("candidates", len(trips)),
		zap.Int("near", len(near)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// loadDriverRatings fills DriverRating of every match concurrently.
func (s *MatchingService) loadDriverRatings(ctx context.Context, matches []TripMatch) error {
	if s.ratingRepo == nil || len(matches) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ratingLookupWorkers)

	for i := range matches {
		i := i
		g.Go(func() error {
			summary, err := s.ratingRepo.Summary(ctx, matches[i].Trip.DriverID)
			if err != nil {
				return err
			}
			matches[i].DriverRating = *summary
			return nil
		})
	}

	return g.Wait()
}

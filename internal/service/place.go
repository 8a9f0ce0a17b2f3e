package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/geocode"
	"rideshare/internal/repository"
)

// ReverseGeocoder resolves a point to an address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, p geo.Point) (*geocode.Address, error)
}

// PlaceService handles users' saved places.
type PlaceService struct {
	placeRepo repository.PlaceRepository
	geocoder  ReverseGeocoder
	log       *zap.Logger
}

// NewPlaceService creates a new PlaceService. geocoder may be nil.
func NewPlaceService(placeRepo repository.PlaceRepository, geocoder ReverseGeocoder, log *zap.Logger) *PlaceService {
	return &PlaceService{
		placeRepo: placeRepo,
		geocoder:  geocoder,
		log:       log.Named("place"),
	}
}

// CreatePlaceRequest contains the parameters for saving a place.
type CreatePlaceRequest struct {
	UserID  string
	Label   string
	Address string
	Point   geo.Point
}

// PlaceDistance is a saved place with its distance from a query point.
type PlaceDistance struct {
	Place      *domain.SavedPlace
	DistanceKm float64
}

// CreatePlace saves a place. An empty address is filled by reverse
// geocoding when possible.
func (s *PlaceService) CreatePlace(ctx context.Context, req CreatePlaceRequest) (*domain.SavedPlace, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if !req.Point.Valid() {
		return nil, ErrInvalidLocation
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = domain.DefaultPlaceLabel
	}

	address := strings.TrimSpace(req.Address)
	if address == "" && s.geocoder != nil {
		resolved, err := s.geocoder.Reverse(ctx, req.Point)
		if err != nil {
			s.log.Warn("reverse geocoding failed", zap.Error(err))
		} else {
			address = resolved.DisplayName
		}
	}

	place := &domain.SavedPlace{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Label:     label,
		Address:   address,
		Point:     req.Point,
		Geohash:   geo.Geohash(req.Point, geo.PlaceGeohashPrecision),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.placeRepo.Create(ctx, place); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPlaceLabelTaken
		}
		return nil, err
	}

	s.log.Info("place saved", zap.String("place_id", place.ID), zap.String("user_id", place.UserID))
	return place, nil
}

// ListPlaces returns a user's saved places.
func (s *PlaceService) ListPlaces(ctx context.Context, userID string) ([]*domain.SavedPlace, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.placeRepo.ListByUser(ctx, userID)
}

// DeletePlace removes a place owned by the caller.
func (s *PlaceService) DeletePlace(ctx context.Context, placeID, callerID string) error {
	place, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		return err
	}
	if place.UserID != callerID {
		return ErrForbidden
	}
	return s.placeRepo.Delete(ctx, placeID)
}

// NearbyPlaces returns the user's places within radiusKm of p, closest first.
func (s *PlaceService) NearbyPlaces(ctx context.Context, userID string, p geo.Point, radiusKm float64) ([]PlaceDistance, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !p.Valid() {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		return nil, ErrInvalidRadius
	}

	candidates, err := s.placeRepo.ListByGeohashPrefixes(ctx, userID, geo.CoveringCells(p, radiusKm))
	if err != nil {
		return nil, err
	}

	result := make([]PlaceDistance, 0, len(candidates))
	for _, place := range candidates {
		d := geo.Haversine(p, place.Point)
		if d <= radiusKm {
			result = append(result, PlaceDistance{Place: place, DistanceKm: d})
		}
	}

	slices.SortFunc(result, func(a, b PlaceDistance) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})

	return result, nil
}

// ReverseGeocode resolves p to an address.
func (s *PlaceService) ReverseGeocode(ctx context.Context, p geo.Point) (*geocode.Address, error) {
	if !p.Valid() {
		return nil, ErrInvalidLocation
	}
	if s.geocoder == nil {
		return nil, geocode.ErrDisabled
	}
	return s.geocoder.Reverse(ctx, p)
}

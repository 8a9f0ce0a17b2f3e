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

// UserService handles user registration and lookup.
type UserService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		log:      log.Named("user"),
	}
}

// RegisterUserRequest contains the parameters for registering a user.
type RegisterUserRequest struct {
	Name  string
	Phone string
	Role  domain.Role
}

// Register creates a user. When the phone is already registered it returns
// the existing user together with ErrPhoneTaken.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*domain.User, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" {
		return nil, ErrInvalidName
	}
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	role := req.Role
	if role == "" {
		role = domain.RolePassenger
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	existing, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, ErrPhoneTaken
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidUserID
	}
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers retrieves all users.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetAll(ctx)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safaristay/internal/domain"
	"safaristay/internal/pkg/logger"
	"safaristay/internal/pkg/validator"
	"safaristay/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service contains the account and session logic.
type Service struct {
	users UserRepository
	jwt   tokenIssuer
	cost  int
	log   logrus.FieldLogger
}

func NewService(users UserRepository, jwt tokenIssuer, log logrus.FieldLogger) *Service {
	return &Service{
		users: users,
		jwt:   jwt,
		cost:  bcrypt.DefaultCost,
		log:   logger.OrDiscard(log).WithField("component", "auth"),
	}
}

// Signup creates a customer account and returns a session token for it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, fields)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        domain.NormalizeEmail(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Status:       domain.UserActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user_signed_up")
	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// AdminLogin is Login restricted to admin accounts. A customer account with
// valid credentials gets the same answer as a wrong password.
func (s *Service) AdminLogin(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		s.log.WithField("user_id", user.ID).Warn("admin_login_denied")
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*UserPublic, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := toPublic(user)
	return &out, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) authenticate(ctx context.Context, req LoginRequest) (*domain.User, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, fields)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.WithField("user_id", user.ID).Info("login_failed")
		return nil, ErrInvalidCredentials
	}
	if user.Status != domain.UserActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

func (s *Service) issue(user *domain.User) (*AuthResponse, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: toPublic(user), Token: token}, nil
}

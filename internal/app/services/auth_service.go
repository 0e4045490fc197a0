package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/app/models/dto"
	"github.com/yigit/coursepath/internal/app/repositories"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/auth"
	"github.com/yigit/coursepath/internal/pkg/validation"
)

// AuthService defines authentication and account operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
}

// authServiceImpl implements the AuthService interface
type authServiceImpl struct {
	userRepo       repositories.IUserRepository
	enrollmentRepo repositories.IEnrollmentRepository
	hasher         auth.PasswordHasher
	tokens         TokenIssuer
	logger         zerolog.Logger
	now            Clock
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	enrollmentRepo repositories.IEnrollmentRepository,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		hasher:         hasher,
		tokens:         tokens,
		logger:         logger,
		now:            utcNow,
	}
}

// Login verifies credentials and issues an access token.
// Unknown usernames and wrong passwords fail identically.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Debug().Str("username", username).Msg("Login attempt for unknown user")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Verify(user.Password, req.Password) {
		s.logger.Debug().Str("username", username).Msg("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		s.logger.Error().Err(err).Str("userID", user.ID).Msg("Failed to issue access token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().Str("userID", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return &dto.AuthResponse{
		Token:     token,
		Type:      dto.TokenTypeBearer,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(expiresAt.Sub(s.now()).Seconds()),
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
	}, nil
}

// Register creates a new account. Role defaults to STUDENT.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     models.RoleType(strings.ToUpper(strings.TrimSpace(req.Role))),
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}

	if err := validateRegistration(user, req.Password); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.UsernameExists(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if taken {
		return nil, apperrors.ErrUsernameTaken
	}

	taken, err = s.userRepo.EmailExists(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if taken {
		return nil, apperrors.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.ID = uuid.NewString()
	user.Password = hash
	user.CreatedAt = s.now()

	// The unique constraints still catch a concurrent registration
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("User registered")
	return dto.NewUserResponse(user), nil
}

// GetProfile returns the user with enrolled courses derived from the ledger
func (s *authServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	courseIDs, err := s.enrollmentRepo.CourseIDsByStudent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading enrolled courses: %w", err)
	}
	user.EnrolledCourses = courseIDs

	return dto.NewUserResponse(user), nil
}

func validateRegistration(user *models.User, password string) error {
	switch {
	case !validation.NewStringValidation(user.Username).
		WithMinLength(validation.UsernameMinLength).
		WithMaxLength(validation.UsernameMaxLength).
		WithPattern(validation.CompiledPatterns.Username).
		Validate():
		return apperrors.NewValidationError("username must be 3-50 letters, digits, dots, dashes or underscores")
	case len(password) < validation.PasswordMinLength || len(password) > validation.PasswordMaxLength:
		return apperrors.NewValidationError("password must be 6-100 characters")
	case !validation.NewStringValidation(user.Name).
		WithMinLength(validation.NameMinLength).
		WithMaxLength(validation.NameMaxLength).
		Validate():
		return apperrors.NewValidationError("name must be 3-100 characters")
	case !validation.NewStringValidation(user.Email).WithPattern(validation.CompiledPatterns.Email).Validate():
		return apperrors.NewValidationError("email must be a valid email address")
	case !user.Role.IsValid():
		return apperrors.NewValidationError("role must be ADMIN or STUDENT")
	}
	return nil
}

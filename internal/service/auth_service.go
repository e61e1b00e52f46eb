package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
)

const dashboardPath = "/dashboard"

// AuthService registers users, verifies credentials and manages bearer tokens.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	IssueToken(user models.User) (string, time.Time, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// AuthConfig carries token settings.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	HashCost   int
	Revocation repository.TokenRevocationStore
}

type authService struct {
	users      repository.UserRepository
	revocation repository.TokenRevocationStore
	validator  *validator.Validate
	secret     []byte
	ttl        time.Duration
	hashCost   int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService constructs the credential store service.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, cfg AuthConfig, logger zerolog.Logger) AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	revocation := cfg.Revocation
	if revocation == nil {
		revocation = repository.NewMemoryTokenStore()
	}

	return &authService{
		users:      users,
		revocation: revocation,
		validator:  validate,
		secret:     []byte(cfg.Secret),
		ttl:        ttl,
		hashCost:   cost,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = normalizeEmail(payload.Email)
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))

	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	role, ok := models.ParseRole(payload.Role)
	if !ok {
		return dto.UserResponse{}, validationError("role must be teacher or student")
	}

	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		return dto.UserResponse{}, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.hashCost)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrDuplicateEmail
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", role.String()).Msg("user registered")

	return dto.NewUserResponse(user), nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.Authenticate(ctx, payload.Email, payload.Password)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{
		Redirect:  dashboardPath,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *authService) IssueToken(user models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("token secret is not configured")
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": user.Role.String(),
		"jti":  uuid.NewString(),
		"iat":  issuedAt.Unix(),
		"exp":  expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, time.Unix(expiresAt.Unix(), 0).UTC(), nil
}

func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return nil
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.revocation.Revoke(ctx, tokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

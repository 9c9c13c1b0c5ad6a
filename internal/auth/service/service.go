// Package service implements authentication and user administration.
package service

import (
	"context"
	"errors"
	"time"

	"marketplace_admin_backend/internal/auth/password"
	"marketplace_admin_backend/internal/auth/repository"
	"marketplace_admin_backend/internal/auth/token"
	"marketplace_admin_backend/internal/auth/transport"
	"marketplace_admin_backend/internal/events"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"
	"marketplace_admin_backend/platform/validator"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// Service handles sign-in, token lifecycle, and user administration.
type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	bus  events.Bus
	log  *logger.Logger
	val  *validator.Validator
}

// New creates a new auth service.
func New(repo *repository.Repository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger, val *validator.Validator) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log, val: val}
}

// SignIn verifies credentials and issues a token pair. A successful
// sign-in publishes UserSignedIn, which the leads module consumes for
// login-sourced lead capture.
func (s *Service) SignIn(ctx context.Context, req transport.SignInRequest) (transport.TokenPairResponse, error) {
	if err := s.val.Struct(req); err != nil {
		return transport.TokenPairResponse{}, apperr.Validation("invalid credentials payload")
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		s.log.AuthEvent("sign_in", req.Email, false, "unknown user")
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid email or password")
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("sign_in", req.Email, false, "bad password")
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid email or password")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Storage("failed to issue tokens", err).WithOp("auth.SignIn")
	}

	s.log.AuthEvent("sign_in", user.Email, true, "")
	s.bus.Publish(ctx, events.UserSignedIn{
		BaseEvent:   events.NewBaseEvent(),
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Segment:     user.Segment,
	})

	return pair, nil
}

// Refresh rotates a refresh token and issues a new pair.
func (s *Service) Refresh(ctx context.Context, rawToken string) (transport.TokenPairResponse, error) {
	hash := token.HashSHA256(rawToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid refresh token")
	}

	if time.Now().After(expiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return transport.TokenPairResponse{}, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid refresh token")
	}

	_ = s.repo.RevokeRefreshToken(ctx, hash)

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Storage("failed to issue tokens", err).WithOp("auth.Refresh")
	}
	return pair, nil
}

// SignOut revokes the presented refresh token.
func (s *Service) SignOut(ctx context.Context, rawToken string) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(rawToken))
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.UserResponse{}, apperr.NotFound("user not found")
		}
		return transport.UserResponse{}, apperr.Storage("failed to load user", err).WithOp("auth.Me")
	}
	return transport.ToUserResponse(user), nil
}

// CreateUser provisions an account. Admin only (enforced by routing).
func (s *Service) CreateUser(ctx context.Context, req transport.CreateUserRequest) (transport.UserResponse, error) {
	if err := s.val.Struct(req); err != nil {
		return transport.UserResponse{}, apperr.Validation("invalid user").WithDetails(err.Error())
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.UserResponse{}, apperr.Internal("failed to hash password")
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{"viewer"}
	}

	user, err := s.repo.CreateUser(ctx, req.Email, hash, req.DisplayName, req.Segment, roles)
	if err != nil {
		return transport.UserResponse{}, apperr.Storage("failed to create user", err).WithOp("auth.CreateUser")
	}
	return transport.ToUserResponse(user), nil
}

// ListUsers returns all accounts. Admin only.
func (s *Service) ListUsers(ctx context.Context) ([]transport.UserResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Storage("failed to list users", err).WithOp("auth.ListUsers")
	}
	return transport.ToUserResponses(users), nil
}

// SetRoles replaces a user's role set and revokes their sessions so stale
// role claims cannot outlive the change.
func (s *Service) SetRoles(ctx context.Context, userID uuid.UUID, req transport.SetRolesRequest) (transport.UserResponse, error) {
	if err := s.val.Struct(req); err != nil {
		return transport.UserResponse{}, apperr.Validation("invalid roles").WithDetails(err.Error())
	}

	user, err := s.repo.SetUserRoles(ctx, userID, req.Roles)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.UserResponse{}, apperr.NotFound("user not found")
		}
		return transport.UserResponse{}, apperr.Storage("failed to set roles", err).WithOp("auth.SetRoles")
	}

	_ = s.repo.RevokeAllRefreshTokens(ctx, userID)
	return transport.ToUserResponse(user), nil
}

func (s *Service) issueTokens(ctx context.Context, user repository.User) (transport.TokenPairResponse, error) {
	accessToken, err := s.signJWT(user, s.cfg.GetAccessTokenTTL())
	if err != nil {
		return transport.TokenPairResponse{}, err
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return transport.TokenPairResponse{}, err
	}

	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, user.ID, token.HashSHA256(refreshToken), expiresAt); err != nil {
		return transport.TokenPairResponse{}, err
	}

	return transport.TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(user repository.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     user.ID.String(),
		"type":    accessTokenType,
		"roles":   user.Roles,
		"segment": user.Segment,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}

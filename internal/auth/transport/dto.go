// Package transport defines request/response DTOs for the auth module.
package transport

import (
	"time"

	"marketplace_admin_backend/internal/auth/repository"

	"github.com/google/uuid"
)

// SignInRequest carries the email+password credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries the opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPairResponse returns a new access/refresh token pair.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CreateUserRequest provisions a dashboard account (admin only).
type CreateUserRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	DisplayName string   `json:"displayName" validate:"required,max=200"`
	Segment     string   `json:"segment" validate:"required,oneof=internal partner customer"`
	Roles       []string `json:"roles" validate:"dive,oneof=admin operator viewer"`
}

// SetRolesRequest replaces a user's role set (admin only).
type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,dive,oneof=admin operator viewer"`
}

// UserResponse is the API shape of a user, without credentials.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Segment     string    `json:"segment"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToUserResponse maps a repository user to its API shape.
func ToUserResponse(user repository.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Segment:     user.Segment,
		Roles:       user.Roles,
		CreatedAt:   user.CreatedAt,
	}
}

// ToUserResponses maps a list of users.
func ToUserResponses(users []repository.User) []UserResponse {
	items := make([]UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, ToUserResponse(user))
	}
	return items
}

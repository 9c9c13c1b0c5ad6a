package adapters

import (
	"context"

	"marketplace_admin_backend/internal/auth/service"
	"marketplace_admin_backend/internal/notification"

	"github.com/google/uuid"
)

// UserDirectory adapts the auth service to the notification module's
// recipient lookup.
type UserDirectory struct {
	svc *service.Service
}

// NewUserDirectory creates the adapter.
func NewUserDirectory(svc *service.Service) *UserDirectory {
	return &UserDirectory{svc: svc}
}

var _ notification.UserDirectory = (*UserDirectory)(nil)

// GetUserEmail resolves a user id to their account email.
func (a *UserDirectory) GetUserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := a.svc.Me(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

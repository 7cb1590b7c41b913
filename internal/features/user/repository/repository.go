package repository

import (
	"context"
	"errors"

	"moments-backend/internal/features/user/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	// EnsureUser returns the user for wallet, creating it unverified.
	EnsureUser(ctx context.Context, wallet string) (*models.User, error)
	// SetVerified marks the user verified and records the provider's
	// identifier. It never clears verification.
	SetVerified(ctx context.Context, wallet, identityID string) (*models.User, error)
}

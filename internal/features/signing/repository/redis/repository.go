package redis

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"moments-backend/internal/common/cache"
	"moments-backend/internal/features/signing/models"
	"moments-backend/internal/features/signing/service"
)

const keyPrefixNonce = "signing_nonce:"

type Repository struct {
	cache *cache.CacheService
}

func NewRepository(c *cache.CacheService) *Repository {
	return &Repository{cache: c}
}

func nonceKey(momentID, wallet string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefixNonce, momentID, wallet)
}

func (r *Repository) Save(ctx context.Context, n *models.SigningNonce, ttl time.Duration) error {
	if err := r.cache.Set(ctx, nonceKey(n.MomentID, n.WalletAddress), n, ttl); err != nil {
		return fmt.Errorf("failed to save nonce: %w", err)
	}
	return nil
}

func (r *Repository) Take(ctx context.Context, momentID, wallet string) (*models.SigningNonce, error) {
	var n models.SigningNonce
	if err := r.cache.Take(ctx, nonceKey(momentID, wallet), &n); err != nil {
		if stderrors.Is(err, cache.ErrMiss) {
			return nil, service.ErrNonceNotFound
		}
		return nil, fmt.Errorf("failed to take nonce: %w", err)
	}
	return &n, nil
}

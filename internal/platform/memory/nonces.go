package memory

import (
	"context"
	"sync"
	"time"

	"moments-backend/internal/features/signing/models"
	"moments-backend/internal/features/signing/service"
)

// NonceStore keeps signing nonces in process memory. Expired entries are
// dropped when read.
type NonceStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]nonceEntry
}

type nonceEntry struct {
	nonce     models.SigningNonce
	expiresAt time.Time
}

var _ service.NonceStore = (*NonceStore)(nil)

func NewNonceStore() *NonceStore {
	return &NonceStore{now: time.Now, entries: map[string]nonceEntry{}}
}

func nonceKey(momentID, wallet string) string {
	return momentID + ":" + normalize(wallet)
}

func (s *NonceStore) Save(ctx context.Context, n *models.SigningNonce, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[nonceKey(n.MomentID, n.WalletAddress)] = nonceEntry{nonce: *n, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *NonceStore) Take(ctx context.Context, momentID, wallet string) (*models.SigningNonce, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nonceKey(momentID, wallet)
	e, ok := s.entries[key]
	if !ok {
		return nil, service.ErrNonceNotFound
	}
	delete(s.entries, key)
	if !s.now().Before(e.expiresAt) {
		return nil, service.ErrNonceNotFound
	}
	n := e.nonce
	return &n, nil
}

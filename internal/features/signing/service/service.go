package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"moments-backend/internal/common/errors"
	"moments-backend/internal/common/validation"
	momentmodels "moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/signing/models"
)

var ErrNonceNotFound = stderrors.New("signing nonce not found")

// NonceStore keeps issued nonces until they are consumed or expire.
type NonceStore interface {
	Save(ctx context.Context, n *models.SigningNonce, ttl time.Duration) error
	// Take returns and removes the nonce, or ErrNonceNotFound.
	Take(ctx context.Context, momentID, wallet string) (*models.SigningNonce, error)
}

// Service checks the shape of a signing payload and binds it to the
// participant's wallet. It does not verify the signature cryptographically.
type Service struct {
	store        NonceStore
	ttl          time.Duration
	requireNonce bool
	now          func() time.Time
}

func NewService(store NonceStore, ttl time.Duration, requireNonce bool) *Service {
	return &Service{
		store:        store,
		ttl:          ttl,
		requireNonce: requireNonce,
		now:          time.Now,
	}
}

func (s *Service) IssueNonce(ctx context.Context, momentID, wallet string) (*models.SigningNonce, error) {
	wallet, err := validation.NormalizeWallet("walletAddress", wallet)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	n := &models.SigningNonce{
		MomentID:      momentID,
		WalletAddress: wallet,
		Nonce:         uuid.New().String(),
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.ttl),
	}

	if err := s.store.Save(ctx, n, s.ttl); err != nil {
		return nil, errors.NewStoreUnavailableError("save signing nonce", err)
	}
	return n, nil
}

// Verify checks payload against the participant wallet. A nonce, when sent
// or required, must match the one issued for this moment and wallet, and is
// consumed either way.
func (s *Service) Verify(ctx context.Context, momentID, participantWallet string, payload momentmodels.SignaturePayload) error {
	if strings.TrimSpace(payload.Signature) == "" {
		return errors.NewInvalidSignatureError("signature is required")
	}
	if strings.TrimSpace(payload.Address) == "" {
		return errors.NewInvalidSignatureError("message address is required")
	}
	if !validation.SameWallet(payload.Address, participantWallet) {
		return errors.NewInvalidSignatureError("message address does not match participant wallet")
	}

	nonce := strings.TrimSpace(payload.Nonce)
	if nonce == "" && !s.requireNonce {
		return nil
	}
	if nonce == "" {
		return errors.NewInvalidSignatureError("nonce is required")
	}

	issued, err := s.store.Take(ctx, momentID, strings.ToLower(strings.TrimSpace(participantWallet)))
	if err != nil {
		if stderrors.Is(err, ErrNonceNotFound) {
			return errors.NewInvalidSignatureError("nonce expired or was not issued")
		}
		return errors.NewStoreUnavailableError("take signing nonce", err)
	}
	if issued.Nonce != nonce {
		return errors.NewInvalidSignatureError("nonce mismatch")
	}
	return nil
}

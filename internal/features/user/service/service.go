package service

import (
	"context"
	"errors"

	apperrors "moments-backend/internal/common/errors"
	"moments-backend/internal/common/validation"
	"moments-backend/internal/features/user/models"
	"moments-backend/internal/features/user/repository"
)

type UserService interface {
	Register(ctx context.Context, wallet string) (*models.UserResponse, error)
	Info(ctx context.Context, wallet string) (*models.UserResponse, error)
	VerificationStatus(ctx context.Context, wallet string) (*models.VerificationResponse, error)
	Verify(ctx context.Context, wallet string, proof models.VerificationProof) (*models.VerificationResponse, error)
}

// IdentityVerifier checks a proof with the external identity provider and
// returns the provider's user identifier when the proof is valid.
type IdentityVerifier interface {
	Verify(ctx context.Context, proof models.VerificationProof) (valid bool, identityID string, err error)
}

type userService struct {
	repo     repository.UserRepository
	verifier IdentityVerifier
}

func NewUserService(repo repository.UserRepository, verifier IdentityVerifier) UserService {
	return &userService{
		repo:     repo,
		verifier: verifier,
	}
}

func (s *userService) Register(ctx context.Context, wallet string) (*models.UserResponse, error) {
	return s.Info(ctx, wallet)
}

func (s *userService) Info(ctx context.Context, wallet string) (*models.UserResponse, error) {
	addr, err := validation.NormalizeWallet("walletAddress", wallet)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.EnsureUser(ctx, addr)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("ensure user", err).WithContext("wallet", addr)
	}
	return user.ToResponse(), nil
}

// VerificationStatus reports false for wallets that have never been seen.
func (s *userService) VerificationStatus(ctx context.Context, wallet string) (*models.VerificationResponse, error) {
	addr, err := validation.NormalizeWallet("walletAddress", wallet)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByWallet(ctx, addr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &models.VerificationResponse{WalletAddress: addr}, nil
		}
		return nil, apperrors.NewStoreUnavailableError("get user", err).WithContext("wallet", addr)
	}
	return &models.VerificationResponse{WalletAddress: addr, IsVerified: user.IsVerified}, nil
}

func (s *userService) Verify(ctx context.Context, wallet string, proof models.VerificationProof) (*models.VerificationResponse, error) {
	addr, err := validation.NormalizeWallet("walletAddress", wallet)
	if err != nil {
		return nil, err
	}
	if len(proof.Proof) == 0 {
		return nil, apperrors.NewValidationError("proof", "is required")
	}
	if len(proof.PublicSignals) == 0 {
		return nil, apperrors.NewValidationError("publicSignals", "is required")
	}
	if s.verifier == nil {
		return nil, apperrors.NewIdentityProviderError(errors.New("identity verifier is not configured"))
	}

	valid, identityID, err := s.verifier.Verify(ctx, proof)
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewIdentityProviderError(err)
	}
	if !valid {
		return nil, apperrors.NewInvalidSignatureError("identity proof rejected")
	}

	user, err := s.repo.SetVerified(ctx, addr, identityID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("set user verified", err).WithContext("wallet", addr)
	}
	return &models.VerificationResponse{WalletAddress: user.WalletAddress, IsVerified: user.IsVerified}, nil
}

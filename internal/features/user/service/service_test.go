package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moments-backend/internal/common/errors"
	"moments-backend/internal/features/user/models"
	"moments-backend/internal/features/user/repository"
)

type fakeRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*models.User{}}
}

func (r *fakeRepo) GetByWallet(_ context.Context, wallet string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[wallet]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) EnsureUser(_ context.Context, wallet string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[wallet]
	if !ok {
		u = &models.User{ID: "u-" + wallet, WalletAddress: wallet, CreatedAt: time.Now()}
		r.users[wallet] = u
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) SetVerified(ctx context.Context, wallet, identityID string) (*models.User, error) {
	if _, err := r.EnsureUser(ctx, wallet); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[wallet]
	u.IsVerified = true
	u.IdentityID = identityID
	cp := *u
	return &cp, nil
}

type fakeVerifier struct {
	valid bool
	id    string
	err   error
	calls int
}

func (v *fakeVerifier) Verify(context.Context, models.VerificationProof) (bool, string, error) {
	v.calls++
	return v.valid, v.id, v.err
}

var proof = models.VerificationProof{
	Proof:         map[string]interface{}{"pi_a": []string{"1"}},
	PublicSignals: []string{"42"},
}

func TestInfo_CreatesUnverifiedLowercased(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo, nil)

	u, err := svc.Info(context.Background(), "0xABCDEF")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef", u.WalletAddress)
	assert.False(t, u.IsVerified)

	again, err := svc.Register(context.Background(), "0xabcdef")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestInfo_InvalidWallet(t *testing.T) {
	svc := NewUserService(newFakeRepo(), nil)

	_, err := svc.Info(context.Background(), "not-a-wallet")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidAddress))
}

func TestVerificationStatus_UnknownWallet(t *testing.T) {
	svc := NewUserService(newFakeRepo(), nil)

	st, err := svc.VerificationStatus(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.False(t, st.IsVerified)
}

func TestVerify(t *testing.T) {
	t.Run("valid proof marks user verified", func(t *testing.T) {
		repo := newFakeRepo()
		v := &fakeVerifier{valid: true, id: "ident-1"}
		svc := NewUserService(repo, v)

		res, err := svc.Verify(context.Background(), "0xAbC", proof)
		require.NoError(t, err)
		assert.True(t, res.IsVerified)
		assert.Equal(t, "ident-1", repo.users["0xabc"].IdentityID)

		st, err := svc.VerificationStatus(context.Background(), "0xabc")
		require.NoError(t, err)
		assert.True(t, st.IsVerified)
	})

	t.Run("rejected proof leaves user unverified", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewUserService(repo, &fakeVerifier{valid: false})

		_, err := svc.Verify(context.Background(), "0xabc", proof)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidSignature))
		_, ok := repo.users["0xabc"]
		assert.False(t, ok)
	})

	t.Run("provider failure", func(t *testing.T) {
		svc := NewUserService(newFakeRepo(), &fakeVerifier{err: errors.New("timeout")})

		_, err := svc.Verify(context.Background(), "0xabc", proof)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIdentityProvider))
	})

	t.Run("missing proof is not forwarded", func(t *testing.T) {
		v := &fakeVerifier{valid: true}
		svc := NewUserService(newFakeRepo(), v)

		_, err := svc.Verify(context.Background(), "0xabc", models.VerificationProof{PublicSignals: []string{"1"}})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
		assert.Zero(t, v.calls)
	})
}

func TestInfo_StoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	svc := NewUserService(repo, nil)

	_, err := svc.Info(context.Background(), "0x"+strings.Repeat("a", 40))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoreUnavailable))
}

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/repository"
	signingmodels "moments-backend/internal/features/signing/models"
	signingservice "moments-backend/internal/features/signing/service"
)

func createMoment(t *testing.T, s *Store, title string, wallets ...string) *models.Moment {
	t.Helper()
	m, err := s.Create(context.Background(), models.NewMoment{
		Title:              title,
		CreatorWallet:      "0xC0FFEE",
		ParticipantWallets: wallets,
	})
	require.NoError(t, err)
	return m
}

func TestCreate_ResolvesUsersCaseInsensitively(t *testing.T) {
	s := NewStore()
	m := createMoment(t, s, "party", "0xAA", " ", "0xbb")

	require.Len(t, m.Participants, 2)
	assert.Equal(t, "0xc0ffee", m.CreatorWallet)
	assert.Equal(t, "0xaa", m.Participants[0].WalletAddress)

	u, err := s.GetByWallet(context.Background(), "0xaA")
	require.NoError(t, err)
	assert.Equal(t, m.Participants[0].UserID, u.ID)
	assert.False(t, u.IsVerified)
}

func TestMarkSigned_Once(t *testing.T) {
	s := NewStore()
	m := createMoment(t, s, "party", "0xaa")
	pid := m.Participants[0].ID

	p, err := s.MarkSigned(context.Background(), pid)
	require.NoError(t, err)
	assert.True(t, p.HasSigned)
	assert.NotNil(t, p.SignedAt)

	_, err = s.MarkSigned(context.Background(), pid)
	assert.ErrorIs(t, err, repository.ErrAlreadySigned)

	_, err = s.MarkSigned(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrParticipantNotFound)
}

func TestMarkSigned_ConcurrentOnlyOneWins(t *testing.T) {
	s := NewStore()
	m := createMoment(t, s, "party", "0xaa")
	pid := m.Participants[0].ID

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.MarkSigned(context.Background(), pid); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	m := createMoment(t, s, "party", "0xaa")
	pid := m.Participants[0].ID

	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(ctx context.Context, repo repository.MomentRepository) error {
		if _, err := repo.MarkSigned(ctx, pid); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, m.ID, models.StatusCompleted); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, got.Participants[0].HasSigned)
	assert.Equal(t, string(models.StatusCreated), got.RawStatus)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	m := createMoment(t, s, "party", "0xaa")

	assert.Panics(t, func() {
		_ = s.WithinTx(context.Background(), func(ctx context.Context, repo repository.MomentRepository) error {
			_ = repo.UpdateStatus(ctx, m.ID, models.StatusPending)
			panic("boom")
		})
	})

	got, err := s.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusCreated), got.RawStatus)
}

func TestPublishInfo(t *testing.T) {
	s := NewStore()
	m := createMoment(t, s, "party", "0xaa")
	ctx := context.Background()

	info, err := s.GetPublishInfo(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, info)

	stored, err := s.UpsertPublishInfo(ctx, &models.PublishInfo{
		MomentID:       m.ID,
		IsPublished:    true,
		IsPrivate:      true,
		AllowedWallets: []string{"0xdd"},
		PricingType:    models.PricingPaid,
		Price:          decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)
	stored.AllowedWallets[0] = "mutated"

	again, err := s.GetPublishInfo(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xdd"}, again.AllowedWallets)

	_, err = s.UpsertPublishInfo(ctx, &models.PublishInfo{MomentID: "missing"})
	assert.ErrorIs(t, err, repository.ErrMomentNotFound)
}

func TestList(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	a := createMoment(t, s, "Beach day", "0xaa")
	b := createMoment(t, s, "Mountain trip", "0xbb")
	_, err := s.UpsertPublishInfo(ctx, &models.PublishInfo{MomentID: b.ID, IsPublished: true, PricingType: models.PricingFree})
	require.NoError(t, err)

	mine, err := s.List(ctx, models.ListFilter{Wallet: "0xAA"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	public, err := s.List(ctx, models.ListFilter{PublicOnly: true})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, b.ID, public[0].ID)

	found, err := s.List(ctx, models.ListFilter{Query: "BEACH"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	limited, err := s.List(ctx, models.ListFilter{Limit: 1, Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, limited)
}

func TestNonceStore(t *testing.T) {
	s := NewNonceStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &signingmodels.SigningNonce{MomentID: "m", WalletAddress: "0xAA", Nonce: "n"}, time.Minute))

	n, err := s.Take(ctx, "m", "0xaa")
	require.NoError(t, err)
	assert.Equal(t, "n", n.Nonce)

	_, err = s.Take(ctx, "m", "0xaa")
	assert.ErrorIs(t, err, signingservice.ErrNonceNotFound)

	require.NoError(t, s.Save(ctx, &signingmodels.SigningNonce{MomentID: "m", WalletAddress: "0xaa", Nonce: "n2"}, time.Minute))
	now = now.Add(2 * time.Minute)
	_, err = s.Take(ctx, "m", "0xaa")
	assert.ErrorIs(t, err, signingservice.ErrNonceNotFound)
}

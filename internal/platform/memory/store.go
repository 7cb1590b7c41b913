// Package memory is a process-local store used when STORE_DRIVER=memory
// and in tests. Transactions take the store lock for their whole duration
// and roll back by restoring a snapshot.
package memory

import (
	"context"
	"sync"
	"time"

	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/repository"
	usermodels "moments-backend/internal/features/user/models"
	userrepository "moments-backend/internal/features/user/repository"
)

type Store struct {
	mu sync.Mutex
	st *state
}

var (
	_ repository.MomentRepository   = (*Store)(nil)
	_ userrepository.UserRepository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{st: newState(func() time.Time { return time.Now().UTC() })}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.MomentRepository) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
	}()

	if err = fn(ctx, &txRepo{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) LockMoment(ctx context.Context, momentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.st.load(momentID)
	return err
}

func (s *Store) Create(ctx context.Context, in models.NewMoment) (*models.Moment, error) {
	var created *models.Moment
	err := s.WithinTx(ctx, func(ctx context.Context, repo repository.MomentRepository) error {
		var err error
		created, err = repo.Create(ctx, in)
		return err
	})
	return created, err
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Moment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.load(id)
}

func (s *Store) List(ctx context.Context, filter models.ListFilter) ([]*models.Moment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.list(filter), nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updateStatus(id, status)
}

func (s *Store) GetPublishInfo(ctx context.Context, momentID string) (*models.PublishInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getPublish(momentID), nil
}

func (s *Store) UpsertPublishInfo(ctx context.Context, info *models.PublishInfo) (*models.PublishInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.upsertPublish(info)
}

func (s *Store) ListParticipants(ctx context.Context, momentID string) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listParticipants(momentID), nil
}

func (s *Store) MarkSigned(ctx context.Context, participantID string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.markSigned(participantID)
}

func (s *Store) AddParticipants(ctx context.Context, momentID string, wallets []string) ([]models.Participant, error) {
	var added []models.Participant
	err := s.WithinTx(ctx, func(ctx context.Context, repo repository.MomentRepository) error {
		var err error
		added, err = repo.AddParticipants(ctx, momentID, wallets)
		return err
	})
	return added, err
}

func (s *Store) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getParticipant(participantID)
}

// users

func (s *Store) GetByWallet(ctx context.Context, wallet string) (*usermodels.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getUser(wallet)
}

func (s *Store) EnsureUser(ctx context.Context, wallet string) (*usermodels.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ensureUser(wallet), nil
}

func (s *Store) SetVerified(ctx context.Context, wallet, identityID string) (*usermodels.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.setVerified(wallet, identityID), nil
}

// txRepo is the repository handed to WithinTx callbacks. The store lock is
// already held, so it works on the state directly.
type txRepo struct {
	st *state
}

func (t *txRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.MomentRepository) error) error {
	return fn(ctx, t)
}

func (t *txRepo) LockMoment(ctx context.Context, momentID string) error {
	_, err := t.st.load(momentID)
	return err
}

func (t *txRepo) Create(ctx context.Context, in models.NewMoment) (*models.Moment, error) {
	return t.st.create(in)
}

func (t *txRepo) GetByID(ctx context.Context, id string) (*models.Moment, error) {
	return t.st.load(id)
}

func (t *txRepo) List(ctx context.Context, filter models.ListFilter) ([]*models.Moment, error) {
	return t.st.list(filter), nil
}

func (t *txRepo) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	return t.st.updateStatus(id, status)
}

func (t *txRepo) GetPublishInfo(ctx context.Context, momentID string) (*models.PublishInfo, error) {
	return t.st.getPublish(momentID), nil
}

func (t *txRepo) UpsertPublishInfo(ctx context.Context, info *models.PublishInfo) (*models.PublishInfo, error) {
	return t.st.upsertPublish(info)
}

func (t *txRepo) ListParticipants(ctx context.Context, momentID string) ([]models.Participant, error) {
	return t.st.listParticipants(momentID), nil
}

func (t *txRepo) MarkSigned(ctx context.Context, participantID string) (*models.Participant, error) {
	return t.st.markSigned(participantID)
}

func (t *txRepo) AddParticipants(ctx context.Context, momentID string, wallets []string) ([]models.Participant, error) {
	return t.st.addParticipants(momentID, wallets)
}

func (t *txRepo) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	return t.st.getParticipant(participantID)
}

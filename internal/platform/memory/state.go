package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/repository"
	usermodels "moments-backend/internal/features/user/models"
	userrepository "moments-backend/internal/features/user/repository"
)

// state is the whole in-memory dataset. It is not safe for concurrent use;
// Store serializes access to it.
type state struct {
	now func() time.Time

	users        map[string]usermodels.User
	userByWallet map[string]string

	moments     map[string]models.Moment
	participant map[string]models.Participant
	// participant ids per moment, in insertion order
	byMoment map[string][]string
	publish  map[string]models.PublishInfo
}

func newState(now func() time.Time) *state {
	return &state{
		now:          now,
		users:        map[string]usermodels.User{},
		userByWallet: map[string]string{},
		moments:      map[string]models.Moment{},
		participant:  map[string]models.Participant{},
		byMoment:     map[string][]string{},
		publish:      map[string]models.PublishInfo{},
	}
}

func (s *state) clone() *state {
	c := newState(s.now)
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.userByWallet {
		c.userByWallet[k] = v
	}
	for k, v := range s.moments {
		c.moments[k] = v
	}
	for k, v := range s.participant {
		if v.SignedAt != nil {
			at := *v.SignedAt
			v.SignedAt = &at
		}
		c.participant[k] = v
	}
	for k, v := range s.byMoment {
		c.byMoment[k] = append([]string(nil), v...)
	}
	for k, v := range s.publish {
		v.AllowedWallets = append([]string{}, v.AllowedWallets...)
		c.publish[k] = v
	}
	return c
}

func normalize(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

// users

func (s *state) getUser(wallet string) (*usermodels.User, error) {
	id, ok := s.userByWallet[normalize(wallet)]
	if !ok {
		return nil, userrepository.ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *state) ensureUser(wallet string) *usermodels.User {
	wallet = normalize(wallet)
	if id, ok := s.userByWallet[wallet]; ok {
		u := s.users[id]
		return &u
	}
	now := s.now()
	u := usermodels.User{
		ID:            uuid.New().String(),
		WalletAddress: wallet,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.users[u.ID] = u
	s.userByWallet[wallet] = u.ID
	return &u
}

func (s *state) setVerified(wallet, identityID string) *usermodels.User {
	u := s.ensureUser(wallet)
	u.IsVerified = true
	if identityID != "" {
		u.IdentityID = identityID
	}
	u.UpdatedAt = s.now()
	s.users[u.ID] = *u
	return u
}

// moments

func (s *state) create(in models.NewMoment) (*models.Moment, error) {
	creator := s.ensureUser(in.CreatorWallet)
	now := s.now()
	m := models.Moment{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Description:   in.Description,
		ImageURL:      in.ImageURL,
		ContentHash:   in.ContentHash,
		CreatorID:     creator.ID,
		CreatorWallet: creator.WalletAddress,
		RawStatus:     string(models.StatusCreated),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.moments[m.ID] = m

	added, err := s.addParticipants(m.ID, in.ParticipantWallets)
	if err != nil {
		return nil, err
	}
	m.Participants = added
	return &m, nil
}

func (s *state) load(id string) (*models.Moment, error) {
	m, ok := s.moments[id]
	if !ok {
		return nil, repository.ErrMomentNotFound
	}
	if u, ok := s.users[m.CreatorID]; ok {
		m.CreatorWallet = u.WalletAddress
	}
	m.RawStatus = string(models.ParseStatus(m.RawStatus))
	m.Participants = s.listParticipants(id)
	m.PublishInfo = s.getPublish(id)
	return &m, nil
}

func (s *state) list(filter models.ListFilter) []*models.Moment {
	wallet := normalize(filter.Wallet)
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]*models.Moment, 0)
	for id := range s.moments {
		m, _ := s.load(id)

		if wallet != "" && m.CreatorWallet != wallet && !hasParticipant(m.Participants, wallet) {
			continue
		}
		if filter.PublicOnly && (m.PublishInfo == nil || !m.PublishInfo.IsPublished || m.PublishInfo.IsPrivate) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Title), query) &&
			!strings.Contains(strings.ToLower(m.Description), query) {
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if filter.SortByUpdated {
			a, b = out[i].UpdatedAt, out[j].UpdatedAt
		}
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*models.Moment{}
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

func hasParticipant(ps []models.Participant, wallet string) bool {
	for _, p := range ps {
		if p.WalletAddress == wallet {
			return true
		}
	}
	return false
}

func (s *state) updateStatus(id string, status models.Status) error {
	m, ok := s.moments[id]
	if !ok {
		return repository.ErrMomentNotFound
	}
	m.RawStatus = string(status)
	m.UpdatedAt = s.now()
	s.moments[id] = m
	return nil
}

// participants

func (s *state) withWallet(p models.Participant) models.Participant {
	if u, ok := s.users[p.UserID]; ok {
		p.WalletAddress = u.WalletAddress
	}
	return p
}

func (s *state) listParticipants(momentID string) []models.Participant {
	ids := s.byMoment[momentID]
	out := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.withWallet(s.participant[id]))
	}
	return out
}

func (s *state) getParticipant(id string) (*models.Participant, error) {
	p, ok := s.participant[id]
	if !ok {
		return nil, repository.ErrParticipantNotFound
	}
	p = s.withWallet(p)
	return &p, nil
}

func (s *state) markSigned(id string) (*models.Participant, error) {
	p, ok := s.participant[id]
	if !ok {
		return nil, repository.ErrParticipantNotFound
	}
	if p.HasSigned {
		return nil, repository.ErrAlreadySigned
	}
	at := s.now()
	p.HasSigned = true
	p.SignedAt = &at
	s.participant[id] = p
	p = s.withWallet(p)
	return &p, nil
}

func (s *state) addParticipants(momentID string, wallets []string) ([]models.Participant, error) {
	if _, ok := s.moments[momentID]; !ok {
		return nil, repository.ErrMomentNotFound
	}
	added := make([]models.Participant, 0, len(wallets))
	for _, w := range wallets {
		if normalize(w) == "" {
			continue
		}
		u := s.ensureUser(w)
		p := models.Participant{
			ID:            uuid.New().String(),
			MomentID:      momentID,
			UserID:        u.ID,
			WalletAddress: u.WalletAddress,
			CreatedAt:     s.now(),
		}
		s.participant[p.ID] = p
		s.byMoment[momentID] = append(s.byMoment[momentID], p.ID)
		added = append(added, p)
	}
	return added, nil
}

// publish info

func (s *state) getPublish(momentID string) *models.PublishInfo {
	info, ok := s.publish[momentID]
	if !ok {
		return nil
	}
	info.AllowedWallets = append([]string{}, info.AllowedWallets...)
	return &info
}

func (s *state) upsertPublish(info *models.PublishInfo) (*models.PublishInfo, error) {
	if _, ok := s.moments[info.MomentID]; !ok {
		return nil, repository.ErrMomentNotFound
	}
	stored := *info
	stored.AllowedWallets = append([]string{}, info.AllowedWallets...)
	if prev, ok := s.publish[info.MomentID]; ok {
		stored.CreatedAt = prev.CreatedAt
	}
	s.publish[info.MomentID] = stored
	return s.getPublish(info.MomentID), nil
}

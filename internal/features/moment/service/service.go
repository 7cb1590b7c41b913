package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"moments-backend/internal/common/errors"
	"moments-backend/internal/common/logger"
	"moments-backend/internal/common/validation"
	"moments-backend/internal/features/moment/lifecycle"
	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/repository"
	signingmodels "moments-backend/internal/features/signing/models"
)

const (
	FeaturedLimit    = 6
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type momentService struct {
	repo   repository.MomentRepository
	signer Signer
	events EventPublisher
	now    func() time.Time
}

// NewMomentService wires the lifecycle core. events may be nil.
func NewMomentService(repo repository.MomentRepository, signer Signer, events EventPublisher) MomentService {
	return &momentService{
		repo:   repo,
		signer: signer,
		events: events,
		now:    time.Now,
	}
}

func (s *momentService) Create(ctx context.Context, in models.NewMoment) (*models.Moment, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidateDescription(in.Description); err != nil {
		return nil, err
	}

	creator, err := validation.NormalizeWallet("creatorWallet", in.CreatorWallet)
	if err != nil {
		return nil, err
	}
	in.CreatorWallet = creator

	// The creator is never a participant, and each wallet appears once.
	wallets := make([]string, 0, len(in.ParticipantWallets))
	seen := map[string]bool{creator: true}
	for _, w := range in.ParticipantWallets {
		if strings.TrimSpace(w) == "" {
			continue
		}
		normalized, err := validation.NormalizeWallet("participantWallets", w)
		if err != nil {
			return nil, err
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		wallets = append(wallets, normalized)
	}
	if len(wallets) == 0 {
		return nil, errors.NewValidationError("participantWallets", "at least one participant is required")
	}
	if len(wallets) > validation.MaxParticipants {
		return nil, errors.NewValidationError("participantWallets", "too many participants")
	}
	in.ParticipantWallets = wallets

	m, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, storeError("create moment", err, "", "")
	}

	logger.Info().
		Str("moment_id", m.ID).
		Str("creator", m.CreatorWallet).
		Int("participants", len(m.Participants)).
		Msg("Moment created")

	s.emit(ctx, models.LifecycleEvent{
		Type:     models.EventCreated,
		MomentID: m.ID,
		Wallet:   m.CreatorWallet,
		Status:   lifecycle.DeriveStatus(m.Participants, m.PublishInfo),
	})
	return m, nil
}

func (s *momentService) Get(ctx context.Context, id string) (*models.Moment, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("Moment", id)
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get moment", err, id, "")
	}
	return m, nil
}

func (s *momentService) GetView(ctx context.Context, id, viewerWallet string) (*models.MomentView, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return lifecycle.View(m, strings.TrimSpace(viewerWallet)), nil
}

// List without a wallet returns public published moments only.
func (s *momentService) List(ctx context.Context, filter models.ListFilter) ([]*models.Moment, error) {
	wallet, err := validation.NormalizeOptionalWallet("walletAddress", filter.Wallet)
	if err != nil {
		return nil, err
	}
	filter.Wallet = wallet
	if wallet == "" {
		filter.PublicOnly = true
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	moments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError("list moments", err, "", "")
	}
	return moments, nil
}

func (s *momentService) Featured(ctx context.Context) ([]*models.Moment, error) {
	moments, err := s.repo.List(ctx, models.ListFilter{
		PublicOnly:    true,
		SortByUpdated: true,
		Limit:         FeaturedLimit,
	})
	if err != nil {
		return nil, storeError("list featured moments", err, "", "")
	}
	return moments, nil
}

func (s *momentService) IssueSigningNonce(ctx context.Context, momentID, wallet string) (*signingmodels.SigningNonce, error) {
	normalized, err := validation.NormalizeWallet("walletAddress", wallet)
	if err != nil {
		return nil, err
	}

	m, err := s.Get(ctx, momentID)
	if err != nil {
		return nil, err
	}

	var participant *models.Participant
	for i := range m.Participants {
		if validation.SameWallet(m.Participants[i].WalletAddress, normalized) {
			participant = &m.Participants[i]
			break
		}
	}
	if participant == nil {
		return nil, errors.NewParticipantMismatchError(normalized, momentID)
	}
	if participant.HasSigned {
		return nil, errors.NewAlreadySignedError(participant.ID)
	}

	return s.signer.IssueNonce(ctx, momentID, normalized)
}

func (s *momentService) Sign(ctx context.Context, momentID string, payload models.SignaturePayload) (models.Status, error) {
	payload.ParticipantID = strings.TrimSpace(payload.ParticipantID)
	if payload.ParticipantID == "" {
		return "", errors.NewValidationError("participantId", "is required")
	}
	if !validID(momentID) {
		return "", errors.NewNotFoundError("Moment", momentID)
	}
	if !validID(payload.ParticipantID) {
		return "", errors.NewNotFoundError("Participant", payload.ParticipantID)
	}

	p, err := s.repo.GetParticipant(ctx, payload.ParticipantID)
	if err != nil {
		return "", storeError("get participant", err, momentID, payload.ParticipantID)
	}
	if p.MomentID != momentID {
		return "", errors.NewParticipantMismatchError(p.ID, momentID)
	}
	if p.HasSigned {
		return "", errors.NewAlreadySignedError(p.ID)
	}

	if err := s.signer.Verify(ctx, momentID, p.WalletAddress, payload); err != nil {
		return "", err
	}

	status, err := s.RecordSignature(ctx, momentID, p.ID)
	if err != nil {
		return "", err
	}

	s.emit(ctx, models.LifecycleEvent{
		Type:          models.EventSigned,
		MomentID:      momentID,
		ParticipantID: p.ID,
		Wallet:        p.WalletAddress,
		Status:        status,
	})
	if status == models.StatusCompleted {
		s.emit(ctx, models.LifecycleEvent{
			Type:     models.EventCompleted,
			MomentID: momentID,
			Status:   status,
		})
	}
	return status, nil
}

// RecordSignature marks the participant signed and refreshes the cached
// status, all under the moment's row lock. A second call for the same
// participant fails with ALREADY_SIGNED and changes nothing.
func (s *momentService) RecordSignature(ctx context.Context, momentID, participantID string) (models.Status, error) {
	if !validID(momentID) {
		return "", errors.NewNotFoundError("Moment", momentID)
	}
	if !validID(participantID) {
		return "", errors.NewNotFoundError("Participant", participantID)
	}

	var status models.Status
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx repository.MomentRepository) error {
		if err := tx.LockMoment(ctx, momentID); err != nil {
			return storeError("lock moment", err, momentID, "")
		}

		p, err := tx.GetParticipant(ctx, participantID)
		if err != nil {
			return storeError("get participant", err, momentID, participantID)
		}
		if p.MomentID != momentID {
			return errors.NewParticipantMismatchError(participantID, momentID)
		}

		if _, err := tx.MarkSigned(ctx, participantID); err != nil {
			return storeError("mark signed", err, momentID, participantID)
		}

		participants, err := tx.ListParticipants(ctx, momentID)
		if err != nil {
			return storeError("list participants", err, momentID, "")
		}
		publish, err := tx.GetPublishInfo(ctx, momentID)
		if err != nil {
			return storeError("get publish info", err, momentID, "")
		}

		status = lifecycle.DeriveStatus(participants, publish)
		if err := tx.UpdateStatus(ctx, momentID, status); err != nil {
			return storeError("update status", err, momentID, "")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	logger.Info().
		Str("moment_id", momentID).
		Str("participant_id", participantID).
		Str("status", string(status)).
		Msg("Signature recorded")

	return status, nil
}

func (s *momentService) Publish(ctx context.Context, momentID, actingWallet string, settings models.PublishSettings) (*models.PublishInfo, error) {
	actor, err := validation.NormalizeOptionalWallet("walletAddress", actingWallet)
	if err != nil {
		return nil, err
	}
	if !validID(momentID) {
		return nil, errors.NewNotFoundError("Moment", momentID)
	}

	var stored *models.PublishInfo
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx repository.MomentRepository) error {
		if err := tx.LockMoment(ctx, momentID); err != nil {
			return storeError("lock moment", err, momentID, "")
		}
		m, err := tx.GetByID(ctx, momentID)
		if err != nil {
			return storeError("get moment", err, momentID, "")
		}

		if actor != "" && !validation.SameWallet(actor, m.CreatorWallet) {
			return errors.NewForbiddenError("only the creator can publish this moment")
		}

		status := lifecycle.DeriveStatus(m.Participants, m.PublishInfo)
		if status != models.StatusCompleted && status != models.StatusPublished {
			return errors.NewNotCompletedError(momentID, string(status))
		}

		info, err := lifecycle.NormalizePublish(momentID, settings, s.now().UTC())
		if err != nil {
			return err
		}
		if m.PublishInfo != nil {
			info.CreatedAt = m.PublishInfo.CreatedAt
		}

		stored, err = tx.UpsertPublishInfo(ctx, info)
		if err != nil {
			return storeError("upsert publish info", err, momentID, "")
		}
		if err := tx.UpdateStatus(ctx, momentID, models.StatusPublished); err != nil {
			return storeError("update status", err, momentID, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("moment_id", momentID).
		Bool("private", stored.IsPrivate).
		Str("pricing", string(stored.PricingType)).
		Msg("Moment published")

	s.emit(ctx, models.LifecycleEvent{
		Type:     models.EventPublished,
		MomentID: momentID,
		Wallet:   actor,
		Status:   models.StatusPublished,
	})
	return stored, nil
}

func (s *momentService) CheckAccess(ctx context.Context, momentID, wallet string) (bool, error) {
	viewer, err := validation.NormalizeWallet("walletAddress", wallet)
	if err != nil {
		return false, err
	}
	m, err := s.Get(ctx, momentID)
	if err != nil {
		return false, err
	}
	return lifecycle.CanAccess(m.PublishInfo, m.Participants, m.CreatorWallet, viewer), nil
}

func (s *momentService) emit(ctx context.Context, e models.LifecycleEvent) {
	if s.events == nil {
		return
	}
	e.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		logger.Warn().Err(err).
			Str("event", string(e.Type)).
			Str("moment_id", e.MomentID).
			Msg("Failed to publish lifecycle event")
	}
}

// storeError maps repository errors to AppErrors. momentID and
// participantID fill the not-found details.
func storeError(op string, err error, momentID, participantID string) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	switch {
	case stderrors.Is(err, repository.ErrMomentNotFound):
		return errors.NewNotFoundError("Moment", momentID)
	case stderrors.Is(err, repository.ErrParticipantNotFound):
		return errors.NewNotFoundError("Participant", participantID)
	case stderrors.Is(err, repository.ErrAlreadySigned):
		return errors.NewAlreadySignedError(participantID)
	default:
		return errors.NewStoreUnavailableError(op, err)
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

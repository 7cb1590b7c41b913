package repository

import (
	"context"
	"errors"

	"moments-backend/internal/features/moment/models"
)

var (
	ErrMomentNotFound      = errors.New("moment not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadySigned       = errors.New("participant already signed")
)

// ParticipantRegistry is plain data access over a moment's participants.
type ParticipantRegistry interface {
	ListParticipants(ctx context.Context, momentID string) ([]models.Participant, error)
	// MarkSigned flips has_signed false->true exactly once. A second call
	// returns ErrAlreadySigned.
	MarkSigned(ctx context.Context, participantID string) (*models.Participant, error)
	// AddParticipants resolves or creates one user per wallet and attaches
	// an unsigned participant for each. Blank wallets are skipped.
	AddParticipants(ctx context.Context, momentID string, wallets []string) ([]models.Participant, error)
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)
}

type MomentRepository interface {
	ParticipantRegistry

	// WithinTx runs fn against a repository bound to one transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo MomentRepository) error) error
	// LockMoment takes the per-moment write lock for the current transaction.
	LockMoment(ctx context.Context, momentID string) error

	// Create stores the moment, resolving the creator by wallet, and
	// attaches participants.
	Create(ctx context.Context, in models.NewMoment) (*models.Moment, error)
	// GetByID loads the moment with creator wallet, participants and publish info.
	GetByID(ctx context.Context, id string) (*models.Moment, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Moment, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) error

	GetPublishInfo(ctx context.Context, momentID string) (*models.PublishInfo, error)
	UpsertPublishInfo(ctx context.Context, info *models.PublishInfo) (*models.PublishInfo, error)
}

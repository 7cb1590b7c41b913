package service

import (
	"context"

	"moments-backend/internal/features/moment/models"
	signingmodels "moments-backend/internal/features/signing/models"
)

type MomentService interface {
	Create(ctx context.Context, in models.NewMoment) (*models.Moment, error)
	Get(ctx context.Context, id string) (*models.Moment, error)
	GetView(ctx context.Context, id, viewerWallet string) (*models.MomentView, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Moment, error)
	Featured(ctx context.Context) ([]*models.Moment, error)

	IssueSigningNonce(ctx context.Context, momentID, wallet string) (*signingmodels.SigningNonce, error)
	Sign(ctx context.Context, momentID string, payload models.SignaturePayload) (models.Status, error)
	RecordSignature(ctx context.Context, momentID, participantID string) (models.Status, error)

	Publish(ctx context.Context, momentID, actingWallet string, settings models.PublishSettings) (*models.PublishInfo, error)
	CheckAccess(ctx context.Context, momentID, wallet string) (bool, error)
}

// Signer issues signing nonces and checks signing payloads before a
// signature is recorded.
type Signer interface {
	IssueNonce(ctx context.Context, momentID, wallet string) (*signingmodels.SigningNonce, error)
	Verify(ctx context.Context, momentID, participantWallet string, payload models.SignaturePayload) error
}

// EventPublisher receives lifecycle events after the change is committed.
type EventPublisher interface {
	Publish(ctx context.Context, e models.LifecycleEvent) error
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/repository"
)

const publishColumns = `moment_id, is_published, is_private, allowed_wallets, pricing_type, price, created_at, updated_at`

func scanPublishInfo(row interface{ Scan(dest ...any) error }) (*models.PublishInfo, error) {
	var (
		info    models.PublishInfo
		pricing string
		allowed []string
	)
	err := row.Scan(&info.MomentID, &info.IsPublished, &info.IsPrivate, pq.Array(&allowed),
		&pricing, &info.Price, &info.CreatedAt, &info.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if allowed == nil {
		allowed = []string{}
	}
	info.AllowedWallets = allowed
	info.PricingType = models.PricingType(pricing)
	return &info, nil
}

// GetPublishInfo returns nil, nil for a never-published moment.
func (r *Repository) GetPublishInfo(ctx context.Context, momentID string) (*models.PublishInfo, error) {
	query := `SELECT ` + publishColumns + ` FROM moment_publish WHERE moment_id = $1`
	info, err := scanPublishInfo(r.q.QueryRowContext(ctx, query, momentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get publish info: %w", err)
	}
	return info, nil
}

func (r *Repository) publishInfoFor(ctx context.Context, momentIDs []string) (map[string]*models.PublishInfo, error) {
	query := `SELECT ` + publishColumns + ` FROM moment_publish WHERE moment_id = ANY($1)`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(momentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list publish info: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.PublishInfo, len(momentIDs))
	for rows.Next() {
		info, err := scanPublishInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publish info: %w", err)
		}
		out[info.MomentID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publish info: %w", err)
	}
	return out, nil
}

// UpsertPublishInfo overwrites settings of an already-published moment.
func (r *Repository) UpsertPublishInfo(ctx context.Context, info *models.PublishInfo) (*models.PublishInfo, error) {
	allowed := info.AllowedWallets
	if allowed == nil {
		allowed = []string{}
	}

	query := `
		INSERT INTO moment_publish (` + publishColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (moment_id) DO UPDATE SET
			is_published = EXCLUDED.is_published,
			is_private = EXCLUDED.is_private,
			allowed_wallets = EXCLUDED.allowed_wallets,
			pricing_type = EXCLUDED.pricing_type,
			price = EXCLUDED.price,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + publishColumns

	stored, err := scanPublishInfo(r.q.QueryRowContext(ctx, query,
		info.MomentID, info.IsPublished, info.IsPrivate, pq.Array(allowed),
		string(info.PricingType), info.Price, info.CreatedAt, info.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, repository.ErrMomentNotFound
		}
		return nil, fmt.Errorf("failed to upsert publish info: %w", err)
	}
	return stored, nil
}

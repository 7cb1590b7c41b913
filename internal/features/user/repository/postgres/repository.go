package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"moments-backend/internal/features/user/models"
	"moments-backend/internal/features/user/repository"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, wallet_address, is_verified, COALESCE(identity_id, ''), created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.WalletAddress, &u.IsVerified, &u.IdentityID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, wallet))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) EnsureUser(ctx context.Context, wallet string) (*models.User, error) {
	query := `
		INSERT INTO users (id, wallet_address)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO UPDATE SET wallet_address = EXCLUDED.wallet_address
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, uuid.New().String(), wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, wallet, identityID string) (*models.User, error) {
	query := `
		INSERT INTO users (id, wallet_address, is_verified, identity_id)
		VALUES ($1, $2, TRUE, NULLIF($3, ''))
		ON CONFLICT (wallet_address) DO UPDATE SET
			is_verified = TRUE,
			identity_id = COALESCE(NULLIF(EXCLUDED.identity_id, ''), users.identity_id),
			updated_at = now()
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, uuid.New().String(), wallet, identityID))
	if err != nil {
		return nil, fmt.Errorf("failed to set user verified: %w", err)
	}
	return u, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/repository"
)

const participantColumns = `p.id, p.moment_id, p.user_id, u.wallet_address, p.has_signed, p.signed_at, p.created_at`

func scanParticipant(row interface{ Scan(dest ...any) error }) (models.Participant, error) {
	var (
		p        models.Participant
		signedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.MomentID, &p.UserID, &p.WalletAddress, &p.HasSigned, &signedAt, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	if signedAt.Valid {
		t := signedAt.Time
		p.SignedAt = &t
	}
	return p, nil
}

func (r *Repository) ListParticipants(ctx context.Context, momentID string) ([]models.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM moment_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.moment_id = $1
		ORDER BY p.created_at, p.id
	`
	rows, err := r.q.QueryContext(ctx, query, momentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

func (r *Repository) participantsFor(ctx context.Context, momentIDs []string) (map[string][]models.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM moment_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.moment_id = ANY($1)
		ORDER BY p.created_at, p.id
	`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(momentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Participant, len(momentIDs))
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		out[p.MomentID] = append(out[p.MomentID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return out, nil
}

func (r *Repository) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM moment_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	p, err := scanParticipant(r.q.QueryRowContext(ctx, query, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &p, nil
}

// MarkSigned is a compare-and-swap on has_signed; only one caller can win.
func (r *Repository) MarkSigned(ctx context.Context, participantID string) (*models.Participant, error) {
	query := `
		WITH signed AS (
			UPDATE moment_participants
			SET has_signed = TRUE, signed_at = now()
			WHERE id = $1 AND has_signed = FALSE
			RETURNING id, moment_id, user_id, has_signed, signed_at, created_at
		)
		SELECT p.id, p.moment_id, p.user_id, u.wallet_address, p.has_signed, p.signed_at, p.created_at
		FROM signed p
		JOIN users u ON u.id = p.user_id
	`
	p, err := scanParticipant(r.q.QueryRowContext(ctx, query, participantID))
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark participant signed: %w", err)
	}

	var exists bool
	err = r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM moment_participants WHERE id = $1)`, participantID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant: %w", err)
	}
	if !exists {
		return nil, repository.ErrParticipantNotFound
	}
	return nil, repository.ErrAlreadySigned
}

func (r *Repository) AddParticipants(ctx context.Context, momentID string, wallets []string) ([]models.Participant, error) {
	var added []models.Participant
	err := r.WithinTx(ctx, func(ctx context.Context, repo repository.MomentRepository) error {
		tx := repo.(*Repository)
		added = make([]models.Participant, 0, len(wallets))

		for _, w := range wallets {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}

			userID, err := tx.ensureUser(ctx, w)
			if err != nil {
				return err
			}

			p := models.Participant{
				ID:            uuid.New().String(),
				MomentID:      momentID,
				UserID:        userID,
				WalletAddress: w,
				CreatedAt:     time.Now().UTC(),
			}
			_, err = tx.q.ExecContext(ctx, `
				INSERT INTO moment_participants (id, moment_id, user_id, has_signed, created_at)
				VALUES ($1, $2, $3, FALSE, $4)
			`, p.ID, p.MomentID, p.UserID, p.CreatedAt)
			if err != nil {
				if isForeignKeyViolation(err) {
					return repository.ErrMomentNotFound
				}
				return fmt.Errorf("failed to add participant: %w", err)
			}
			added = append(added, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

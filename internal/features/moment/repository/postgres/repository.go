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
	"moments-backend/internal/platform/postgres"
)

const foreignKeyViolation = "23503"

type Repository struct {
	db *sql.DB
	q  postgres.DBTX
}

var _ repository.MomentRepository = (*Repository)(nil)

func NewPostgresRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// WithinTx opens a transaction unless the repository is already bound to one.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.MomentRepository) error) error {
	if r.db == nil {
		return fn(ctx, r)
	}
	return postgres.WithTx(ctx, r.db, nil, func(ctx context.Context, tx postgres.DBTX) error {
		return fn(ctx, &Repository{q: tx})
	})
}

func (r *Repository) LockMoment(ctx context.Context, momentID string) error {
	var id string
	err := r.q.QueryRowContext(ctx, `SELECT id FROM moments WHERE id = $1 FOR UPDATE`, momentID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrMomentNotFound
		}
		return fmt.Errorf("failed to lock moment: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, in models.NewMoment) (*models.Moment, error) {
	var created *models.Moment
	err := r.WithinTx(ctx, func(ctx context.Context, repo repository.MomentRepository) error {
		tx := repo.(*Repository)

		creatorWallet := strings.ToLower(strings.TrimSpace(in.CreatorWallet))
		creatorID, err := tx.ensureUser(ctx, creatorWallet)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		m := &models.Moment{
			ID:            uuid.New().String(),
			Title:         in.Title,
			Description:   in.Description,
			ImageURL:      in.ImageURL,
			ContentHash:   in.ContentHash,
			CreatorID:     creatorID,
			CreatorWallet: creatorWallet,
			RawStatus:     string(models.StatusCreated),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		query := `
			INSERT INTO moments (id, title, description, image_url, content_hash, creator_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err = tx.q.ExecContext(ctx, query,
			m.ID, m.Title, m.Description, m.ImageURL, m.ContentHash, m.CreatorID, m.RawStatus, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create moment: %w", err)
		}

		m.Participants, err = tx.AddParticipants(ctx, m.ID, in.ParticipantWallets)
		if err != nil {
			return err
		}

		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

const momentColumns = `
	m.id, m.title, m.description, m.image_url, m.content_hash,
	m.creator_id, u.wallet_address, m.status, m.created_at, m.updated_at
`

func scanMoment(row interface{ Scan(dest ...any) error }) (*models.Moment, error) {
	var m models.Moment
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.ImageURL, &m.ContentHash,
		&m.CreatorID, &m.CreatorWallet, &m.RawStatus, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// Legacy rows may still carry "proposed".
	m.RawStatus = string(models.ParseStatus(m.RawStatus))
	return &m, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Moment, error) {
	query := `SELECT ` + momentColumns + `
		FROM moments m
		JOIN users u ON u.id = m.creator_id
		WHERE m.id = $1
	`
	m, err := scanMoment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrMomentNotFound
		}
		return nil, fmt.Errorf("failed to get moment: %w", err)
	}

	if m.Participants, err = r.ListParticipants(ctx, id); err != nil {
		return nil, err
	}
	if m.PublishInfo, err = r.GetPublishInfo(ctx, id); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) List(ctx context.Context, filter models.ListFilter) ([]*models.Moment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Wallet != "" {
		p := arg(strings.ToLower(filter.Wallet))
		where = append(where, `(u.wallet_address = `+p+` OR EXISTS (
			SELECT 1 FROM moment_participants mpp
			JOIN users pu ON pu.id = mpp.user_id
			WHERE mpp.moment_id = m.id AND pu.wallet_address = `+p+`))`)
	}
	if filter.PublicOnly {
		where = append(where, `mp.is_published = TRUE AND mp.is_private = FALSE`)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, `(m.title ILIKE `+p+` ESCAPE '\' OR m.description ILIKE `+p+` ESCAPE '\')`)
	}

	query := `SELECT ` + momentColumns + `
		FROM moments m
		JOIN users u ON u.id = m.creator_id
		LEFT JOIN moment_publish mp ON mp.moment_id = m.id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.SortByUpdated {
		query += " ORDER BY m.updated_at DESC, m.id"
	} else {
		query += " ORDER BY m.created_at DESC, m.id"
	}
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list moments: %w", err)
	}
	defer rows.Close()

	var (
		moments []*models.Moment
		ids     []string
	)
	for rows.Next() {
		m, err := scanMoment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan moment: %w", err)
		}
		moments = append(moments, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate moments: %w", err)
	}
	if len(moments) == 0 {
		return []*models.Moment{}, nil
	}

	participants, err := r.participantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	publish, err := r.publishInfoFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range moments {
		m.Participants = participants[m.ID]
		if m.Participants == nil {
			m.Participants = []models.Participant{}
		}
		m.PublishInfo = publish[m.ID]
	}

	return moments, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE moments SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update moment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update moment status: %w", err)
	}
	if n == 0 {
		return repository.ErrMomentNotFound
	}
	return nil
}

// ensureUser returns the id of the user owning wallet, creating it unverified.
func (r *Repository) ensureUser(ctx context.Context, wallet string) (string, error) {
	query := `
		INSERT INTO users (id, wallet_address)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO UPDATE SET wallet_address = EXCLUDED.wallet_address
		RETURNING id
	`
	var id string
	if err := r.q.QueryRowContext(ctx, query, uuid.New().String(), wallet).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to ensure user: %w", err)
	}
	return id, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/taskline/internal/domain"
)

// Postgres error codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if isPgError(err, codeUniqueViolation) {
		return fmt.Errorf("userRepo.Create: username taken: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User

	err := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}

	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User

	err := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.GetByUsername: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByUsername: %w", err)
	}

	return &u, nil
}

func (r *UserRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("userRepo.ListByIDs: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*domain.User, len(ids))
	for rows.Next() {
		var u domain.User

		err = rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("userRepo.ListByIDs: scan: %w", err)
		}
		byID[u.ID] = &u
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("userRepo.ListByIDs: rows: %w", err)
	}

	// Preserve caller ordering; unknown IDs are skipped.
	users := make([]*domain.User, 0, len(byID))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}

	return users, nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) SaveMessengerLink(ctx context.Context, link *domain.MessengerLink) error {
	// One link per (user, platform): re-linking updates the external ID.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messenger_links (id, user_id, platform, external_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, platform) DO UPDATE SET external_id = EXCLUDED.external_id`,
		link.ID, link.UserID, link.Platform, link.ExternalID, link.CreatedAt,
	)
	if isPgError(err, codeForeignKeyViolation) {
		return fmt.Errorf("userRepo.SaveMessengerLink: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("userRepo.SaveMessengerLink: %w", err)
	}

	return nil
}

func (r *UserRepo) ListMessengerLinks(ctx context.Context, userID uuid.UUID) ([]*domain.MessengerLink, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, platform, external_id, created_at
		 FROM messenger_links WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("userRepo.ListMessengerLinks: %w", err)
	}
	defer rows.Close()

	var links []*domain.MessengerLink
	for rows.Next() {
		var l domain.MessengerLink

		err = rows.Scan(&l.ID, &l.UserID, &l.Platform, &l.ExternalID, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("userRepo.ListMessengerLinks: scan: %w", err)
		}
		links = append(links, &l)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("userRepo.ListMessengerLinks: rows: %w", err)
	}

	return links, nil
}

func (r *UserRepo) DeleteMessengerLink(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM messenger_links WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("userRepo.DeleteMessengerLink: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.DeleteMessengerLink: %w", domain.ErrNotFound)
	}

	return nil
}

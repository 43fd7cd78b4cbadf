package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/taskline/internal/domain"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, owner_id, title, color, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.OwnerID, p.Title, p.Color, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Create: %w", err)
	}

	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := r.getProject(ctx, id, "projectRepo.GetByID")
	if err != nil {
		return nil, err
	}

	if err := r.loadParticipants(ctx, p, "projectRepo.GetByID"); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *ProjectRepo) GetWithTasks(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := r.getProject(ctx, id, "projectRepo.GetWithTasks")
	if err != nil {
		return nil, err
	}

	if err := r.loadParticipants(ctx, p, "projectRepo.GetWithTasks"); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, owner_id, title, description, done, status, priority, term, created_at, updated_at
		 FROM tasks WHERE project_id = $1 ORDER BY created_at`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.GetWithTasks: tasks: %w", err)
	}
	defer rows.Close()

	p.Tasks, err = scanTasks(rows, "projectRepo.GetWithTasks")
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (r *ProjectRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.owner_id, p.title, p.color, p.created_at, p.updated_at
		 FROM projects p
		 WHERE p.owner_id = $1
		    OR EXISTS (
		        SELECT 1 FROM project_participants pp
		        WHERE pp.project_id = p.id AND pp.user_id = $1
		    )
		 ORDER BY p.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	byID := make(map[uuid.UUID]*domain.Project)
	for rows.Next() {
		var p domain.Project

		err = rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Color, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("projectRepo.ListForUser: scan: %w", err)
		}
		projects = append(projects, &p)
		byID[p.ID] = &p
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListForUser: rows: %w", err)
	}

	if len(projects) == 0 {
		return projects, nil
	}

	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	prows, err := r.pool.Query(ctx,
		`SELECT pp.project_id, pp.user_id
		 FROM project_participants pp
		 JOIN projects p ON p.id = pp.project_id
		 WHERE pp.project_id = ANY($1) AND pp.user_id <> p.owner_id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListForUser: participants: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var projectID, participantID uuid.UUID

		err = prows.Scan(&projectID, &participantID)
		if err != nil {
			return nil, fmt.Errorf("projectRepo.ListForUser: participants scan: %w", err)
		}
		if p, ok := byID[projectID]; ok {
			p.Participants = append(p.Participants, participantID)
		}
	}
	err = prows.Err()
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListForUser: participants rows: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepo) AddParticipant(ctx context.Context, projectID, userID uuid.UUID) error {
	// The composite primary key turns a lost check-then-insert race into
	// a unique violation instead of a duplicate row.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO project_participants (project_id, user_id, created_at)
		 VALUES ($1, $2, now())`,
		projectID, userID,
	)
	if isPgError(err, codeUniqueViolation) {
		return fmt.Errorf("projectRepo.AddParticipant: %w", domain.ErrConflict)
	}
	if isPgError(err, codeForeignKeyViolation) {
		return fmt.Errorf("projectRepo.AddParticipant: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("projectRepo.AddParticipant: %w", err)
	}

	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Tasks and participant rows go with the project (ON DELETE CASCADE).
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projectRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ProjectRepo) getProject(ctx context.Context, id uuid.UUID, caller string) (*domain.Project, error) {
	var p domain.Project

	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, color, created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.OwnerID, &p.Title, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	return &p, nil
}

func (r *ProjectRepo) loadParticipants(ctx context.Context, p *domain.Project, caller string) error {
	// The owner is excluded defensively even though writes reject it.
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM project_participants
		 WHERE project_id = $1 AND user_id <> $2
		 ORDER BY created_at`,
		p.ID, p.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("%s: participants: %w", caller, err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID uuid.UUID

		err = rows.Scan(&userID)
		if err != nil {
			return fmt.Errorf("%s: participants scan: %w", caller, err)
		}
		p.Participants = append(p.Participants, userID)
	}
	err = rows.Err()
	if err != nil {
		return fmt.Errorf("%s: participants rows: %w", caller, err)
	}

	return nil
}

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

const taskColumns = `id, project_id, owner_id, title, description, done, status, priority, term, created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, project_id, owner_id, title, description, done, status, priority, term, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.ProjectID, t.OwnerID, t.Title, t.Description,
		t.Done, t.Status, t.Priority, t.Term,
		t.CreatedAt, t.UpdatedAt,
	)
	if isPgError(err, codeForeignKeyViolation) {
		return fmt.Errorf("taskRepo.Create: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", err)
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var t domain.Task

	err := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	).Scan(
		&t.ID, &t.ProjectID, &t.OwnerID, &t.Title, &t.Description,
		&t.Done, &t.Status, &t.Priority, &t.Term,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", err)
	}

	return &t, nil
}

func (r *TaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = $1
		 ORDER BY created_at
		 LIMIT 1000`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListByProject")
}

func (r *TaskRepo) ListByProjectAndOwner(ctx context.Context, projectID, ownerID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = $1 AND owner_id = $2
		 ORDER BY created_at
		 LIMIT 1000`,
		projectID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByProjectAndOwner: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListByProjectAndOwner")
}

// UpdateLifecycle sets done and optionally status, guarded on the owner
// column. The guard makes read-check-write a single atomic statement:
// racing mutations on one task serialize on the row lock and losers see
// either no row or a changed owner.
func (r *TaskRepo) UpdateLifecycle(ctx context.Context, id, expectedOwner uuid.UUID, done bool, status *domain.TaskStatus) (*domain.Task, error) {
	var t domain.Task

	err := r.pool.QueryRow(ctx,
		`UPDATE tasks
		 SET done = $1, status = COALESCE($2, status), updated_at = now()
		 WHERE id = $3 AND owner_id = $4
		 RETURNING `+taskColumns,
		done, status, id, expectedOwner,
	).Scan(
		&t.ID, &t.ProjectID, &t.OwnerID, &t.Title, &t.Description,
		&t.Done, &t.Status, &t.Priority, &t.Term,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyGuardMiss(ctx, id, "taskRepo.UpdateLifecycle")
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.UpdateLifecycle: %w", err)
	}

	return &t, nil
}

// TransferOwner reassigns the task, guarded on the current owner.
func (r *TaskRepo) TransferOwner(ctx context.Context, id, fromOwner, toOwner uuid.UUID) (*domain.Task, error) {
	var t domain.Task

	err := r.pool.QueryRow(ctx,
		`UPDATE tasks
		 SET owner_id = $1, updated_at = now()
		 WHERE id = $2 AND owner_id = $3
		 RETURNING `+taskColumns,
		toOwner, id, fromOwner,
	).Scan(
		&t.ID, &t.ProjectID, &t.OwnerID, &t.Title, &t.Description,
		&t.Done, &t.Status, &t.Priority, &t.Term,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyGuardMiss(ctx, id, "taskRepo.TransferOwner")
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.TransferOwner: %w", err)
	}

	return &t, nil
}

// DeleteOwned removes the task, guarded on the owner column.
func (r *TaskRepo) DeleteOwned(ctx context.Context, id, expectedOwner uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
		id, expectedOwner,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.DeleteOwned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyGuardMiss(ctx, id, "taskRepo.DeleteOwned")
	}

	return nil
}

// classifyGuardMiss distinguishes a missing row from a lost owner guard
// after a guarded mutation matched nothing: gone means NotFound, still
// present under another owner means Forbidden.
func (r *TaskRepo) classifyGuardMiss(ctx context.Context, id uuid.UUID, caller string) error {
	var exists bool

	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: classify: %w", caller, err)
	}

	if exists {
		return fmt.Errorf("%s: owner guard: %w", caller, domain.ErrForbidden)
	}
	return fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
}

func scanTasks(rows pgx.Rows, caller string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.OwnerID, &t.Title, &t.Description,
			&t.Done, &t.Status, &t.Priority, &t.Term,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return tasks, nil
}

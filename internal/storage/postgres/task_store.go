package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-task-tree/internal/models"
	"github.com/adanyl0v/go-task-tree/internal/services"
)

const tasksTable = "tasks"

var taskColumns = []string{
	"id",
	"parent_id",
	"owner_id",
	"status",
	"priority",
	"title",
	"description",
	"created_at",
	"completed_at",
}

var sortColumns = map[models.SortField]string{
	models.SortByCreatedAt:   "created_at",
	models.SortByCompletedAt: "completed_at",
	models.SortByPriority:    "priority",
}

type TaskStore struct {
	pool *pgxpool.Pool
	db   querier
	sb   squirrel.StatementBuilderType
}

func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{
		pool: pool,
		db:   pool,
		sb:   newStatementBuilder(),
	}
}

func (s *TaskStore) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	query, args, err := s.sb.Select(taskColumns...).
		From(tasksTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	task, err := scanTask(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to select task: %w", err)
	}
	return task, nil
}

func (s *TaskStore) List(ctx context.Context, q models.TaskQuery) ([]*models.Task, error) {
	query, args, err := buildListQuery(s.sb, q)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.queryTasks(ctx, query, args...)
}

func (s *TaskStore) ListDescendants(ctx context.Context, id int64) ([]*models.Task, error) {
	const selectDescendantsQuery = `
WITH RECURSIVE subtasks AS (
    SELECT %[1]s
    FROM tasks t
    WHERE t.parent_id = $1
    UNION
    SELECT %[1]s
    FROM tasks t
    JOIN subtasks s ON t.parent_id = s.id
)
SELECT %[2]s
FROM subtasks
ORDER BY id
`
	query := fmt.Sprintf(selectDescendantsQuery,
		qualifiedColumns("t", taskColumns),
		strings.Join(taskColumns, ", "))
	return s.queryTasks(ctx, query, id)
}

func (s *TaskStore) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query, args, err := s.sb.Insert(tasksTable).
		Columns(taskColumns[1:]...).
		Values(
			task.ParentID,
			task.OwnerID,
			string(task.Status),
			int(task.Priority),
			task.Title,
			task.Description,
			task.CreatedAt,
			task.CompletedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	created := *task
	err = s.db.QueryRow(ctx, query, args...).Scan(&created.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, services.NewValidationError("parent_id", "must reference an existing task")
		}
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return &created, nil
}

func (s *TaskStore) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query, args, err := s.sb.Update(tasksTable).
		Set("status", string(task.Status)).
		Set("priority", int(task.Priority)).
		Set("title", task.Title).
		Set("description", task.Description).
		Set("completed_at", task.CompletedAt).
		Where(squirrel.Eq{"id": task.ID}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	updated, err := scanTask(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	const deleteSubtreeQuery = `
WITH RECURSIVE subtree AS (
    SELECT id FROM tasks WHERE id = $1
    UNION
    SELECT t.id FROM tasks t
    JOIN subtree s ON t.parent_id = s.id
)
DELETE FROM tasks
WHERE id IN (SELECT id FROM subtree)
`
	tag, err := s.db.Exec(ctx, deleteSubtreeQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrTaskNotFound
	}
	return nil
}

func (s *TaskStore) InTx(ctx context.Context, fn func(store services.TaskStore) error) error {
	if s.pool == nil {
		// Already bound to a transaction.
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = fn(&TaskStore{db: tx, sb: s.sb})
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *TaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return tasks, nil
}

func buildListQuery(sb squirrel.StatementBuilderType, q models.TaskQuery) (string, []any, error) {
	query := sb.Select(taskColumns...).From(tasksTable)

	if q.Status != nil {
		query = query.Where(squirrel.Eq{"status": string(*q.Status)})
	}
	if q.Priority != nil {
		query = query.Where(squirrel.Eq{"priority": int(*q.Priority)})
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	if q.Sort != nil {
		if column, ok := sortColumns[q.Sort.Field]; ok {
			direction := "ASC"
			if q.Sort.Descending {
				direction = "DESC"
			}
			query = query.OrderBy(column + " " + direction)
		}
	}

	return query.OrderBy("id ASC").ToSql()
}

// escapeLike makes s match literally inside a LIKE pattern
// using the default backslash escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func qualifiedColumns(alias string, columns []string) string {
	qualified := make([]string, len(columns))
	for i, column := range columns {
		qualified[i] = alias + "." + column
	}
	return strings.Join(qualified, ", ")
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task     models.Task
		status   string
		priority int
	)
	err := row.Scan(
		&task.ID,
		&task.ParentID,
		&task.OwnerID,
		&status,
		&priority,
		&task.Title,
		&task.Description,
		&task.CreatedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = models.Status(status)
	task.Priority = models.Priority(priority)
	if task.CompletedAt != nil {
		utc := task.CompletedAt.UTC()
		task.CompletedAt = &utc
	}
	task.CreatedAt = task.CreatedAt.UTC()
	return &task, nil
}

var _ services.TaskStore = (*TaskStore)(nil)

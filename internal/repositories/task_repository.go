package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/lib/pq"

	"taskcal/internal/apperr"
	"taskcal/internal/models"
)

// TaskRepository is owner-scoped: every read and write filters on owner_id.
type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, ownerID, id int64) (*models.Task, error)
	FindAll(ctx context.Context, ownerID int64, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, ownerID, id int64) error

	ListDueForReminder(ctx context.Context, ownerID int64, today civil.Date, limit int) ([]models.Task, error)
	MarkReminded(ctx context.Context, ownerID int64, ids []int64, day civil.Date) error
}

const taskColumns = `id, owner_id, title, category, start_at, end_at, reminder_date,
       is_complete, last_reminded_on, created_at, updated_at`

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (models.Task, error) {
	var (
		t        models.Task
		category string
		reminder sql.NullTime
		reminded sql.NullTime
	)
	err := s.Scan(
		&t.ID, &t.OwnerID, &t.Title, &category, &t.Start, &t.End, &reminder,
		&t.IsComplete, &reminded, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	t.Category = models.Category(category)
	t.ReminderDate = scanDate(reminder)
	t.LastRemindedOn = scanDate(reminded)
	return t, nil
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			owner_id, title, category, start_at, end_at, reminder_date,
			is_complete, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, task.Title, string(task.Category), task.Start, task.End,
		nullDate(task.ReminderDate), task.IsComplete, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	return wrapErr("store task", err)
}

func (r *taskRepository) FindByID(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, wrapErr("find task", err)
	}
	return &task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, ownerID int64, filter models.TaskFilter) ([]models.Task, error) {
	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}
	argID := 2

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argID))
		args = append(args, string(*filter.Category))
		argID++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_at >= $%d", argID))
		args = append(args, *filter.From)
		argID++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_at < $%d", argID))
		args = append(args, *filter.To)
		argID++
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY start_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list tasks", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrapErr("scan task", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, wrapErr("list tasks", rows.Err())
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title=$1, category=$2, start_at=$3, end_at=$4,
			reminder_date=$5, is_complete=$6, updated_at=$7
		WHERE id=$8 AND owner_id=$9`
	res, err := r.db.ExecContext(ctx, query,
		task.Title, string(task.Category), task.Start, task.End,
		nullDate(task.ReminderDate), task.IsComplete, task.UpdatedAt,
		task.ID, task.OwnerID,
	)
	if err != nil {
		return wrapErr("update task", err)
	}
	return expectOneRow(res, "update task")
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return wrapErr("delete task", err)
	}
	return expectOneRow(res, "delete task")
}

// ListDueForReminder returns incomplete tasks whose reminder is due by today and
// has not been sent for that reminder date yet.
func (r *taskRepository) ListDueForReminder(ctx context.Context, ownerID int64, today civil.Date, limit int) ([]models.Task, error) {
	q := `
SELECT ` + taskColumns + `
FROM tasks
WHERE owner_id = $1
  AND reminder_date IS NOT NULL
  AND reminder_date <= $2
  AND (last_reminded_on IS NULL OR last_reminded_on < reminder_date)
  AND NOT is_complete
ORDER BY reminder_date ASC, id ASC
LIMIT $3`
	rows, err := r.db.QueryContext(ctx, q, ownerID, today.String(), limit)
	if err != nil {
		return nil, wrapErr("list due reminders", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrapErr("scan task", err)
		}
		out = append(out, t)
	}
	return out, wrapErr("list due reminders", rows.Err())
}

func (r *taskRepository) MarkReminded(ctx context.Context, ownerID int64, ids []int64, day civil.Date) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET last_reminded_on = $1 WHERE owner_id = $2 AND id = ANY($3)`,
		day.String(), ownerID, pq.Array(ids))
	return wrapErr("mark reminded", err)
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return apperr.NotFound("task not found")
	}
	return nil
}

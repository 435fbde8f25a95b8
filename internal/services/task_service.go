package services

import (
	"context"
	"log"
	"strings"
	"time"

	"taskcal/internal/apperr"
	"taskcal/internal/eventtime"
	"taskcal/internal/models"
	"taskcal/internal/reminder"
	"taskcal/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
// Every operation is scoped to the session's user.
type TaskService interface {
	Create(ctx context.Context, sess models.Session, in models.TaskInput) (*models.Task, error)
	GetByID(ctx context.Context, sess models.Session, id int64) (*models.Task, error)
	List(ctx context.Context, sess models.Session, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, sess models.Session, id int64, patch models.TaskPatch) (*models.Task, error)
	// Move applies a drag/resize edit from the calendar widget. An empty
	// rawEnd keeps the task's current duration.
	Move(ctx context.Context, sess models.Session, id int64, rawStart, rawEnd string) (*models.Task, error)
	SetComplete(ctx context.Context, sess models.Session, id int64, done bool) (*models.Task, error)
	Delete(ctx context.Context, sess models.Session, id int64) error

	// Reminders returns today's due reminders for the session user.
	Reminders(ctx context.Context, sess models.Session) ([]models.Task, error)
}

type taskService struct {
	repo          repositories.TaskRepository
	loc           *time.Location
	queryTimeout  time.Duration
	reminderLimit int
	now           func() time.Time
}

// NewTaskService creates a new instance of TaskService. loc is used for
// sessions that carry no location of their own.
func NewTaskService(repo repositories.TaskRepository, loc *time.Location, queryTimeout time.Duration, reminderLimit int) TaskService {
	return newTaskService(repo, loc, queryTimeout, reminderLimit)
}

func newTaskService(repo repositories.TaskRepository, loc *time.Location, queryTimeout time.Duration, reminderLimit int) *taskService {
	if reminderLimit <= 0 {
		reminderLimit = reminder.DefaultLimit
	}
	return &taskService{
		repo:          repo,
		loc:           loc,
		queryTimeout:  queryTimeout,
		reminderLimit: reminderLimit,
		now:           time.Now,
	}
}

func (s *taskService) normalizer(sess models.Session) *eventtime.Normalizer {
	if sess.Location != nil {
		return eventtime.New(sess.Location)
	}
	return eventtime.New(s.loc)
}

// resolveDays converts the inclusive day bounds of filter into instants.
func resolveDays(n *eventtime.Normalizer, filter models.TaskFilter) models.TaskFilter {
	if filter.FromDate != nil {
		from := filter.FromDate.In(n.Location())
		filter.From = &from
	}
	if filter.ToDate != nil {
		to := filter.ToDate.AddDays(1).In(n.Location())
		filter.To = &to
	}
	return filter
}

func checkTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title is required")
	}
	return title, nil
}

func (s *taskService) Create(ctx context.Context, sess models.Session, in models.TaskInput) (*models.Task, error) {
	title, err := checkTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if !in.Category.Valid() {
		return nil, apperr.Validation("unknown category %q", in.Category)
	}
	n := s.normalizer(sess)
	start, end, err := n.ToCanonical(in.Date, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		OwnerID:      sess.UserID,
		Title:        title,
		Category:     in.Category,
		Start:        start,
		End:          end,
		ReminderDate: reminder.ForStart(start, n.Location(), in.Category),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	s.present(n, task)
	log.Printf("[task][create][ok] id=%d owner=%d category=%s reminder=%v", task.ID, task.OwnerID, task.Category, task.ReminderDate)
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, sess models.Session, id int64) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	task, err := s.repo.FindByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	s.present(s.normalizer(sess), task)
	return task, nil
}

func (s *taskService) List(ctx context.Context, sess models.Session, filter models.TaskFilter) ([]models.Task, error) {
	n := s.normalizer(sess)
	filter = resolveDays(n, filter)

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	tasks, err := s.repo.FindAll(ctx, sess.UserID, filter)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		s.present(n, &tasks[i])
	}
	return tasks, nil
}

func (s *taskService) Update(ctx context.Context, sess models.Session, id int64, patch models.TaskPatch) (*models.Task, error) {
	current, err := s.GetByID(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	n := s.normalizer(sess)

	startDisp := n.ToDisplay(current.Start)
	endDisp := n.ToDisplay(current.End)
	date, startTime, endTime := startDisp.Date, startDisp.Time, endDisp.Time

	update := *current
	if patch.Title != nil {
		if update.Title, err = checkTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Category != nil {
		if !patch.Category.Valid() {
			return nil, apperr.Validation("unknown category %q", *patch.Category)
		}
		update.Category = *patch.Category
	}
	if patch.Date != nil {
		date = *patch.Date
	}
	if patch.StartTime != nil {
		startTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		endTime = *patch.EndTime
	}

	if update.Start, update.End, err = n.ToCanonical(date, startTime, endTime); err != nil {
		return nil, err
	}
	return s.save(ctx, n, &update, "update")
}

func (s *taskService) Move(ctx context.Context, sess models.Session, id int64, rawStart, rawEnd string) (*models.Task, error) {
	n := s.normalizer(sess)
	start, err := n.FromWidgetEdit(rawStart)
	if err != nil {
		return nil, err
	}
	var end time.Time
	if strings.TrimSpace(rawEnd) != "" {
		if end, err = n.FromWidgetEdit(rawEnd); err != nil {
			return nil, err
		}
	}

	current, err := s.GetByID(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = start.Add(current.End.Sub(current.Start))
	}
	if !end.After(start) {
		return nil, apperr.Validation("end time must be after start time")
	}
	if n.DateOf(start) != n.DateOf(end) {
		return nil, apperr.Validation("task must start and end on the same day")
	}

	update := *current
	update.Start, update.End = n.Canonical(start), n.Canonical(end)
	return s.save(ctx, n, &update, "move")
}

func (s *taskService) SetComplete(ctx context.Context, sess models.Session, id int64, done bool) (*models.Task, error) {
	current, err := s.GetByID(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	update := *current
	update.IsComplete = done
	return s.save(ctx, s.normalizer(sess), &update, "complete")
}

// save recomputes the reminder from the (possibly new) start and persists.
func (s *taskService) save(ctx context.Context, n *eventtime.Normalizer, task *models.Task, op string) (*models.Task, error) {
	task.ReminderDate = reminder.ForStart(task.Start, n.Location(), task.Category)
	task.UpdatedAt = s.now()

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	s.present(n, task)
	log.Printf("[task][%s][ok] id=%d owner=%d reminder=%v", op, task.ID, task.OwnerID, task.ReminderDate)
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, sess models.Session, id int64) error {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Delete(ctx, sess.UserID, id); err != nil {
		return err
	}
	log.Printf("[task][delete][ok] id=%d owner=%d", id, sess.UserID)
	return nil
}

func (s *taskService) Reminders(ctx context.Context, sess models.Session) ([]models.Task, error) {
	tasks, err := s.List(ctx, sess, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	today := s.normalizer(sess).Today(s.now())
	return reminder.Surface(tasks, today, s.reminderLimit), nil
}

// present puts stored instants back into the session zone.
func (s *taskService) present(n *eventtime.Normalizer, t *models.Task) {
	t.Start = n.Canonical(t.Start)
	t.End = n.Canonical(t.End)
}

package services

import (
	"context"
	"log"
	"math"
	"time"

	"taskcal/internal/apperr"
	"taskcal/internal/models"
	"taskcal/internal/repositories"
)

type SettingsService interface {
	Get(ctx context.Context, sess models.Session) (*models.Settings, error)
	Upsert(ctx context.Context, sess models.Session, in models.Settings) (*models.Settings, error)
	// MonthlyEarnings totals part-time job shifts starting in month (YYYY-MM).
	MonthlyEarnings(ctx context.Context, sess models.Session, month string) (*models.Earnings, error)
}

type settingsService struct {
	repo         repositories.SettingsRepository
	tasks        TaskService
	loc          *time.Location
	queryTimeout time.Duration
}

func NewSettingsService(repo repositories.SettingsRepository, tasks TaskService, loc *time.Location, queryTimeout time.Duration) SettingsService {
	return &settingsService{repo: repo, tasks: tasks, loc: loc, queryTimeout: queryTimeout}
}

func (s *settingsService) Get(ctx context.Context, sess models.Session) (*models.Settings, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	st, err := s.repo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &models.Settings{OwnerID: sess.UserID}
	}
	return st, nil
}

func (s *settingsService) Upsert(ctx context.Context, sess models.Session, in models.Settings) (*models.Settings, error) {
	if in.HourlyWage < 0 || in.FixedSalary < 0 {
		return nil, apperr.Validation("wage and salary must not be negative")
	}
	in.OwnerID = sess.UserID

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Upsert(ctx, &in); err != nil {
		return nil, err
	}
	log.Printf("[settings][upsert][ok] owner=%d wage=%d fixed=%d", in.OwnerID, in.HourlyWage, in.FixedSalary)
	return &in, nil
}

// ParseMonth resolves YYYY-MM to [first day, first day of next month) in loc.
func ParseMonth(month string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("month must be YYYY-MM")
	}
	return from, from.AddDate(0, 1, 0), nil
}

func (s *settingsService) location(sess models.Session) *time.Location {
	if sess.Location != nil {
		return sess.Location
	}
	return s.loc
}

func (s *settingsService) MonthlyEarnings(ctx context.Context, sess models.Session, month string) (*models.Earnings, error) {
	from, to, err := ParseMonth(month, s.location(sess))
	if err != nil {
		return nil, err
	}
	st, err := s.Get(ctx, sess)
	if err != nil {
		return nil, err
	}
	cat := models.CategoryPartTimeJob
	shifts, err := s.tasks.List(ctx, sess, models.TaskFilter{Category: &cat, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return computeEarnings(from.Format("2006-01"), shifts, st), nil
}

func computeEarnings(month string, shifts []models.Task, st *models.Settings) *models.Earnings {
	e := &models.Earnings{
		Month:       month,
		Shifts:      len(shifts),
		HourlyWage:  st.HourlyWage,
		FixedSalary: st.FixedSalary,
	}
	for _, t := range shifts {
		e.Hours += t.Hours()
	}
	e.Total = int64(math.Round(e.Hours*float64(st.HourlyWage))) + st.FixedSalary
	return e
}

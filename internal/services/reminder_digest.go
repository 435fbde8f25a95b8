package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"

	"taskcal/internal/eventtime"
	"taskcal/internal/models"
	"taskcal/internal/reminder"
	"taskcal/internal/repositories"
)

// ReminderDigest pushes due reminders to users who opted into e-mail or
// Telegram delivery. A reminder is sent once per reminder date.
type ReminderDigest struct {
	tasks        repositories.TaskRepository
	settings     repositories.SettingsRepository
	email        EmailService
	tg           *TelegramService
	norm         *eventtime.Normalizer
	limit        int
	queryTimeout time.Duration
	now          func() time.Time

	cron *cron.Cron
}

func NewReminderDigest(
	tasks repositories.TaskRepository,
	settings repositories.SettingsRepository,
	email EmailService,
	tg *TelegramService,
	loc *time.Location,
	limit int,
	queryTimeout time.Duration,
) *ReminderDigest {
	if limit <= 0 {
		limit = reminder.DefaultLimit
	}
	return &ReminderDigest{
		tasks:        tasks,
		settings:     settings,
		email:        email,
		tg:           tg,
		norm:         eventtime.New(loc),
		limit:        limit,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// RunOnce delivers today's digest and returns how many users were notified.
// Per-user failures are logged and joined into the returned error; other
// users are still processed.
func (d *ReminderDigest) RunOnce(ctx context.Context) (int, error) {
	today := d.norm.Today(d.now())

	listCtx, cancel := withTimeout(ctx, d.queryTimeout)
	targets, err := d.settings.ListNotifiable(listCtx)
	cancel()
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)
	for _, t := range targets {
		ok, err := d.notify(ctx, t, today)
		if err != nil {
			log.Printf("[digest][err] userID=%d: %v", t.UserID, err)
			errs = append(errs, fmt.Errorf("user %d: %w", t.UserID, err))
		}
		if ok {
			sent++
		}
	}
	log.Printf("[digest][done] day=%s targets=%d notified=%d", today, len(targets), sent)
	return sent, errors.Join(errs...)
}

func (d *ReminderDigest) notify(ctx context.Context, t models.NotifyTarget, today civil.Date) (bool, error) {
	qctx, cancel := withTimeout(ctx, d.queryTimeout)
	due, err := d.tasks.ListDueForReminder(qctx, t.UserID, today, d.limit)
	cancel()
	if err != nil || len(due) == 0 {
		return false, err
	}

	lines := make([]string, 0, len(due))
	for _, task := range due {
		lines = append(lines, reminderLine(d.norm, task))
	}

	delivered := false
	var errs []error
	if t.Settings.NotifyEmail && d.email != nil {
		if err := d.email.SendReminderDigest(t.Email, lines); err != nil {
			errs = append(errs, err)
		} else {
			delivered = true
		}
	}
	if t.Settings.TelegramChatID != 0 && d.tg.Enabled() {
		text := "<b>Reminders</b>\n" + html.EscapeString(strings.Join(lines, "\n"))
		if err := d.tg.SendMessage(t.Settings.TelegramChatID, text); err != nil {
			errs = append(errs, err)
		} else {
			delivered = true
		}
	}
	if !delivered {
		return false, errors.Join(errs...)
	}

	ids := make([]int64, 0, len(due))
	for _, task := range due {
		ids = append(ids, task.ID)
	}
	mctx, cancel := withTimeout(ctx, d.queryTimeout)
	defer cancel()
	if err := d.tasks.MarkReminded(mctx, t.UserID, ids, today); err != nil {
		errs = append(errs, err)
	}
	return true, errors.Join(errs...)
}

// reminderLine renders "2026-03-15 10:00 Title [Test]" in the normalizer's zone.
func reminderLine(n *eventtime.Normalizer, task models.Task) string {
	start := n.ToDisplay(task.Start)
	return fmt.Sprintf("%s %02d:%02d %s [%s]",
		start.Date, start.Time.Hour, start.Time.Minute, task.Title, task.Category.Label())
}

// Start schedules RunOnce with a standard 5-field cron spec evaluated in the
// digest's zone.
func (d *ReminderDigest) Start(spec string) error {
	c := cron.New(cron.WithLocation(d.norm.Location()))
	_, err := c.AddFunc(spec, func() {
		if _, err := d.RunOnce(context.Background()); err != nil {
			log.Printf("[digest][run][err] %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("digest schedule %q: %w", spec, err)
	}
	d.cron = c
	c.Start()
	log.Printf("[digest] scheduled %q in %s", spec, d.norm.Location())
	return nil
}

// Stop halts the scheduler and waits for a running digest to finish.
func (d *ReminderDigest) Stop() {
	if d.cron == nil {
		return
	}
	<-d.cron.Stop().Done()
}

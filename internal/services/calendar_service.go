package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"

	"taskcal/internal/models"
)

// CalendarService shapes stored tasks for the calendar widget and for
// external calendar clients.
type CalendarService interface {
	Events(ctx context.Context, sess models.Session, filter models.TaskFilter) ([]models.CalendarEvent, error)
	// Feed renders the user's tasks as an iCalendar document.
	Feed(ctx context.Context, sess models.Session) (string, error)
}

type calendarService struct {
	tasks TaskService
	now   func() time.Time
}

func NewCalendarService(tasks TaskService) CalendarService {
	return &calendarService{tasks: tasks, now: time.Now}
}

func (s *calendarService) Events(ctx context.Context, sess models.Session, filter models.TaskFilter) ([]models.CalendarEvent, error) {
	tasks, err := s.tasks.List(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	events := make([]models.CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		events = append(events, EventOf(t))
	}
	log.Printf("[calendar][events][ok] owner=%d count=%d", sess.UserID, len(events))
	return events, nil
}

// EventOf relies on the task already being expressed in the session zone.
func EventOf(t models.Task) models.CalendarEvent {
	return models.CalendarEvent{
		ID:         t.ID,
		Title:      t.Title,
		Start:      civil.DateTimeOf(t.Start),
		End:        civil.DateTimeOf(t.End),
		Color:      t.Category.Color(),
		Category:   t.Category,
		IsComplete: t.IsComplete,
	}
}

const (
	completedPrefix = "✓ "
	propCompleted   = ical.ComponentProperty("X-TASKCAL-COMPLETED")
)

func (s *calendarService) Feed(ctx context.Context, sess models.Session) (string, error) {
	tasks, err := s.tasks.List(ctx, sess, models.TaskFilter{})
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//taskcal//calendar feed//EN")

	stamp := s.now().UTC()
	for _, t := range tasks {
		ev := cal.AddEvent(fmt.Sprintf("task-%d@taskcal", t.ID))
		ev.SetDtStampTime(stamp)
		ev.SetCreatedTime(t.CreatedAt)
		ev.SetModifiedAt(t.UpdatedAt)
		ev.SetStartAt(t.Start)
		ev.SetEndAt(t.End)
		ev.SetProperty(ical.ComponentPropertyCategories, string(t.Category))
		ev.SetProperty(ical.ComponentProperty("COLOR"), t.Category.Color())
		// VEVENT has no COMPLETED status; completion goes into the title and an X- flag.
		ev.SetStatus(ical.ObjectStatusConfirmed)
		if t.IsComplete {
			ev.SetSummary(completedPrefix + t.Title)
			ev.SetProperty(propCompleted, "TRUE")
		} else {
			ev.SetSummary(t.Title)
		}
	}
	log.Printf("[calendar][feed][ok] owner=%d events=%d", sess.UserID, len(tasks))
	return cal.Serialize(), nil
}

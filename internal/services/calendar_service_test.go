package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"

	"taskcal/internal/models"
)

func TestCalendarService_Events(t *testing.T) {
	tasks, _, sess := newTestTaskService(t)
	mustCreate(t, tasks, sess, models.TaskInput{Title: "Midterm", Category: models.CategoryTest,
		Date: date(2026, 3, 15), StartTime: clock(10, 0), EndTime: clock(11, 0)})
	mustCreate(t, tasks, sess, models.TaskInput{Title: "Shift", Category: models.CategoryPartTimeJob,
		Date: date(2026, 3, 14), StartTime: clock(18, 0), EndTime: clock(22, 0)})

	cal := NewCalendarService(tasks)
	events, err := cal.Events(context.Background(), sess, models.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	// ordered by start
	first := events[0]
	if first.Title != "Shift" || first.Color != "#9370DB" {
		t.Errorf("first event %+v", first)
	}
	wantStart := civil.DateTime{Date: date(2026, 3, 14), Time: clock(18, 0)}
	if first.Start != wantStart {
		t.Errorf("start = %v, want %v", first.Start, wantStart)
	}
	if got := events[1].Start.String(); got != "2026-03-15T10:00:00" {
		t.Errorf("naive start = %s", got)
	}
}

func TestCalendarService_Feed(t *testing.T) {
	tasks, _, sess := newTestTaskService(t)
	task := mustCreate(t, tasks, sess, models.TaskInput{Title: "Midterm", Category: models.CategoryTest,
		Date: date(2026, 3, 15), StartTime: clock(10, 0), EndTime: clock(11, 0)})

	svc := NewCalendarService(tasks)
	body, err := svc.Feed(context.Background(), sess)
	if err != nil {
		t.Fatal(err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d", len(events))
	}
	ev := events[0]
	if p := ev.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Midterm" {
		t.Errorf("summary = %+v", p)
	}
	start, err := ev.GetStartAt()
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(task.Start) {
		t.Errorf("DTSTART = %v, want %v", start, task.Start)
	}
	if !start.Equal(time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)) {
		t.Errorf("DTSTART UTC = %v", start.UTC())
	}
}

func TestCalendarService_FeedCompletedTask(t *testing.T) {
	tasks, _, sess := newTestTaskService(t)
	task := mustCreate(t, tasks, sess, models.TaskInput{Title: "Essay", Category: models.CategoryAssignment,
		Date: date(2026, 3, 15), StartTime: clock(9, 0), EndTime: clock(10, 0)})
	if _, err := tasks.SetComplete(context.Background(), sess, task.ID, true); err != nil {
		t.Fatal(err)
	}

	body, err := NewCalendarService(tasks).Feed(context.Background(), sess)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "STATUS:COMPLETED") {
		t.Errorf("VEVENT must not carry STATUS:COMPLETED:\n%s", body)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	ev := cal.Events()[0]
	if p := ev.GetProperty(ical.ComponentPropertyStatus); p == nil || p.Value != string(ical.ObjectStatusConfirmed) {
		t.Errorf("status = %+v", p)
	}
	if p := ev.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "✓ Essay" {
		t.Errorf("summary = %+v", p)
	}
	if p := ev.GetProperty(ical.ComponentProperty("X-TASKCAL-COMPLETED")); p == nil || p.Value != "TRUE" {
		t.Errorf("completed flag = %+v", p)
	}
}

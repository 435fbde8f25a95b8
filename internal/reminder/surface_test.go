package reminder

import (
	"testing"

	"cloud.google.com/go/civil"

	"taskcal/internal/models"
)

func task(id int64, rem *civil.Date, done bool) models.Task {
	return models.Task{ID: id, Title: "t", Category: models.CategoryTest, ReminderDate: rem, IsComplete: done}
}

func ptr(d civil.Date) *civil.Date { return &d }

func ids(tasks []models.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSurface_Empty(t *testing.T) {
	if got := Surface(nil, date(2026, 3, 10), 3); len(got) != 0 {
		t.Fatalf("Surface(nil) = %v", got)
	}
}

func TestSurface_Single(t *testing.T) {
	got := Surface([]models.Task{task(7, ptr(date(2026, 3, 10)), false)}, date(2026, 3, 10), 3)
	if !equalIDs(ids(got), []int64{7}) {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSurface_FiltersOrdersAndCaps(t *testing.T) {
	today := date(2026, 3, 10)
	tasks := []models.Task{
		task(1, ptr(date(2026, 3, 9)), false),
		task(2, nil, false),                   // no reminder
		task(3, ptr(date(2026, 3, 1)), true),  // completed
		task(4, ptr(date(2026, 3, 11)), false), // tomorrow
		task(5, ptr(date(2026, 2, 28)), false),
		task(6, ptr(date(2026, 3, 9)), false),
		task(9, ptr(date(2026, 3, 10)), false),
		task(8, ptr(date(2026, 3, 9)), false),
	}

	got := Surface(tasks, today, 4)
	if want := []int64{5, 1, 6, 8}; !equalIDs(ids(got), want) {
		t.Fatalf("Surface = %v, want %v", ids(got), want)
	}

	all := Surface(tasks, today, 100)
	if want := []int64{5, 1, 6, 8, 9}; !equalIDs(ids(all), want) {
		t.Fatalf("Surface(all) = %v, want %v", ids(all), want)
	}
}

func TestSurface_DefaultLimit(t *testing.T) {
	var tasks []models.Task
	for i := int64(1); i <= DefaultLimit+3; i++ {
		tasks = append(tasks, task(i, ptr(date(2026, 1, 1)), false))
	}
	if got := Surface(tasks, date(2026, 1, 1), 0); len(got) != DefaultLimit {
		t.Fatalf("len = %d, want %d", len(got), DefaultLimit)
	}
}

func TestSurface_CompletedPastReminderNeverShown(t *testing.T) {
	tasks := []models.Task{task(1, ptr(date(2025, 1, 1)), true)}
	if got := Surface(tasks, date(2026, 3, 10), 5); len(got) != 0 {
		t.Fatalf("completed task surfaced: %v", ids(got))
	}
}

func TestSurface_DoesNotMutateInput(t *testing.T) {
	tasks := []models.Task{
		task(2, ptr(date(2026, 3, 2)), false),
		task(1, ptr(date(2026, 3, 1)), false),
	}
	Surface(tasks, date(2026, 3, 10), 5)
	if tasks[0].ID != 2 {
		t.Error("input slice was reordered")
	}
}

package reminder

import (
	"sort"

	"cloud.google.com/go/civil"

	"taskcal/internal/models"
)

// DefaultLimit caps how many reminders are surfaced at once.
const DefaultLimit = 5

// Surface picks the reminders due on or before today from tasks: incomplete,
// with a reminder date, ordered by reminder date then id, capped at limit.
// A non-positive limit means DefaultLimit.
func Surface(tasks []models.Task, today civil.Date, limit int) []models.Task {
	if limit <= 0 {
		limit = DefaultLimit
	}

	due := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsComplete || t.ReminderDate == nil {
			continue
		}
		if t.ReminderDate.After(today) {
			continue
		}
		due = append(due, t)
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := *due[i].ReminderDate, *due[j].ReminderDate
		if a != b {
			return a.Before(b)
		}
		return due[i].ID < due[j].ID
	})

	if len(due) > limit {
		due = due[:limit]
	}
	return due
}

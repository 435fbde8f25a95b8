// Package reminder derives reminder trigger dates from task categories and
// selects which reminders are due.
package reminder

import (
	"time"

	"cloud.google.com/go/civil"

	"taskcal/internal/models"
)

// offsets maps a category to the day offset applied to the task's start date.
// Errand reminders fire a fixed 30 days after the start date, not one calendar
// month later, so there is no month-end clamping.
var offsets = map[models.Category]int{
	models.CategoryTest:        -14,
	models.CategoryAssignment:  -3,
	models.CategoryLeisure:     -1,
	models.CategoryPartTimeJob: -1,
	models.CategoryErrand:      30,
}

// Compute returns the reminder date for a task starting on start, or false when
// the category has no reminder.
func Compute(start civil.Date, category models.Category) (civil.Date, bool) {
	days, ok := offsets[category]
	if !ok {
		return civil.Date{}, false
	}
	return start.AddDays(days), true
}

// ForStart computes the reminder for a canonical start instant, taking its
// civil date in loc. The result is ready to store on models.Task.
func ForStart(start time.Time, loc *time.Location, category models.Category) *civil.Date {
	d, ok := Compute(civil.DateOf(start.In(loc)), category)
	if !ok {
		return nil
	}
	return &d
}

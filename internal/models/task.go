// internal/models/task.go
package models

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Category defines what kind of task this is; it drives the reminder rule.
type Category string

const (
	CategoryTest        Category = "test"
	CategoryAssignment  Category = "assignment"
	CategoryErrand      Category = "errand"
	CategoryLeisure     Category = "leisure"
	CategoryPartTimeJob Category = "part_time_job"
	CategoryOther       Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTest,
	CategoryAssignment,
	CategoryErrand,
	CategoryLeisure,
	CategoryPartTimeJob,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryTest:        "テスト",
	CategoryAssignment:  "課題",
	CategoryErrand:      "日用品",
	CategoryLeisure:     "遊び",
	CategoryPartTimeJob: "バイト",
	CategoryOther:       "その他",
}

var categoryColors = map[Category]string{
	CategoryTest:        "#FF4B4B",
	CategoryAssignment:  "#FFA500",
	CategoryErrand:      "#1E90FF",
	CategoryLeisure:     "#32CD32",
	CategoryPartTimeJob: "#9370DB",
	CategoryOther:       "#808080",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label is the Japanese display name.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Color is the calendar color for the category.
func (c Category) Color() string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[CategoryOther]
}

// ParseCategory accepts wire values (any case, "-" or "_" separated) and Japanese labels.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	norm := Category(strings.ReplaceAll(strings.ToLower(s), "-", "_"))
	if norm == "parttimejob" {
		norm = CategoryPartTimeJob
	}
	if norm.Valid() {
		return norm, true
	}
	for c, label := range categoryLabels {
		if label == s {
			return c, true
		}
	}
	return "", false
}

// Task is one scheduled todo item owned by a single user.
type Task struct {
	ID             int64       `json:"id"`
	OwnerID        int64       `json:"owner_id"`
	Title          string      `json:"title"`
	Category       Category    `json:"category"`
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
	ReminderDate   *civil.Date `json:"reminder_date,omitempty"`
	IsComplete     bool        `json:"is_complete"`
	LastRemindedOn *civil.Date `json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Hours is the task length in hours.
func (t Task) Hours() float64 {
	return t.End.Sub(t.Start).Hours()
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	Category *Category
	From     *time.Time // start_at >= From
	To       *time.Time // start_at < To

	// FromDate/ToDate are inclusive days in the display zone; the task
	// service turns them into From/To.
	FromDate *civil.Date
	ToDate   *civil.Date
}

// CalendarEvent is the display record handed to the calendar widget.
// Start/End are naive wall-clock values in the configured zone.
type CalendarEvent struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	Start      civil.DateTime `json:"start"`
	End        civil.DateTime `json:"end"`
	Color      string         `json:"color"`
	Category   Category       `json:"category"`
	IsComplete bool           `json:"is_complete"`
}

// TaskInput is the create form: a civil date plus start/end wall-clock times.
type TaskInput struct {
	Title     string
	Category  Category
	Date      civil.Date
	StartTime civil.Time
	EndTime   civil.Time
}

// TaskPatch carries the fields of a partial update; nil means unchanged.
type TaskPatch struct {
	Title     *string
	Category  *Category
	Date      *civil.Date
	StartTime *civil.Time
	EndTime   *civil.Time
}

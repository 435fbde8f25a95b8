package reminder

import (
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"

	"taskcal/internal/models"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestCompute_RuleTable(t *testing.T) {
	start := date(2026, 3, 15)
	tests := []struct {
		category models.Category
		want     civil.Date
		ok       bool
	}{
		{models.CategoryTest, date(2026, 3, 1), true},
		{models.CategoryAssignment, date(2026, 3, 12), true},
		{models.CategoryLeisure, date(2026, 3, 14), true},
		{models.CategoryPartTimeJob, date(2026, 3, 14), true},
		{models.CategoryErrand, date(2026, 4, 14), true},
		{models.CategoryOther, civil.Date{}, false},
		{models.Category("unknown"), civil.Date{}, false},
	}
	for _, tt := range tests {
		got, ok := Compute(start, tt.category)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Compute(%s, %s) = %s, %v; want %s, %v", start, tt.category, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCompute_CrossesBoundaries(t *testing.T) {
	tests := []struct {
		start    civil.Date
		category models.Category
		want     civil.Date
	}{
		{date(2026, 1, 3), models.CategoryTest, date(2025, 12, 20)},
		{date(2026, 3, 1), models.CategoryAssignment, date(2026, 2, 26)},
		{date(2028, 3, 1), models.CategoryLeisure, date(2028, 2, 29)},
		{date(2026, 1, 1), models.CategoryPartTimeJob, date(2025, 12, 31)},
		{date(2026, 1, 31), models.CategoryErrand, date(2026, 3, 2)},
		{date(2026, 12, 15), models.CategoryErrand, date(2027, 1, 14)},
	}
	for _, tt := range tests {
		got, ok := Compute(tt.start, tt.category)
		if !ok || got != tt.want {
			t.Errorf("Compute(%s, %s) = %s; want %s", tt.start, tt.category, got, tt.want)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	for d := date(2026, 1, 1); d.Before(date(2027, 1, 1)); d = d.AddDays(1) {
		for _, c := range models.Categories {
			a, okA := Compute(d, c)
			b, okB := Compute(d, c)
			if a != b || okA != okB {
				t.Fatalf("Compute(%s, %s) not deterministic", d, c)
			}
		}
	}
}

func TestForStart_UsesZoneDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	// 2026-03-14 23:30 UTC is 2026-03-15 08:30 in Tokyo
	start := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	got := ForStart(start, loc, models.CategoryTest)
	if got == nil || *got != date(2026, 3, 1) {
		t.Fatalf("ForStart = %v, want 2026-03-01", got)
	}
	if ForStart(start, loc, models.CategoryOther) != nil {
		t.Error("Other should have no reminder")
	}
}

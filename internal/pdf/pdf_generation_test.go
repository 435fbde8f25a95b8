package pdf

import (
	"bytes"
	"testing"
	"time"

	"taskcal/internal/models"
)

func TestMonthlyReport_CoreFont(t *testing.T) {
	g := NewReportGenerator("")
	var buf bytes.Buffer
	err := g.MonthlyReport(&buf, ReportData{
		Month: "2026-03",
		Rows: []ReportRow{
			{Date: "2026-03-15", Time: "10:00-11:00", Category: models.CategoryTest, Title: "Midterm", Done: false},
			{Date: "2026-03-16", Time: "18:00-22:00", Category: models.CategoryPartTimeJob, Title: "Café shift", Done: true},
		},
		Earnings:    models.Earnings{Month: "2026-03", Shifts: 1, Hours: 4, HourlyWage: 1200, Total: 4800},
		GeneratedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestMonthlyReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReportGenerator("").MonthlyReport(&buf, ReportData{Month: "2026-02"}); err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
}

func TestMonthlyReport_MissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := NewReportGenerator("/nonexistent/font.ttf").MonthlyReport(&buf, ReportData{Month: "2026-02"})
	if err == nil {
		t.Fatal("expected error for missing font file")
	}
}

package services

import (
	"context"
	"io"
	"log"
	"time"

	"taskcal/internal/models"
	"taskcal/internal/pdf"
)

type ReportService interface {
	// MonthlyPDF writes the month's schedule and earnings as a PDF to w.
	MonthlyPDF(ctx context.Context, sess models.Session, month string, w io.Writer) error
}

type reportService struct {
	tasks    TaskService
	settings SettingsService
	gen      pdf.Generator
	loc      *time.Location
	now      func() time.Time
}

func NewReportService(tasks TaskService, settings SettingsService, gen pdf.Generator, loc *time.Location) ReportService {
	return &reportService{tasks: tasks, settings: settings, gen: gen, loc: loc, now: time.Now}
}

func (s *reportService) MonthlyPDF(ctx context.Context, sess models.Session, month string, w io.Writer) error {
	loc := s.loc
	if sess.Location != nil {
		loc = sess.Location
	}
	from, to, err := ParseMonth(month, loc)
	if err != nil {
		return err
	}
	tasks, err := s.tasks.List(ctx, sess, models.TaskFilter{From: &from, To: &to})
	if err != nil {
		return err
	}
	earnings, err := s.settings.MonthlyEarnings(ctx, sess, month)
	if err != nil {
		return err
	}

	data := pdf.ReportData{
		Month:       from.Format("2006-01"),
		Earnings:    *earnings,
		GeneratedAt: s.now().In(loc),
	}
	for _, t := range tasks {
		data.Rows = append(data.Rows, pdf.ReportRow{
			Date:     t.Start.Format("2006-01-02"),
			Time:     t.Start.Format("15:04") + "-" + t.End.Format("15:04"),
			Category: t.Category,
			Title:    t.Title,
			Done:     t.IsComplete,
		})
	}
	if err := s.gen.MonthlyReport(w, data); err != nil {
		return err
	}
	log.Printf("[report][monthly][ok] owner=%d month=%s rows=%d", sess.UserID, data.Month, len(data.Rows))
	return nil
}

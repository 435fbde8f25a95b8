package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskcal/internal/models"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	MonthlyReport(w io.Writer, data ReportData) error
}

// ReportGenerator renders the monthly schedule and earnings report.
type ReportGenerator struct {
	FontPath string // TTF with CJK glyphs; empty falls back to a core font
	fontName string
}

type ReportRow struct {
	Date     string // 2006-01-02
	Time     string // 15:04-16:00
	Category models.Category
	Title    string
	Done     bool
}

type ReportData struct {
	Month       string // YYYY-MM
	Rows        []ReportRow
	Earnings    models.Earnings
	GeneratedAt time.Time
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	g := &ReportGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "NotoSansJP"
	}
	return g
}

func (g *ReportGenerator) MonthlyReport(w io.Writer, data ReportData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Monthly report "+data.Month, true)
	pdf.SetAuthor("taskcal", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	tr := g.setupFont(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, tr("Monthly report "+data.Month), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 9)
	pdf.CellFormat(0, 5, tr("generated "+data.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	g.hr(pdf)

	// ===== Tasks
	g.sectionTitle(pdf, tr("Tasks"))
	widths := []float64{25, 25, 30, 85, 15}
	pdf.SetFont(g.fontName, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Date", "Time", "Category", "Title", "Done"} {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.fontName, "", 10)
	if len(data.Rows) == 0 {
		pdf.CellFormat(0, 7, tr("no tasks this month"), "1", 1, "C", false, 0, "")
	}
	for _, r := range data.Rows {
		done := ""
		if r.Done {
			done = "x"
		}
		cells := []string{r.Date, r.Time, g.categoryName(r.Category), r.Title, done}
		for i, v := range cells {
			pdf.CellFormat(widths[i], 7, tr(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// ===== Earnings
	g.sectionTitle(pdf, tr("Earnings"))
	e := data.Earnings
	g.kvLine(pdf, tr, "Shifts", fmt.Sprintf("%d", e.Shifts))
	g.kvLine(pdf, tr, "Hours", fmt.Sprintf("%.2f", e.Hours))
	g.kvLine(pdf, tr, "Hourly wage", fmt.Sprintf("%d", e.HourlyWage))
	g.kvLine(pdf, tr, "Fixed salary", fmt.Sprintf("%d", e.FixedSalary))
	g.kvLine(pdf, tr, "Total", fmt.Sprintf("%d", e.Total))

	// ===== Нумерация страниц
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(g.fontName, "", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	return pdf.Output(w)
}

// setupFont registers the TTF when configured and returns the text
// translator matching the chosen font.
func (g *ReportGenerator) setupFont(pdf *gofpdf.Fpdf) func(string) string {
	if g.FontPath == "" {
		return pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	return func(s string) string { return s }
}

// core fonts cannot draw Japanese, so fall back to the wire value
func (g *ReportGenerator) categoryName(c models.Category) string {
	if g.FontPath == "" {
		return string(c)
	}
	return c.Label()
}

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, tr func(string) string, key, val string) {
	pdf.SetFont(g.fontName, "B", 10)
	pdf.CellFormat(40, 6, tr(key+":"), "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, tr(val), "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(15, y, 195, y)
	pdf.SetY(y + 3)
}

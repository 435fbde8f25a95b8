package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskcal/internal/services"
)

type ReportHandler struct {
	Service services.ReportService
}

func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// @Summary   Monthly PDF report
// @Tags      Reports
// @Security  BearerAuth
// @Produce   application/pdf
// @Param     month  query  string  true  "YYYY-MM"
// @Success   200
// @Failure   400  {object}  ErrorResponse
// @Router    /reports/monthly.pdf [get]
func (h *ReportHandler) MonthlyPDF(c *gin.Context) {
	sess, ok := mustSession(c, "report][monthly")
	if !ok {
		return
	}
	month := c.Query("month")

	// buffered so a render failure can still become a JSON error
	var buf bytes.Buffer
	if err := h.Service.MonthlyPDF(c.Request.Context(), sess, month, &buf); err != nil {
		respondError(c, "report][monthly", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.pdf"`, month))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

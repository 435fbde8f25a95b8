package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskcal/internal/services"
)

type CalendarHandler struct {
	calendar services.CalendarService
	tasks    services.TaskService
}

func NewCalendarHandler(calendar services.CalendarService, tasks services.TaskService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, tasks: tasks}
}

// moveRequest carries the raw timestamps the widget produced after a drag
// or resize. End may be omitted to keep the duration.
type moveRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end"`
}

// @Summary   Calendar events
// @Tags      Calendar
// @Security  BearerAuth
// @Produce   json
// @Param     from  query    string  false  "First day (YYYY-MM-DD)"
// @Param     to    query    string  false  "Last day, inclusive (YYYY-MM-DD)"
// @Success   200   {array}  models.CalendarEvent
// @Router    /calendar/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	sess, ok := mustSession(c, "calendar][events")
	if !ok {
		return
	}
	filter, err := parseRangeFilter(c)
	if err != nil {
		respondError(c, "calendar][events", err)
		return
	}
	events, err := h.calendar.Events(c.Request.Context(), sess, filter)
	if err != nil {
		respondError(c, "calendar][events", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// @Summary   Apply a drag/resize edit
// @Tags      Calendar
// @Security  BearerAuth
// @Accept    json
// @Produce   json
// @Param     id    path      int          true  "Task ID"
// @Param     body  body      moveRequest  true  "Widget timestamps"
// @Success   200   {object}  models.CalendarEvent
// @Failure   400   {object}  ErrorResponse
// @Router    /calendar/events/{id} [patch]
func (h *CalendarHandler) Move(c *gin.Context) {
	sess, ok := mustSession(c, "calendar][move")
	if !ok {
		return
	}
	id, ok := parseID(c, "calendar][move")
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "calendar][move", err)
		return
	}
	task, err := h.tasks.Move(c.Request.Context(), sess, id, req.Start, req.End)
	if err != nil {
		respondError(c, "calendar][move", err)
		return
	}
	c.JSON(http.StatusOK, services.EventOf(*task))
}

// GET /calendar/feed.ics
func (h *CalendarHandler) Feed(c *gin.Context) {
	sess, ok := mustSession(c, "calendar][feed")
	if !ok {
		return
	}
	body, err := h.calendar.Feed(c.Request.Context(), sess)
	if err != nil {
		respondError(c, "calendar][feed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="taskcal.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

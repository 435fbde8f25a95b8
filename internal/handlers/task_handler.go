package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskcal/internal/models"
	"taskcal/internal/services"
)

type TaskHandler struct {
	service services.TaskService
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title     string `json:"title" binding:"required"`
	Date      string `json:"date" binding:"required"`       // 2006-01-02
	StartTime string `json:"start_time" binding:"required"` // 15:04
	EndTime   string `json:"end_time" binding:"required"`   // 15:04
	Category  string `json:"category" binding:"required"`   // test|assignment|errand|leisure|part_time_job|other
}

type updateTaskRequest struct {
	Title     *string `json:"title"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Category  *string `json:"category"`
}

type completeRequest struct {
	IsComplete *bool `json:"is_complete" binding:"required"`
}

func (r createTaskRequest) toInput() (models.TaskInput, error) {
	var (
		in  = models.TaskInput{Title: r.Title}
		err error
	)
	if in.Category, err = parseCategory(r.Category); err != nil {
		return in, err
	}
	if in.Date, err = parseDate(r.Date); err != nil {
		return in, err
	}
	if in.StartTime, err = parseClock(r.StartTime); err != nil {
		return in, err
	}
	if in.EndTime, err = parseClock(r.EndTime); err != nil {
		return in, err
	}
	return in, nil
}

func (r updateTaskRequest) toPatch() (models.TaskPatch, error) {
	patch := models.TaskPatch{Title: r.Title}
	if r.Category != nil {
		cat, err := parseCategory(*r.Category)
		if err != nil {
			return patch, err
		}
		patch.Category = &cat
	}
	if r.Date != nil {
		d, err := parseDate(*r.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if r.StartTime != nil {
		t, err := parseClock(*r.StartTime)
		if err != nil {
			return patch, err
		}
		patch.StartTime = &t
	}
	if r.EndTime != nil {
		t, err := parseClock(*r.EndTime)
		if err != nil {
			return patch, err
		}
		patch.EndTime = &t
	}
	return patch, nil
}

// @Summary   Create task
// @Tags      Tasks
// @Security  BearerAuth
// @Accept    json
// @Produce   json
// @Param     task  body      createTaskRequest  true  "Task form"
// @Success   201   {object}  models.Task
// @Failure   400   {object}  ErrorResponse
// @Failure   503   {object}  ErrorResponse
// @Router    /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	sess, ok := mustSession(c, "task][create")
	if !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		badRequest(c, "task][create", err)
		return
	}
	log.Printf("[task][create] userID=%d title=%q date=%q %s-%s category=%q",
		sess.UserID, req.Title, req.Date, req.StartTime, req.EndTime, req.Category)

	in, err := req.toInput()
	if err != nil {
		respondError(c, "task][create", err)
		return
	}
	task, err := h.service.Create(c.Request.Context(), sess, in)
	if err != nil {
		respondError(c, "task][create", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	sess, ok := mustSession(c, "task][getByID")
	if !ok {
		return
	}
	id, ok := parseID(c, "task][getByID")
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), sess, id)
	if err != nil {
		respondError(c, "task][getByID", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary   List tasks
// @Tags      Tasks
// @Security  BearerAuth
// @Produce   json
// @Param     category  query     string  false  "Category filter"
// @Param     from      query     string  false  "First day (YYYY-MM-DD)"
// @Param     to        query     string  false  "Last day, inclusive (YYYY-MM-DD)"
// @Success   200       {array}   models.Task
// @Router    /tasks [get]
func (h *TaskHandler) GetAll(c *gin.Context) {
	sess, ok := mustSession(c, "task][list")
	if !ok {
		return
	}
	filter, err := parseRangeFilter(c)
	if err != nil {
		respondError(c, "task][list", err)
		return
	}
	tasks, err := h.service.List(c.Request.Context(), sess, filter)
	if err != nil {
		respondError(c, "task][list", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	log.Printf("[task][list][ok] userID=%d count=%d", sess.UserID, len(tasks))
	c.JSON(http.StatusOK, tasks)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	sess, ok := mustSession(c, "task][update")
	if !ok {
		return
	}
	id, ok := parseID(c, "task][update")
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task][update", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respondError(c, "task][update", err)
		return
	}
	task, err := h.service.Update(c.Request.Context(), sess, id, patch)
	if err != nil {
		respondError(c, "task][update", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	sess, ok := mustSession(c, "task][complete")
	if !ok {
		return
	}
	id, ok := parseID(c, "task][complete")
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task][complete", err)
		return
	}
	task, err := h.service.SetComplete(c.Request.Context(), sess, id, *req.IsComplete)
	if err != nil {
		respondError(c, "task][complete", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	sess, ok := mustSession(c, "task][delete")
	if !ok {
		return
	}
	id, ok := parseID(c, "task][delete")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), sess, id); err != nil {
		respondError(c, "task][delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary   Due reminders
// @Tags      Reminders
// @Security  BearerAuth
// @Produce   json
// @Success   200  {array}  models.Task
// @Router    /reminders [get]
func (h *TaskHandler) Reminders(c *gin.Context) {
	sess, ok := mustSession(c, "reminder][list")
	if !ok {
		return
	}
	tasks, err := h.service.Reminders(c.Request.Context(), sess)
	if err != nil {
		respondError(c, "reminder][list", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

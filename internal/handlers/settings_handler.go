package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskcal/internal/models"
	"taskcal/internal/services"
)

type SettingsHandler struct {
	service services.SettingsService
}

func NewSettingsHandler(service services.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// settingsRequest replaces the settings; an omitted telegram_chat_id keeps
// the chat linked through the bot.
type settingsRequest struct {
	HourlyWage     int64  `json:"hourly_wage"`
	FixedSalary    int64  `json:"fixed_salary"`
	NotifyEmail    bool   `json:"notify_email"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

// GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	sess, ok := mustSession(c, "settings][get")
	if !ok {
		return
	}
	st, err := h.service.Get(c.Request.Context(), sess)
	if err != nil {
		respondError(c, "settings][get", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary   Save wage and notification settings
// @Tags      Settings
// @Security  BearerAuth
// @Accept    json
// @Produce   json
// @Param     body  body      settingsRequest  true  "Settings"
// @Success   200   {object}  models.Settings
// @Failure   400   {object}  ErrorResponse
// @Router    /settings [put]
func (h *SettingsHandler) Put(c *gin.Context) {
	sess, ok := mustSession(c, "settings][put")
	if !ok {
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "settings][put", err)
		return
	}
	in := models.Settings{
		HourlyWage:  req.HourlyWage,
		FixedSalary: req.FixedSalary,
		NotifyEmail: req.NotifyEmail,
	}
	if req.TelegramChatID != nil {
		in.TelegramChatID = *req.TelegramChatID
	} else {
		current, err := h.service.Get(c.Request.Context(), sess)
		if err != nil {
			respondError(c, "settings][put", err)
			return
		}
		in.TelegramChatID = current.TelegramChatID
	}
	st, err := h.service.Upsert(c.Request.Context(), sess, in)
	if err != nil {
		respondError(c, "settings][put", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary   Monthly earnings
// @Tags      Settings
// @Security  BearerAuth
// @Produce   json
// @Param     month  query     string  true  "YYYY-MM"
// @Success   200    {object}  models.Earnings
// @Router    /earnings [get]
func (h *SettingsHandler) Earnings(c *gin.Context) {
	sess, ok := mustSession(c, "settings][earnings")
	if !ok {
		return
	}
	e, err := h.service.MonthlyEarnings(c.Request.Context(), sess, c.Query("month"))
	if err != nil {
		respondError(c, "settings][earnings", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

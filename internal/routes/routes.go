package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskcal/internal/handlers"
)

func SetupRoutes(
	r *gin.Engine,
	authMiddleware gin.HandlerFunc,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	calendarHandler *handlers.CalendarHandler,
	settingsHandler *handlers.SettingsHandler,
	reportHandler *handlers.ReportHandler,
	resetHandler *handlers.PasswordResetHandler,
	integrationsHandler *handlers.IntegrationsHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/password/forgot", resetHandler.Forgot)
	r.POST("/password/reset", resetHandler.Reset)
	r.POST("/integrations/telegram/webhook", integrationsHandler.Webhook)

	// ---- protected
	api := r.Group("/", authMiddleware)

	api.POST("/logout", authHandler.Logout)

	// TASKS
	tasks := api.Group("/tasks")
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.GetAll)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
		tasks.POST("/:id/complete", taskHandler.Complete)
	}

	// CALENDAR
	cal := api.Group("/calendar")
	{
		cal.GET("/events", calendarHandler.Events)
		cal.PATCH("/events/:id", calendarHandler.Move)
		cal.GET("/feed.ics", calendarHandler.Feed)
	}

	api.GET("/reminders", taskHandler.Reminders)

	// SETTINGS / EARNINGS
	api.GET("/settings", settingsHandler.Get)
	api.PUT("/settings", settingsHandler.Put)
	api.GET("/earnings", settingsHandler.Earnings)

	// INTEGRATIONS
	api.POST("/integrations/telegram/link", integrationsHandler.RequestTelegramLink)

	// REPORTS
	api.GET("/reports/monthly.pdf", reportHandler.MonthlyPDF)

	return r
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "taskcal/docs"
	"taskcal/internal/config"
	"taskcal/internal/handlers"
	"taskcal/internal/middleware"
	"taskcal/internal/pdf"
	"taskcal/internal/repositories"
	"taskcal/internal/routes"
	"taskcal/internal/services"
)

// App is the wired HTTP service.
type App struct {
	Router *gin.Engine

	cfg    *config.Config
	db     *sql.DB
	digest *services.ReminderDigest
}

type stores struct {
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	settings repositories.SettingsRepository
	resets   repositories.PasswordResetRepository
	links    repositories.TelegramLinkRepository
}

// New wires repositories, services and routes from cfg. An empty database
// url runs everything on the in-memory store.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	// === DB ===
	st, err := a.openStores()
	if err != nil {
		return nil, err
	}

	loc := cfg.Location
	timeout := cfg.Database.QueryTimeout

	var email services.EmailService
	if e := cfg.Email; e.SMTPHost != "" {
		email = services.NewEmailService(e.SMTPHost, e.SMTPPort, e.SMTPUser, e.SMTPPassword, e.FromEmail)
	}

	tg, err := services.NewTelegramService(cfg.Telegram.BotToken)
	if err != nil {
		log.Printf("[app] telegram disabled: %v", err)
	}

	// === Services ===
	authService := services.NewAuthService(st.users, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, timeout)
	taskService := services.NewTaskService(st.tasks, loc, timeout, cfg.Reminders.Limit)
	calendarService := services.NewCalendarService(taskService)
	settingsService := services.NewSettingsService(st.settings, taskService, loc, timeout)
	reportService := services.NewReportService(taskService, settingsService, pdf.NewReportGenerator(cfg.Reports.FontPath), loc)
	resetService := services.NewPasswordResetService(st.users, st.resets, email, timeout)
	linkService := services.NewTelegramLinkService(tg, st.links, st.settings, taskService, loc, timeout)

	// === Reminder digest (optional) ===
	if cfg.Reminders.DigestCron != "" {
		a.digest = services.NewReminderDigest(st.tasks, st.settings, email, tg, loc, cfg.Reminders.Limit, timeout)
		if err := a.digest.Start(cfg.Reminders.DigestCron); err != nil {
			a.Close()
			return nil, err
		}
	}

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	calendarHandler := handlers.NewCalendarHandler(calendarService, taskService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	reportHandler := handlers.NewReportHandler(reportService)
	resetHandler := handlers.NewPasswordResetHandler(resetService)
	integrationsHandler := handlers.NewIntegrationsHandler(linkService, cfg.Telegram.WebhookSecret)

	// === Gin ===
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		middleware.AuthMiddleware(authService, loc),
		authHandler,
		taskHandler,
		calendarHandler,
		settingsHandler,
		reportHandler,
		resetHandler,
		integrationsHandler,
	)

	a.Router = router
	return a, nil
}

func (a *App) openStores() (stores, error) {
	if a.cfg.Database.DSN == "" {
		log.Printf("[app] database.url is empty, using in-memory store (data is lost on restart)")
		m := repositories.NewMemoryStore()
		return stores{tasks: m, users: m, settings: m, resets: m.PasswordResets(), links: m.TelegramLinks()}, nil
	}

	db, err := sql.Open("postgres", a.cfg.Database.DSN)
	if err != nil {
		return stores{}, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return stores{}, fmt.Errorf("ping database: %w", err)
	}
	if a.cfg.Database.AutoMigrate {
		if err := repositories.Migrate(ctx, db); err != nil {
			db.Close()
			return stores{}, err
		}
		log.Printf("[app] schema migrated")
	}
	a.db = db
	return stores{
		tasks:    repositories.NewTaskRepository(db),
		users:    repositories.NewUserRepository(db),
		settings: repositories.NewSettingsRepository(db),
		resets:   repositories.NewPasswordResetRepository(db),
		links:    repositories.NewTelegramLinkRepository(db),
	}, nil
}

// Close stops the digest scheduler and releases the database.
func (a *App) Close() {
	if a.digest != nil {
		a.digest.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("[app] close db: %v", err)
		}
	}
}

// Run loads configuration from configPath, serves until SIGINT/SIGTERM and
// shuts down gracefully.
func Run(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[app] config: %v", err)
	}
	a, err := New(cfg)
	if err != nil {
		log.Fatalf("[app] init: %v", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s (tz=%s)", srv.Addr, cfg.Location)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[app] server error: %v", err)
		}
		return
	case <-ctx.Done():
	}

	log.Printf("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[app] shutdown: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

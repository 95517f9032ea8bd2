package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"firstcome/internal/config"
	"firstcome/internal/cooking"
	"firstcome/internal/database"
	"firstcome/internal/handlers"
	"firstcome/internal/indicator"
	"firstcome/internal/jobs"
	"firstcome/internal/middleware"
	"firstcome/internal/models"
	"firstcome/internal/repositories"
	"firstcome/internal/services"
	"firstcome/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// App is the wired kitchen service.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	db       *gorm.DB
	mq       *rabbitmq.Client
	display  *indicator.Controller
	session  *cooking.Session
	orders   *services.OrderService
	queueJob *jobs.QueueJob

	Fiber *fiber.App
}

// NewApp builds every component from cfg. The oven starts empty.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, db: db}

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	var device indicator.Device = indicator.NopDevice{}
	if cfg.Indicator.Device == "log" {
		device = indicator.NewLogDevice(logger)
	}
	a.display = indicator.NewController(device, logger)
	a.session = cooking.NewSession(a.display, cfg.Kitchen.TickInterval, logger)
	a.session.Reset()

	var publisher services.EventPublisher
	if cfg.RabbitMQ.Enabled {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher = a.mq
	}

	productService := services.NewProductService(productRepo)
	a.orders = services.NewOrderService(
		orderRepo,
		productRepo,
		a.session,
		publisher,
		services.TickRange{Min: cfg.Kitchen.MinTicks, Max: cfg.Kitchen.MaxTicks},
		logger,
	)
	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)

	if err := authService.EnsureStaff(cfg.Auth.StaffUsername, cfg.Auth.StaffPassword); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create staff account: %w", err)
	}
	seeded, err := productService.SeedMenu(services.DefaultMenu())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to seed menu: %w", err)
	}
	if seeded > 0 {
		logger.Info("menu seeded", "items", seeded)
	}

	if cfg.Kitchen.AutoResume {
		a.queueJob = jobs.NewQueueJob(a.orders, cfg.Kitchen.ResumeSchedule, logger)
	}

	a.Fiber = fiber.New(fiber.Config{DisableStartupMessage: true})
	a.Fiber.Use(fiberlogger.New())
	a.Fiber.Get("/health", a.health)

	apiV1 := a.Fiber.Group("/api/v1")

	menuHandler := handlers.NewMenuHandler(productService)
	orderHandler := handlers.NewOrderHandler(a.orders, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)
	ovenHandler := handlers.NewOvenHandler(a.orders, a.display)

	// Public routes must be registered before the staff group's middleware.
	menuHandler.RegisterPublicRoutes(apiV1)
	orderHandler.RegisterPublicRoutes(apiV1)
	authHandler.RegisterPublicRoutes(apiV1)

	staff := apiV1.Group("", middleware.AuthRequired(authService, logger))
	menuHandler.RegisterStaffRoutes(staff)
	orderHandler.RegisterStaffRoutes(staff)
	ovenHandler.RegisterStaffRoutes(staff)
	authHandler.RegisterStaffRoutes(staff)

	return a, nil
}

func (a *App) health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"oven":   a.session.Snapshot(),
	}
	if a.mq != nil {
		status["rabbitmq"] = "connected"
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

// Run starts the background workers and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	go a.orders.Run(ctx)

	if a.mq != nil {
		describe := func(status string) string { return models.Status(status).Label() }
		if err := a.mq.ConsumeOrderEvents(rabbitmq.NotificationHandler(a.logger, describe)); err != nil {
			a.logger.Error("failed to start order event consumer", "error", err)
		}
	}

	if a.queueJob != nil {
		if err := a.queueJob.Start(); err != nil {
			return err
		}
		defer a.queueJob.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "port", a.cfg.App.Port)
		errCh <- a.Fiber.Listen(a.cfg.App.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	if err := a.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("error during fiber shutdown: %w", err)
	}
	return nil
}

// Close empties the oven and releases every connection.
func (a *App) Close() error {
	var errList []error
	if a.session != nil {
		a.session.Cancel()
	}
	if a.display != nil {
		a.display.Close()
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errList = append(errList, err)
			}
		}
	}
	return errors.Join(errList...)
}

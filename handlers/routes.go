package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"taskflow/middleware"
)

// AppOptions tweaks app construction. Tests turn the access log off.
type AppOptions struct {
	DisableAccessLog bool
}

// NewApp builds the Fiber app with every route mounted.
func NewApp(h *Handler, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "TaskFlow",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: h.cfg.Production,
	})

	app.Use(recover.New())
	if !opts.DisableAccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     h.cfg.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	app.Get("/healthz", h.Health)

	// WebSocket route authenticates with ?token= since browsers cannot send headers
	app.Get("/api/ws/dashboard",
		RequireUpgrade,
		middleware.QueryTokenRequired(h.svc.Auth),
		websocket.New(h.DashboardSocket),
	)

	api := app.Group("/api")
	authLimiter := h.authLimiter()

	// Public routes
	api.Get("/setup/status", h.CheckSetup)
	api.Post("/setup", authLimiter, h.Setup)
	api.Post("/auth/register", authLimiter, h.Register)
	api.Post("/auth/login", authLimiter, h.Login)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(h.svc.Auth))
	protected.Post("/auth/logout", h.Logout)
	protected.Get("/auth/profile", h.Profile)

	users := protected.Group("/users")
	users.Get("/", h.ListUsers)
	users.Get("/:id", h.GetUser)
	users.Patch("/:id", h.UpdateUser)

	categories := protected.Group("/categories")
	categories.Get("/", h.ListCategories)
	categories.Post("/", h.CreateCategory)
	categories.Get("/:id", h.GetCategory)
	categories.Put("/:id", h.UpdateCategory)
	categories.Patch("/:id", h.UpdateCategory)
	categories.Delete("/:id", h.DeleteCategory)

	// Collection actions go before /:id
	tasks := protected.Group("/tasks")
	tasks.Get("/", h.ListTasks)
	tasks.Post("/", h.CreateTask)
	tasks.Get("/statistics", h.TaskStatistics)
	tasks.Get("/overdue", h.OverdueTasks)
	tasks.Get("/today", h.TodayTasks)
	tasks.Get("/:id", h.GetTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)
	tasks.Post("/:id/mark_completed", h.MarkTaskCompleted)
	tasks.Post("/:id/mark_pending", h.MarkTaskPending)

	protected.Get("/dashboard", h.Dashboard)

	// Staff-only routes
	audit := protected.Group("/audit", middleware.StaffRequired())
	audit.Get("/logs", h.ListAuditLogs)
	audit.Get("/actions", h.GetAuditActions)

	// Superuser-only routes
	settings := protected.Group("/settings", middleware.SuperuserRequired())
	settings.Get("/", h.GetSettings)
	settings.Put("/", h.UpdateSettings)

	return app
}

// authLimiter rate limits the credential endpoints per client IP. A zero
// limit turns it off.
func (h *Handler) authLimiter() fiber.Handler {
	if h.cfg.AuthRateLimit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        h.cfg.AuthRateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many attempts. Please try again later.",
			})
		},
	})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}

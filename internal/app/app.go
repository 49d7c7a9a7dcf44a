package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/handlers"
	"pdfdispatch/internal/infra/logging"
)

// SetupApp creates and configures a new Fiber app instance
func SetupApp(cfg config.Config, conv handlers.Converter) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	RegisterMiddleware(app, cfg, func() bool { return len(conv.AvailableTools()) > 0 })
	RegisterRoutes(app, conv)

	// Ensure all unmatched routes return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, conv handlers.Converter) {
	h := handlers.NewConversionHandler(conv)

	app.Get("/", h.HandleIndex)
	app.Get("/supported_tools", h.HandleSupportedTools)
	app.Get("/generate_pdf", h.HandleUsage)
	app.Post("/generate_pdf", h.HandleGenerate)

	app.Get("/ops/monitor", monitor.New(monitor.Config{Title: "pdfdispatch"}))
}

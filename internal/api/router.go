package api

import (
	"ledgerd/internal/api/handlers"
	"ledgerd/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	txHandler *handlers.TransactionHandler,
	healthHandler *handlers.HealthHandler,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(logger.New())
	app.Use(middleware.RequestID(appLogger))

	app.Get("/health", healthHandler.Check)

	// The literal "summary" segment must be registered ahead of the
	// parameterized :owner route, or /transactions/summary/x would match
	// :owner with owner="summary".
	tx := app.Group("/transactions")
	tx.Get("/summary/:owner", txHandler.Summary)
	tx.Get("/:owner", txHandler.List)
	tx.Post("/", txHandler.Create)
	tx.Delete("/:id", txHandler.Delete)

	return app
}

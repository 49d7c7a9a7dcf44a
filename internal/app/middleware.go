package app

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/infra/logging"
	"pdfdispatch/internal/infra/ratelimit"
)

// clientKey identifies a caller by address and user agent.
func clientKey(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.IP() + c.Get(fiber.HeaderUserAgent)))
	return hex.EncodeToString(sum[:])
}

// userRateLimitMiddleware limits requests per client when enabled.
func userRateLimitMiddleware(cfg config.RateLimiterConfig, store fiber.Storage) fiber.Handler {
	if !cfg.Enabled || cfg.Max <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return limiter.New(limiter.Config{
		Max:               cfg.Max,
		Expiration:        cfg.Interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		KeyGenerator:      clientKey,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/ops/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			logging.Warn("Rate limit exceeded", "client", clientKey(c), "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    fiber.StatusTooManyRequests,
					"message": "Too Many Requests",
				},
			})
		},
	})
}

func corsMiddleware(cfg config.CORSConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	origins := "*"
	if len(cfg.AllowOrigins) > 0 {
		origins = strings.Join(cfg.AllowOrigins, ",")
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}, ","),
	})
}

// RegisterMiddleware attaches global middleware to the app. ready backs the
// readiness probe.
func RegisterMiddleware(app *fiber.App, cfg config.Config, ready func() bool) {
	app.Use(corsMiddleware(cfg.CORS))

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  "/ops/health",
		ReadinessEndpoint: "/ops/ready",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return ready == nil || ready()
		},
	}))

	if cfg.RateLimiter.Enabled {
		store := ratelimit.NewStore(ratelimit.RedisConfig{
			Addr: cfg.RateLimiter.RedisAddr,
			DB:   cfg.RateLimiter.RedisDB,
		})
		app.Use(userRateLimitMiddleware(cfg.RateLimiter, store))
	}

	app.Use(func(c *fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		logging.Info("Incoming request", "method", c.Method(), "path", c.Path(), "request_id", requestID)
		return c.Next()
	})
}

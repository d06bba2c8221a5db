package server

import (
	"time"

	"backend-trailhub/internal/activity"
	"backend-trailhub/internal/config"
	"backend-trailhub/internal/identity"
	"backend-trailhub/internal/ratelimit"
	"backend-trailhub/internal/trail"
	"backend-trailhub/internal/user"
	"backend-trailhub/internal/userlist"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Mirror *user.Mirror
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, provider identity.Provider) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(ratelimit.New(redisClient, cfg.RateLimit, time.Minute))

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Mirror: user.NewMirror(provider),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	user.RegisterRoutes(s.App.Group("/users"), user.NewService(s.DB, s.Mirror))
	trail.RegisterRoutes(s.App.Group("/trails"), trail.NewService(s.DB, s.Mirror))
	activity.RegisterRoutes(s.App.Group("/activities"), activity.NewService(s.DB, s.Mirror))
	userlist.RegisterRoutes(s.App.Group("/userlists"), userlist.NewService(s.DB, s.Mirror))
}

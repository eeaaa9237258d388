package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/config"
	"github.com/openvoyage/touring-api/internal/database"
	"github.com/openvoyage/touring-api/internal/handler"
	"github.com/openvoyage/touring-api/internal/mailer"
	"github.com/openvoyage/touring-api/internal/queue"
	"github.com/openvoyage/touring-api/internal/repository"
	"github.com/openvoyage/touring-api/internal/router"
	queue_publisher "github.com/openvoyage/touring-api/internal/service"
)

func main() {
	// .env is a convenience for local development; in deployment the
	// variables come from the environment and the file is absent.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()
	mailCfg := config.LoadMailConfig()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; cache and limiter degrade to pass-through

	users := repository.NewUserStore(db)
	tours := repository.NewTourStore(db)
	reviews := repository.NewReviewStore(db)

	// Rating aggregates are refreshed asynchronously from review.written
	// events; the consumer reconnects forever in the background.
	go queue.StartRatingConsumer(tours)

	deps := router.Deps{
		Cfg:      cfg,
		CacheCfg: cacheCfg,
		RateCfg:  rateCfg,
		RDB:      rdb,
		Users:    users,
		Tours:    tours,
		Reviews:  reviews,
		Auth:     handler.NewAuthHandler(cfg, users, mailer.FromConfig(mailCfg)),
		TourH:    handler.NewTourHandler(tours),
		ReviewH:  handler.NewReviewHandler(reviews, queue_publisher.PublishReviewWritten),
		UserH:    handler.NewUserHandler(users),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(cfg.Env)
	router.RegisterRoutes(e, deps)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

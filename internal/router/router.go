package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openvoyage/touring-api/internal/config"
	"github.com/openvoyage/touring-api/internal/handler"
	"github.com/openvoyage/touring-api/internal/middleware"
	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/repository"
)

// Deps carries the explicitly constructed collaborators every route needs.
// Nothing here is a global: the composition root in cmd/server builds one
// Deps value and hands it in.
type Deps struct {
	Cfg      config.Config
	CacheCfg config.CacheConfig
	RateCfg  config.RateLimitConfig
	RDB      *redis.Client

	Users   *repository.UserStore
	Tours   *repository.TourStore
	Reviews *repository.ReviewStore

	Auth    *handler.AuthHandler
	TourH   *handler.TourHandler
	ReviewH *handler.ReviewHandler
	UserH   *handler.UserHandler
}

// RegisterRoutes wires every endpoint. Role sets are constructed once here,
// at registration time, and reused for the life of the process.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestTime())
	e.Use(middleware.NewTokenBucket(d.RateCfg, d.RDB))

	e.GET("/healthz", handler.Health)

	protect := middleware.Protect(d.Cfg.JWTSecret, d.Users)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	tourWriters := middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide)
	reviewWriters := middleware.RequireRole(model.RoleUser, model.RoleAdmin)
	cache := middleware.NewResponseCache(d.CacheCfg, d.RDB)
	invalidate := invalidateAfterWrite(d.RDB, d.CacheCfg)

	api := e.Group("/api/v1")

	// ----- users: sessions, password lifecycle, self service, admin CRUD -----
	users := api.Group("/users")
	users.POST("/signup", d.Auth.Signup)
	users.POST("/login", d.Auth.Login)
	users.POST("/forgot-password", d.Auth.ForgotPassword)
	users.PATCH("/reset-password/:token", d.Auth.ResetPassword)
	users.PATCH("/update-password", d.Auth.UpdatePassword, protect)

	users.GET("/me", d.UserH.Me, protect)
	users.PATCH("/update-me", d.UserH.UpdateMe, protect)
	users.DELETE("/delete-me", d.UserH.DeleteMe, protect)

	users.GET("", handler.GetAll[model.User](d.Users, "users", nil), protect, adminOnly)
	users.POST("", d.UserH.CreateUser, protect, adminOnly)
	users.GET("/:id", handler.GetOne[model.User](d.Users, "user"), protect, adminOnly)
	users.PATCH("/:id", handler.UpdateOne[model.User](d.Users, "user"), protect, adminOnly)
	users.DELETE("/:id", handler.DeleteOne[model.User](d.Users), protect, adminOnly)

	// ----- tours: public reads (cached), restricted writes -----
	tours := api.Group("/tours")
	tours.GET("", handler.GetAll[model.Tour](d.Tours, "tours", nil), cache)
	tours.GET("/top-5-cheap", handler.GetAll[model.Tour](d.Tours, "tours", nil), handler.AliasTopTours, cache)
	tours.GET("/tour-stats", d.TourH.Stats, cache)
	tours.GET("/:id", handler.GetOne[model.Tour](d.Tours, "tour"), cache)
	tours.POST("", handler.CreateOne[model.Tour](d.Tours, "tour", nil), protect, tourWriters, invalidate)
	tours.PATCH("/:id", handler.UpdateOne[model.Tour](d.Tours, "tour"), protect, tourWriters, invalidate)
	tours.DELETE("/:id", handler.DeleteOne[model.Tour](d.Tours), protect, tourWriters, invalidate)

	// ----- reviews: nested under a tour and flat -----
	nested := api.Group("/tours/:tourId/reviews")
	nested.GET("", handler.GetAll[model.Review](d.Reviews, "reviews", handler.ReviewScope), cache)
	nested.POST("", d.ReviewH.CreateReview, protect, middleware.RequireRole(model.RoleUser), invalidate)

	reviews := api.Group("/reviews")
	reviews.GET("", handler.GetAll[model.Review](d.Reviews, "reviews", handler.ReviewScope))
	reviews.GET("/:id", handler.GetOne[model.Review](d.Reviews, "review"))
	reviews.POST("", d.ReviewH.CreateReview, protect, middleware.RequireRole(model.RoleUser), invalidate)
	reviews.PATCH("/:id", d.ReviewH.UpdateReview, protect, reviewWriters, invalidate)
	reviews.DELETE("/:id", d.ReviewH.DeleteReview, protect, reviewWriters, invalidate)

	e.RouteNotFound("/*", handler.NotFoundRoute)
}

// invalidateAfterWrite drops the cached public responses once a mutation
// succeeded, so reads never serve documents that no longer exist.
func invalidateAfterWrite(rdb *redis.Client, cfg config.CacheConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status < 400 {
				middleware.InvalidateCache(c.Request().Context(), rdb, cfg.Prefix)
			}
			return nil
		}
	}
}

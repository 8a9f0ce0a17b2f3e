package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rideshare/internal/handler"
	"rideshare/internal/metrics"
	"rideshare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler     *handler.UserHandler
	RouteHandler    *handler.RouteHandler
	TripHandler     *handler.TripHandler
	RequestHandler  *handler.RequestHandler
	OptimizeHandler *handler.OptimizeHandler
	PlaceHandler    *handler.PlaceHandler
	RatingHandler   *handler.RatingHandler
	TrackingHandler *handler.TrackingHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	Metrics         *metrics.Metrics
	MetricsGatherer prometheus.Gatherer
	MetricsPath     string
	Logger          *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.AccessLog(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicAttributes())
	}

	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}

	var idempotencyStore redis.Cmdable
	if deps.RedisClient != nil {
		idempotencyStore = deps.RedisClient
	}
	router.Use(middleware.IdempotencyMiddleware(idempotencyStore, deps.Logger.Named("idempotency")))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.MetricsGatherer != nil && deps.MetricsPath != "" {
		router.GET(deps.MetricsPath, gin.WrapH(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	auth := middleware.RequireUser()

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
			users.GET("/:id", deps.UserHandler.GetUser)
			users.GET("/:id/ratings", deps.UserHandler.GetRatings)
		}

		// Route routes.
		routes := v1.Group("/routes")
		{
			routes.POST("", auth, deps.RouteHandler.CreateRoute)
			routes.GET("", deps.RouteHandler.GetAll)
			routes.GET("/:id", deps.RouteHandler.GetRoute)
			routes.GET("/:id/estimate", deps.RouteHandler.EstimateRoute)
			routes.POST("/:id/deactivate", auth, deps.RouteHandler.DeactivateRoute)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", auth, deps.TripHandler.CreateTrip)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/itinerary", deps.TripHandler.GetItinerary)
			trips.GET("/:id/requests", auth, deps.TripHandler.GetRequests)
			trips.POST("/:id/start", auth, deps.TripHandler.StartTrip)
			trips.POST("/:id/complete", auth, deps.TripHandler.CompleteTrip)
			trips.POST("/:id/cancel", auth, deps.TripHandler.CancelTrip)
		}

		// Matching and seat request routes.
		v1.POST("/matches/search", deps.RequestHandler.Search)
		requests := v1.Group("/requests", auth)
		{
			requests.POST("", deps.RequestHandler.CreateRequest)
			requests.GET("", deps.RequestHandler.GetMine)
			requests.POST("/:id/accept", deps.RequestHandler.AcceptRequest)
			requests.POST("/:id/reject", deps.RequestHandler.RejectRequest)
			requests.POST("/:id/cancel", deps.RequestHandler.CancelRequest)
		}

		// Stateless geometry routes.
		optimize := v1.Group("/optimize")
		{
			optimize.POST("/order", deps.OptimizeHandler.OrderStops)
			optimize.POST("/detours", deps.OptimizeHandler.RankDetours)
		}

		// Saved place routes.
		places := v1.Group("/places", auth)
		{
			places.POST("", deps.PlaceHandler.CreatePlace)
			places.GET("", deps.PlaceHandler.GetMine)
			places.GET("/nearby", deps.PlaceHandler.Nearby)
			places.DELETE("/:id", deps.PlaceHandler.DeletePlace)
		}
		v1.GET("/geocode/reverse", deps.PlaceHandler.ReverseGeocode)

		// Rating routes.
		v1.POST("/ratings", auth, deps.RatingHandler.CreateRating)

		// Driver location routes.
		drivers := v1.Group("/drivers")
		{
			drivers.GET("/nearby", deps.TrackingHandler.Nearby)
			drivers.POST("/:id/location", auth, deps.TrackingHandler.UpdateLocation)
			drivers.GET("/:id/location", deps.TrackingHandler.GetLocation)
		}
		v1.GET("/tracking/ws", deps.TrackingHandler.Stream)
	}

	return router
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/config"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/middleware"
	"github.com/smarttransit/seat-reservation/pkg/jwt"
	"github.com/smarttransit/seat-reservation/pkg/validator"
)

// RouterConfig holds everything the HTTP layer is wired from
type RouterConfig struct {
	Trips    *TripHandler
	Bookings *BookingHandler
	Admin    *AdminHandler

	Store    database.Store
	JWT      *jwt.Service
	CORS     config.CORSConfig
	NewRelic *newrelic.Application
	Version  string
	Logger   *logrus.Logger
}

// NewRouter builds the gin engine with middleware and every API route
func NewRouter(rc RouterConfig) *gin.Engine {
	if err := validator.RegisterBindings(); err != nil {
		rc.Logger.WithError(err).Error("Custom binding validations unavailable")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewRelicMiddleware(rc.NewRelic))
	router.Use(middleware.RequestLogger(rc.Logger))

	if len(rc.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     rc.CORS.AllowedOrigins,
			AllowMethods:     rc.CORS.AllowedMethods,
			AllowHeaders:     rc.CORS.AllowedHeaders,
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", healthCheckHandler(rc.Store, rc.Version))

	auth := middleware.AuthMiddleware(rc.JWT, rc.Logger)

	v1 := router.Group("/api/v1")
	{
		trips := v1.Group("/trips")
		{
			trips.GET("", rc.Trips.ListTrips)
			trips.GET("/search", rc.Trips.SearchTrips)
			trips.GET("/:id", rc.Trips.GetTrip)
			trips.GET("/:id/seats", rc.Trips.GetSeatMap)
		}

		bookings := v1.Group("/bookings", auth)
		{
			bookings.POST("", rc.Bookings.Checkout)
			bookings.GET("", rc.Bookings.MyBookings)
		}

		checkout := v1.Group("/checkout/sessions", auth)
		{
			checkout.POST("", rc.Bookings.StartSession)
			checkout.GET("/:sessionId", rc.Bookings.GetSession)
			checkout.PUT("/:sessionId/passenger", rc.Bookings.SetPassenger)
			checkout.POST("/:sessionId/complete", rc.Bookings.CompleteSession)
		}

		admin := v1.Group("/admin", auth, middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/trips", rc.Trips.CreateTrip)
			admin.DELETE("/trips/:id", rc.Trips.DeleteTrip)
			admin.GET("/trips/:id/bookings", rc.Admin.TripBookings)
			admin.GET("/trips/:id/bookings/:date", rc.Admin.DateBookings)
			admin.DELETE("/trips/:id/bookings/:date/seats/:seat", rc.Admin.CancelSeat)
			admin.GET("/trips/:id/report.pdf", rc.Admin.TripReport)

			admin.GET("/revenue", rc.Admin.Revenue)
			admin.GET("/revenue/report.pdf", rc.Admin.RevenueReport)

			admin.POST("/reconcile", rc.Admin.Reconcile)
			admin.GET("/jobs", rc.Admin.JobStatus)
		}
	}

	return router
}

// healthCheckHandler reports store reachability
func healthCheckHandler(store database.Store, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"storage": "unhealthy",
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"storage":   "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}

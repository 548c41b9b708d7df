// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tourly/internal/auth"
	"tourly/internal/availability"
	"tourly/internal/bookings"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/registrations"
	"tourly/internal/shared/config"
	"tourly/internal/shared/database"
	"tourly/pkg/cache"
	"tourly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config        *config.Config
	db            *database.DB
	log           *logger.Logger
	notifications *notifications.Service

	availService availability.Service // For dependency injection
}

// NewRouter creates a new router instance. notificationService may be nil
// when the Kafka pipeline is disabled or failed to initialize.
func NewRouter(cfg *config.Config, db *database.DB, log *logger.Logger, notificationService *notifications.Service) *Router {
	return &Router{
		config:        cfg,
		db:            db,
		log:           log,
		notifications: notificationService,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// Availability must come before bookings for dependency injection
		r.setupAvailabilityRoutes(api)

		r.setupBookingRoutes(api)

		r.setupRegistrationRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tourly-backend",
			})
			return
		}

		notificationsStatus := "disabled"
		if r.notifications != nil {
			notificationsStatus = "healthy"
			if err := r.notifications.HealthCheck(c.Request.Context()); err != nil {
				notificationsStatus = "unhealthy"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"notifications": notificationsStatus,
			"timestamp":     time.Now(),
			"service":       "tourly-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}

// setupAvailabilityRoutes configures the availability listing and quoting routes
func (r *Router) setupAvailabilityRoutes(rg *gin.RouterGroup) {
	availRepo := availability.NewRepository(r.db.GetPostgreSQL())
	cacheService := cache.NewService(r.db.GetRedisClient())
	availService := availability.NewService(availRepo, cacheService, r.config.Redis.AvailabilityTTL)

	// Store availability service for the booking flow
	r.availService = availService

	availController := availability.NewController(availService)
	availability.SetupAvailabilityRoutes(rg, availController)
}

// setupBookingRoutes configures the booking lifecycle routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	paymentService := payments.NewService(r.db.GetPostgreSQL())

	// A typed nil would still satisfy the interface, so only assign when the
	// notification service actually exists.
	var notifier bookings.Notifier
	if r.notifications != nil {
		notifier = r.notifications
	}

	bookingService := bookings.NewService(
		bookingRepo,
		r.availService,
		paymentService,
		notifier,
		r.log,
		bookings.Config{
			ReferencePrefix:  r.config.Booking.ReferencePrefix,
			ReferenceRetries: r.config.Booking.ReferenceRetries,
			DefaultCurrency:  r.config.Booking.DefaultCurrency,
		},
	)

	bookingController := bookings.NewController(bookingService)
	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupRegistrationRoutes configures custom tour and registration routes
func (r *Router) setupRegistrationRoutes(rg *gin.RouterGroup) {
	regRepo := registrations.NewRepository(r.db.GetPostgreSQL())

	// Same typed-nil guard as the booking routes.
	var notifier registrations.Notifier
	if r.notifications != nil {
		notifier = r.notifications
	}

	regService := registrations.NewService(regRepo, notifier, r.log)
	regController := registrations.NewController(regService)

	registrations.SetupRegistrationRoutes(rg, regController)
}

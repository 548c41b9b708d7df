package bookings

import (
	"tourly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth())
	{
		bookings.POST("", middleware.RequireRoles("TOURIST", "ADMIN"), controller.CreateBooking)
		bookings.GET("/:id", controller.GetBooking)
		bookings.GET("/reference/:reference", controller.GetBookingByReference)

		bookings.PATCH("/:id/cancel", controller.CancelBooking)
		bookings.POST("/:id/payment", middleware.RequireRoles("TOURIST", "ADMIN"), controller.ProcessPayment)

		// Provider-side lifecycle operations
		bookings.PATCH("/:id/confirm", middleware.RequireRoles("PROVIDER", "ADMIN"), controller.ConfirmBooking)
		bookings.PATCH("/:id/check-in", middleware.RequireRoles("PROVIDER", "ADMIN"), controller.CheckInBooking)
		bookings.PATCH("/:id/no-show", middleware.RequireRoles("PROVIDER", "ADMIN"), controller.MarkNoShow)
		bookings.PATCH("/:id/refund", middleware.RequireRoles("ADMIN"), controller.ProcessRefund)
	}

	users := rg.Group("/users")
	users.Use(middleware.JWTAuth())
	{
		users.GET("/bookings", controller.GetUserBookings)
	}

	providers := rg.Group("/providers")
	providers.Use(middleware.JWTAuth(), middleware.RequireRoles("PROVIDER", "ADMIN"))
	{
		providers.GET("/bookings", controller.GetProviderBookings)
	}
}

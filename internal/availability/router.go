package availability

import (
	"tourly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAvailabilityRoutes configures all availability-related routes
func SetupAvailabilityRoutes(rg *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/availability")
	{
		// Public read paths
		group.GET("", controller.ListAvailability)
		group.GET("/:id", controller.GetAvailability)
		group.GET("/:id/quote", controller.GetQuote)

		// Provider write path
		group.POST("", middleware.JWTAuth(), middleware.RequireRoles("PROVIDER", "ADMIN"), controller.CreateAvailability)
	}
}

package registrations

import (
	"tourly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRegistrationRoutes configures custom tour and registration routes
func SetupRegistrationRoutes(rg *gin.RouterGroup, controller *Controller) {
	tours := rg.Group("/tours")
	{
		tours.GET("", controller.ListTours)
		tours.POST("", middleware.JWTAuth(), middleware.RequireRoles("PROVIDER", "ADMIN"), controller.CreateTour)
		tours.GET("/:id/registrations", middleware.JWTAuth(), middleware.RequireRoles("PROVIDER", "ADMIN"), controller.ListByTour)
	}

	regs := rg.Group("/registrations")
	regs.Use(middleware.JWTAuth())
	{
		regs.POST("", middleware.RequireRoles("TOURIST", "ADMIN"), controller.Register)
		regs.PATCH("/:id/status", middleware.RequireRoles("PROVIDER", "ADMIN"), controller.Decide)
		regs.PATCH("/:id/cancel", controller.CancelRegistration)
	}

	users := rg.Group("/users")
	users.Use(middleware.JWTAuth())
	{
		users.GET("/registrations", controller.ListMine)
	}
}

package registrations

import (
	"errors"
	"net/http"

	"tourly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateTour handles POST /api/v1/tours
func (c *Controller) CreateTour(ctx *gin.Context) {
	providerID, ok := userIDFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req CreateTourRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.EndDate.Before(req.StartDate) {
		response.Error(ctx, http.StatusBadRequest, "End date must not be before start date", nil)
		return
	}

	tour, err := c.service.CreateTour(ctx.Request.Context(), providerID, req)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to create tour", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Tour created successfully", tour)
}

// ListTours handles GET /api/v1/tours
func (c *Controller) ListTours(ctx *gin.Context) {
	tours, err := c.service.ListTours(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list tours", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Tours retrieved successfully", gin.H{
		"tours": tours,
		"count": len(tours),
	})
}

// Register handles POST /api/v1/registrations
func (c *Controller) Register(ctx *gin.Context) {
	touristID, ok := userIDFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	registration, err := c.service.Register(ctx.Request.Context(), touristID, req)
	if err != nil {
		c.respondError(ctx, err, "Failed to register")
		return
	}

	response.Success(ctx, http.StatusCreated, "Registration submitted successfully", registration)
}

// Decide handles PATCH /api/v1/registrations/:id/status
func (c *Controller) Decide(ctx *gin.Context) {
	deciderID, ok := userIDFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	registrationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid registration ID", nil)
		return
	}

	var req DecideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	registration, err := c.service.Decide(ctx.Request.Context(), registrationID, deciderID, roleFromContext(ctx), req.Status == "approved")
	if err != nil {
		c.respondError(ctx, err, "Failed to update registration")
		return
	}

	response.Success(ctx, http.StatusOK, "Registration updated successfully", registration)
}

// CancelRegistration handles PATCH /api/v1/registrations/:id/cancel
func (c *Controller) CancelRegistration(ctx *gin.Context) {
	touristID, ok := userIDFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	registrationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid registration ID", nil)
		return
	}

	registration, err := c.service.CancelRegistration(ctx.Request.Context(), registrationID, touristID)
	if err != nil {
		c.respondError(ctx, err, "Failed to cancel registration")
		return
	}

	response.Success(ctx, http.StatusOK, "Registration cancelled successfully", registration)
}

// ListByTour handles GET /api/v1/tours/:id/registrations
func (c *Controller) ListByTour(ctx *gin.Context) {
	tourID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid tour ID", nil)
		return
	}

	regs, err := c.service.ListByTour(ctx.Request.Context(), tourID)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list registrations", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Registrations retrieved successfully", gin.H{
		"registrations": regs,
		"count":         len(regs),
	})
}

// ListMine handles GET /api/v1/users/registrations
func (c *Controller) ListMine(ctx *gin.Context) {
	touristID, ok := userIDFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	regs, err := c.service.ListByTourist(ctx.Request.Context(), touristID)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list registrations", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Registrations retrieved successfully", gin.H{
		"registrations": regs,
		"count":         len(regs),
	})
}

func (c *Controller) respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTourNotFound), errors.Is(err, ErrRegistrationNotFound):
		response.Error(ctx, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, ErrNoSpotsRemaining):
		response.Error(ctx, http.StatusConflict, "No spots remaining on tour", nil)
	case errors.Is(err, ErrAlreadyRegistered):
		response.Error(ctx, http.StatusConflict, "Already registered for this tour", nil)
	case errors.Is(err, ErrInvalidStatusChange):
		response.Error(ctx, http.StatusConflict, "Registration status does not allow this operation", nil)
	case errors.Is(err, ErrNotTourOwner):
		response.Error(ctx, http.StatusForbidden, "You do not manage this tour", nil)
	default:
		response.Error(ctx, http.StatusInternalServerError, fallback, err.Error())
	}
}

func roleFromContext(ctx *gin.Context) string {
	if raw, exists := ctx.Get("user_role"); exists {
		if role, ok := raw.(string); ok {
			return role
		}
	}
	return ""
}

func userIDFromContext(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

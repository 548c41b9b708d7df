package availability

import (
	"errors"
	"net/http"
	"time"

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

// ListAvailability handles GET /api/v1/availability
func (c *Controller) ListAvailability(ctx *gin.Context) {
	var query AvailabilityListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	summaries, err := c.service.ListBookable(ctx.Request.Context(), query)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list availability", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Availability retrieved successfully", gin.H{
		"availability": summaries,
		"count":        len(summaries),
	})
}

// GetAvailability handles GET /api/v1/availability/:id
func (c *Controller) GetAvailability(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid availability ID", nil)
		return
	}

	a, err := c.service.GetByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(ctx, http.StatusNotFound, "Availability not found", nil)
			return
		}
		response.Error(ctx, http.StatusInternalServerError, "Failed to get availability", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Availability retrieved successfully", a)
}

// GetQuote handles GET /api/v1/availability/:id/quote
func (c *Controller) GetQuote(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid availability ID", nil)
		return
	}

	var query QuoteQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	quote, err := c.service.Quote(ctx.Request.Context(), id, query.Participants, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(ctx, http.StatusNotFound, "Availability not found", nil)
		case errors.Is(err, ErrNotAvailable):
			response.Error(ctx, http.StatusConflict, "Availability is not open for booking", nil)
		default:
			response.Error(ctx, http.StatusInternalServerError, "Failed to compute quote", err.Error())
		}
		return
	}

	response.Success(ctx, http.StatusOK, "Quote computed successfully", quote)
}

// CreateAvailability handles POST /api/v1/availability
func (c *Controller) CreateAvailability(ctx *gin.Context) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req CreateAvailabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	// Providers publish availability for themselves; the provider identity
	// is carried by the authenticated user.
	a, err := c.service.Create(ctx.Request.Context(), userID, userID, req)
	if err != nil {
		if errors.Is(err, ErrDuplicateDate) {
			response.Error(ctx, http.StatusConflict, "Availability already exists for this date", nil)
			return
		}
		response.Error(ctx, http.StatusInternalServerError, "Failed to create availability", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Availability created successfully", a)
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

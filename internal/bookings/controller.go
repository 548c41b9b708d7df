package bookings

import (
	"context"
	"errors"
	"net/http"

	"tourly/internal/availability"
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

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	userID, _, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), userID, req)
	if err != nil {
		c.respondError(ctx, err, "Failed to create booking")
		return
	}

	response.Success(ctx, http.StatusCreated, "Booking created successfully", booking.ToResponse())
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	userID, role, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID, userID, role)
	if err != nil {
		c.respondError(ctx, err, "Failed to get booking")
		return
	}

	response.Success(ctx, http.StatusOK, "Booking retrieved successfully", booking.ToResponse())
}

// GetBookingByReference handles GET /api/v1/bookings/reference/:reference
func (c *Controller) GetBookingByReference(ctx *gin.Context) {
	userID, role, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	reference := ctx.Param("reference")
	if reference == "" {
		response.Error(ctx, http.StatusBadRequest, "Booking reference is required", nil)
		return
	}

	booking, err := c.service.GetBookingByReference(ctx.Request.Context(), reference, userID, role)
	if err != nil {
		c.respondError(ctx, err, "Failed to get booking")
		return
	}

	response.Success(ctx, http.StatusOK, "Booking retrieved successfully", booking.ToResponse())
}

// GetUserBookings handles GET /api/v1/users/bookings
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	userID, _, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	bookings, totalCount, err := c.service.GetUserBookings(ctx.Request.Context(), userID, query)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to get bookings", err.Error())
		return
	}

	page, limit := normalizePage(query.Page, query.Limit)
	response.Success(ctx, http.StatusOK, "Bookings retrieved successfully",
		ToListResponse(bookings, page, limit, totalCount))
}

// GetProviderBookings handles GET /api/v1/providers/bookings
func (c *Controller) GetProviderBookings(ctx *gin.Context) {
	userID, _, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	bookings, totalCount, err := c.service.GetProviderBookings(ctx.Request.Context(), userID, query)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to get bookings", err.Error())
		return
	}

	page, limit := normalizePage(query.Page, query.Limit)
	response.Success(ctx, http.StatusOK, "Bookings retrieved successfully",
		ToListResponse(bookings, page, limit, totalCount))
}

// ConfirmBooking handles PATCH /api/v1/bookings/:id/confirm
func (c *Controller) ConfirmBooking(ctx *gin.Context) {
	c.transition(ctx, "Booking confirmed successfully", c.service.ConfirmBooking)
}

// CheckInBooking handles PATCH /api/v1/bookings/:id/check-in
func (c *Controller) CheckInBooking(ctx *gin.Context) {
	c.transition(ctx, "Booking checked in successfully", c.service.CheckInBooking)
}

// MarkNoShow handles PATCH /api/v1/bookings/:id/no-show
func (c *Controller) MarkNoShow(ctx *gin.Context) {
	c.transition(ctx, "Booking marked as no-show", c.service.MarkNoShow)
}

// ProcessRefund handles PATCH /api/v1/bookings/:id/refund
func (c *Controller) ProcessRefund(ctx *gin.Context) {
	c.transition(ctx, "Refund processed successfully", c.service.ProcessRefund)
}

// CancelBooking handles PATCH /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	userID, role, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req CancelBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	booking, err := c.service.CancelBooking(ctx.Request.Context(), bookingID, userID, role, req.Reason)
	if err != nil {
		c.respondError(ctx, err, "Failed to cancel booking")
		return
	}

	response.Success(ctx, http.StatusOK, "Booking cancelled successfully", booking.ToResponse())
}

// ProcessPayment handles POST /api/v1/bookings/:id/payment
func (c *Controller) ProcessPayment(ctx *gin.Context) {
	userID, _, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req ProcessPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	booking, err := c.service.ProcessPayment(ctx.Request.Context(), bookingID, userID, req.PaymentMethod)
	if err != nil {
		c.respondError(ctx, err, "Failed to process payment")
		return
	}

	response.Success(ctx, http.StatusOK, "Payment processed successfully", booking.ToResponse())
}

type transitionFn func(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*Booking, error)

func (c *Controller) transition(ctx *gin.Context, successMsg string, fn transitionFn) {
	userID, role, ok := identityFromContext(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := fn(ctx.Request.Context(), bookingID, userID, role)
	if err != nil {
		c.respondError(ctx, err, "Failed to update booking")
		return
	}

	response.Success(ctx, http.StatusOK, successMsg, booking.ToResponse())
}

func (c *Controller) respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, availability.ErrNotFound):
		response.Error(ctx, http.StatusNotFound, "Booking target not found", nil)
	case errors.Is(err, ErrNotOwner):
		response.Error(ctx, http.StatusForbidden, "Not allowed to access this booking", nil)
	case errors.Is(err, ErrInvalidTransition):
		response.Error(ctx, http.StatusConflict, "Booking status does not allow this operation", err.Error())
	case IsCapacityError(err):
		response.Error(ctx, http.StatusConflict, "Not enough spots available", err.Error())
	default:
		response.Error(ctx, http.StatusInternalServerError, fallback, err.Error())
	}
}

func identityFromContext(ctx *gin.Context) (uuid.UUID, string, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		return uuid.Nil, "", false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, "", false
	}

	role := ""
	if rawRole, exists := ctx.Get("user_role"); exists {
		role, _ = rawRole.(string)
	}
	return id, role, true
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return page, limit
}

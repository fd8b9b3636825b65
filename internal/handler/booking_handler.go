package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voltgrid-charging/service-reservation/internal/application"
	bookingDomain "github.com/voltgrid-charging/service-reservation/internal/domain/booking"
	"github.com/voltgrid-charging/service-reservation/pkg/auth"
	"github.com/voltgrid-charging/service-reservation/pkg/domain"
	"github.com/voltgrid-charging/service-reservation/pkg/middleware"
	"github.com/voltgrid-charging/service-reservation/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.ReservationService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.ReservationService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleDriver), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateBookingStatus)
		bookings.DELETE("/:id", h.DeleteBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Callers see their own bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListBookingsByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !h.mayAccess(c, result.RequesterID) {
		response.Error(c, forbiddenBooking())
		return
	}
	response.Success(c, result)
}

// UpdateBookingStatus handles PATCH /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req application.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	status, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	existing, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.mayAccess(c, existing.RequesterID) {
		response.Error(c, forbiddenBooking())
		return
	}

	result, err := h.service.UpdateBookingStatus(c.Request.Context(), bookingID, status, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	existing, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.mayAccess(c, existing.RequesterID) {
		response.Error(c, forbiddenBooking())
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// mayAccess allows the booking's requester plus operator/admin roles.
func (h *BookingHandler) mayAccess(c *gin.Context, requesterID uuid.UUID) bool {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false
	}
	if userID == requesterID {
		return true
	}
	role, _ := middleware.GetUserRole(c)
	return role == auth.RoleOperator || role == auth.RoleAdmin
}

func forbiddenBooking() error {
	return domain.NewForbiddenError("booking does not belong to this user")
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

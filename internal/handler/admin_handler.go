package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/voltgrid-charging/service-reservation/internal/application"
	"github.com/voltgrid-charging/service-reservation/pkg/auth"
	"github.com/voltgrid-charging/service-reservation/pkg/middleware"
	"github.com/voltgrid-charging/service-reservation/pkg/response"
)

// AdminHandler handles admin HTTP requests for reservation management.
type AdminHandler struct {
	service *application.ReservationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.ReservationService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

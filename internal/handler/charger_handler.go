package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voltgrid-charging/service-reservation/internal/application"
	chargerDomain "github.com/voltgrid-charging/service-reservation/internal/domain/charger"
	"github.com/voltgrid-charging/service-reservation/pkg/auth"
	"github.com/voltgrid-charging/service-reservation/pkg/middleware"
	"github.com/voltgrid-charging/service-reservation/pkg/response"
)

// ChargerHandler handles HTTP requests for charger operations.
type ChargerHandler struct {
	chargers     *application.ChargerService
	reservations *application.ReservationService
}

// NewChargerHandler creates a new ChargerHandler.
func NewChargerHandler(chargers *application.ChargerService, reservations *application.ReservationService) *ChargerHandler {
	return &ChargerHandler{chargers: chargers, reservations: reservations}
}

// RegisterRoutes registers all charger routes on the given router group.
// Listing and availability are public; mutation requires the operator role.
func (h *ChargerHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	operatorMW := middleware.RequireRole(auth.RoleOperator, auth.RoleAdmin)

	chargers := r.Group("/api/v1/chargers")
	{
		chargers.GET("", h.ListChargers)
		chargers.GET("/:id", h.GetCharger)
		chargers.GET("/:id/availability", h.GetAvailability)
		chargers.POST("", authMW, operatorMW, h.RegisterCharger)
		chargers.PUT("/:id/availability", authMW, operatorMW, h.UpdateAvailability)
		chargers.GET("/:id/bookings", authMW, operatorMW, h.ListChargerBookings)
	}
}

// RegisterCharger handles POST /api/v1/chargers.
func (h *ChargerHandler) RegisterCharger(c *gin.Context) {
	var req application.RegisterChargerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.chargers.RegisterCharger(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListChargers handles GET /api/v1/chargers.
func (h *ChargerHandler) ListChargers(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.chargers.ListChargers(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetCharger handles GET /api/v1/chargers/:id.
func (h *ChargerHandler) GetCharger(c *gin.Context) {
	chargerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid charger ID")
		return
	}

	result, err := h.chargers.GetCharger(c.Request.Context(), chargerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetAvailability handles GET /api/v1/chargers/:id/availability.
func (h *ChargerHandler) GetAvailability(c *gin.Context) {
	chargerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid charger ID")
		return
	}

	status, err := h.chargers.GetAvailability(c.Request.Context(), chargerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"charger_id": chargerID, "status": string(status)})
}

// updateAvailabilityRequest is the body for PUT /api/v1/chargers/:id/availability.
type updateAvailabilityRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAvailability handles PUT /api/v1/chargers/:id/availability.
func (h *ChargerHandler) UpdateAvailability(c *gin.Context) {
	chargerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid charger ID")
		return
	}

	var req updateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	status, err := chargerDomain.ParseChargerStatus(req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.chargers.UpdateAvailability(c.Request.Context(), chargerID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListChargerBookings handles GET /api/v1/chargers/:id/bookings.
func (h *ChargerHandler) ListChargerBookings(c *gin.Context) {
	chargerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid charger ID")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.reservations.ListBookingsByCharger(c.Request.Context(), chargerID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

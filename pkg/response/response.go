package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltgrid-charging/service-reservation/pkg/domain"
)

// envelope is the uniform JSON body for all responses.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// paginatedEnvelope adds paging metadata.
type paginatedEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a 200 response with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, paginatedEnvelope{
		Success: true,
		Data:    items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: message})
}

// Error maps a domain error to its HTTP status and writes the response.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch domain.CodeOf(err) {
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeInvalidState, domain.CodeConflict:
		status = http.StatusConflict
	case domain.CodeForbidden:
		status = http.StatusForbidden
	case domain.CodeUnauthorized:
		status = http.StatusUnauthorized
	default:
		// Storage and other infrastructure failures are not leaked to clients.
		message = "internal server error"
	}

	c.JSON(status, envelope{Success: false, Error: message})
}

// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including the success and error envelopes and helpers for common HTTP
// patterns. Every response carries a boolean `success` so that clients can
// branch on one field regardless of the endpoint.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `success()` wraps a payload in the standard Envelope; `ok()` writes an
//     already shaped body and `noContent()` answers deletes.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "Project not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "message": "Project fetched successfully", "data": { ... } }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - Success: always false.
//   - RequestID: correlation ID echoed from the X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable error description, safe for display to users.
type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Project not found"`
}

// Envelope is the standard success body.
type Envelope struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Project fetched successfully"`
	Data    any    `json:"data,omitempty"`
}

// ContactListResponse is one page of the admin inbox.
type ContactListResponse struct {
	Success    bool             `json:"success" example:"true"`
	Message    string           `json:"message" example:"Contact requests fetched successfully"`
	Data       []domain.Contact `json:"data"`
	Total      int64            `json:"total" example:"42"`
	Page       int              `json:"page" example:"1"`
	Limit      int              `json:"limit" example:"10"`
	TotalPages int              `json:"totalPages" example:"5"`
}

// UnreadContactsResponse lists unread contacts with their count.
type UnreadContactsResponse struct {
	Success bool             `json:"success" example:"true"`
	Message string           `json:"message" example:"Unread contacts fetched successfully"`
	Data    []domain.Contact `json:"data"`
	Count   int              `json:"count" example:"3"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		Success:   false,
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// success writes data wrapped in the standard Envelope.
func success(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Envelope{Success: true, Message: msg, Data: data})
}

// ok writes a success JSON response with a caller-shaped body.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

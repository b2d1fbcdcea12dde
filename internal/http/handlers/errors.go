// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package) and the translation of
// service, repository and media errors into those responses.
//
// Conventions:
//   - Codes are lowercase, snake_case and mirror common HTTP status semantics.
//   - All error responses include both an HTTP status and one of these codes.
//   - Clients are expected to branch on these codes for programmatic error
//     handling and may show the message to users.
//
// Example response:
//
//	{
//	  "success": false,
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "A category with this name already exists"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
	"github.com/tbourn/go-portfolio-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// Messages for errors whose text is shown verbatim to clients.
const (
	msgCategoryNotFound  = "Category not found"
	msgProjectNotFound   = "Project not found"
	msgContactNotFound   = "Contact request not found"
	msgImageNotFound     = "Requested image not found"
	msgImageRequired     = "Project image is required"
	msgCategoryMissing   = "Specified category does not exist"
	msgDuplicateCategory = "A category with this name already exists"
	msgDuplicateContact  = "You have already submitted a request in the last 24 hours"
	msgInvalidLogin      = "Invalid admin credentials"
	msgInvalidJSON       = "invalid JSON body"
	msgBodyTooLarge      = "request body too large"
	msgInternal          = "internal server error"
)

// failErr translates err into a status, code and message and aborts the
// request. Unknown errors become 500 and are logged with their cause.
func failErr(c *gin.Context, err error) {
	var ve *services.ValidationError
	var tooBig *http.MaxBytesError

	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, ve.Error())

	case errors.Is(err, services.ErrCategoryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgCategoryNotFound)
	case errors.Is(err, services.ErrProjectNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgProjectNotFound)
	case errors.Is(err, services.ErrContactNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgContactNotFound)
	case errors.Is(err, media.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgImageNotFound)

	case errors.Is(err, services.ErrImageRequired), errors.Is(err, media.ErrNoFile):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgImageRequired)
	case errors.Is(err, services.ErrCategoryMissing):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgCategoryMissing)
	case errors.Is(err, services.ErrDuplicateContact):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgDuplicateContact)
	case errors.Is(err, media.ErrUnsupportedType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Only image files are allowed")
	case errors.Is(err, media.ErrTooLarge):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Image exceeds the maximum upload size")
	case errors.Is(err, media.ErrInvalidImage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Uploaded file is not a valid image")
	case errors.Is(err, multilingual.ErrMissingLanguage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.As(err, &tooBig):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBodyTooLarge)

	case errors.Is(err, services.ErrDuplicateCategory):
		fail(c, http.StatusConflict, ErrCodeConflict, msgDuplicateCategory)
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, msgInvalidLogin)

	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Str("route", c.FullPath()).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
	}
}

// failBind reports a request body that could not be decoded.
func failBind(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBodyTooLarge)
	case errors.Is(err, multilingual.ErrMissingLanguage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
	}
}

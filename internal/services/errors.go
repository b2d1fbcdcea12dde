// Package services defines the business logic for categories, projects,
// contact requests and the admin login. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/repo"
)

// Lookup errors.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrContactNotFound  = errors.New("contact not found")
)

// Catalogue errors.
var (
	// ErrDuplicateCategory is returned when another category already has the
	// same name.
	ErrDuplicateCategory = errors.New("a category with this name already exists")

	// ErrCategoryMissing is returned when a project references a category id
	// that does not exist.
	ErrCategoryMissing = errors.New("specified category does not exist")

	// ErrImageRequired is returned when a project is created without an image.
	ErrImageRequired = errors.New("project image is required")
)

// Contact errors.
var (
	// ErrDuplicateContact is returned when the same email submitted a request
	// inside the duplicate window.
	ErrDuplicateContact = errors.New("you have already submitted a request in the last 24 hours")
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
)

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Message }

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate detects unique-constraint violations, including those the repo
// did not already map to repo.ErrDuplicate.
func isDuplicate(err error) bool {
	if errors.Is(err, repo.ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

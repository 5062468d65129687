// Package services defines the business logic for orders, notifications,
// recommendations, favorites and ratings. This file centralizes the
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Every specific error belongs to exactly one category (ErrValidation,
// ErrConflict or ErrNotFound) and matches it with errors.Is. Translation into
// HTTP status codes is performed at the handler layer from the category
// alone; Error() carries the user-facing text.
package services

import "errors"

// Error categories.
var (
	// ErrValidation marks missing or malformed required input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a write rejected because the resource already exists.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a referenced resource that does not exist.
	ErrNotFound = errors.New("not found")
)

// categorized is a user-facing message that unwraps to its category.
type categorized struct {
	category error
	msg      string
}

func (e *categorized) Error() string { return e.msg }
func (e *categorized) Unwrap() error { return e.category }

func newError(category error, msg string) error {
	return &categorized{category: category, msg: msg}
}

// Order errors.
var (
	ErrMissingOrderID  = newError(ErrValidation, "order id is required")
	ErrMissingStatus   = newError(ErrValidation, "status is required")
	ErrPreOrderTooSoon = newError(ErrValidation, "pre-orders must be placed at least one day before delivery")
	ErrOrderExists     = newError(ErrConflict, "order already exists")

	// ErrOrderNotFound is raised internally when a transitioned order cannot
	// be re-read. UpdateStatus swallows it.
	ErrOrderNotFound = newError(ErrNotFound, "order not found")
)

// Notification errors.
var (
	ErrMissingRecipient     = newError(ErrValidation, "mobile is required")
	ErrMissingMessage       = newError(ErrValidation, "message is required")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")
)

// Favorite and rating errors.
var (
	ErrMissingItem   = newError(ErrValidation, "item name is required")
	ErrInvalidRating = newError(ErrValidation, "rating must be between 1 and 5")
)

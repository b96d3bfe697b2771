// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("forbidden")
	ErrorInvalidCredentials = errors.New("invalid email or password")

	// Validation errors. Wrapped by services.ValidationError with a
	// user-facing message.
	ErrorValidation = errors.New("validation error")

	// ErrorClaimLocked is returned when a claim has left the Pending state
	// and can no longer be modified by its lecturer.
	ErrorClaimLocked = errors.New("claim is no longer pending")

	// ErrorClaimNotInReview is returned when a reviewer acts on a claim
	// that is not at their step of the approval workflow.
	ErrorClaimNotInReview = errors.New("claim is not awaiting this review")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required setting is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrTickInProgress indicates a refresh cycle is already running.
	ErrTickInProgress = errors.New("tick in progress")

	// Platform Errors.

	// ErrUnauthorized indicates the platform rejected the access token (HTTP 401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the platform rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

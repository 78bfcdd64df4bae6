package domain

import (
	"errors"
	"fmt"
)

// Authorization gate.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRoleNotFound    = errors.New("role not found")
)

// Lookups.
var (
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
)

// Input and state.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidRole       = fmt.Errorf("%w: unknown role", ErrValidation)
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflicting update")
)

// External side effects.
var (
	ErrProvisioningFailed = errors.New("room provisioning failed")
	ErrPersistenceFailed  = errors.New("persistence failed")
	// ErrNotificationRejected is returned by a notifier when the provider
	// refused the message. It is never propagated past the coordinator.
	ErrNotificationRejected = errors.New("notification rejected")
)

// Identity provisioning.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

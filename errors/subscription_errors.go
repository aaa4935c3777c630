// api/errors/subscription_errors.go
package errors

import "errors"

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrSubscriptionConflict    = errors.New("subscription conflict")
	ErrInvalidSubscriptionData = errors.New("invalid subscription data")

	ErrGrantNotFound    = errors.New("grant not found")
	ErrInvalidGrantData = errors.New("invalid grant data")

	ErrInvalidPackageData = errors.New("invalid package data")

	ErrDatabaseOperation = errors.New("database operation failed")
	ErrInternalServer    = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)

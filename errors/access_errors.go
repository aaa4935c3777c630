// api/errors/access_errors.go
package errors

import "errors"

var (
	// ErrAccessDenied is the terminal security failure. Every hard denial
	// wraps this sentinel and nothing else, so callers cannot tell which
	// step of a precedence chain rejected them.
	ErrAccessDenied = errors.New("access denied")

	// ErrUnknownSubscription is returned by the association oracle for
	// subscriptions the device has no record of.
	ErrUnknownSubscription = errors.New("subscription not known to device")

	ErrPackageNotFound      = errors.New("package not found")
	ErrNilPackageName       = errors.New("package name is required")
	ErrInvalidAccessRequest = errors.New("invalid access request")
)

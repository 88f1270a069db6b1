package target

import (
	"errors"

	"certhub/internal/domain/user"
)

var (
	ErrUnauthorized             = errors.New("authentication required")
	ErrForbidden                = errors.New("not allowed to change this user's target")
	ErrTargetLocked             = errors.New("target level is locked at the current rank")
	ErrInvalidTargetLevel       = errors.New("invalid target level")
	ErrTargetBelowActive        = errors.New("target level is below the current rank")
	ErrUserNotFound             = user.ErrUserNotFound
	ErrTargetGroupNotConfigured = errors.New("group for target level is not configured")
	ErrTransactionFailed        = errors.New("target transaction failed")
)

// domainErrors pass through the transaction unwrapped.
var domainErrors = []error{
	ErrTargetLocked,
	ErrTargetBelowActive,
	ErrUserNotFound,
	ErrTargetGroupNotConfigured,
}

func isDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

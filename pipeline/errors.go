package pipeline

import (
	"github.com/kbukum/onion/errors"
)

// middlewareCapability names the Middleware interface in error details.
const middlewareCapability = "pipeline.Middleware"

// IsUnsupportedMiddleware reports whether err was raised because a resolved
// instance lacks a required capability.
func IsUnsupportedMiddleware(err error) bool {
	return errors.HasCode(err, errors.ErrCodeUnsupportedMiddleware)
}

// IsInvalidAction reports whether err was raised because the terminal action
// could not be invoked.
func IsInvalidAction(err error) bool {
	return errors.HasCode(err, errors.ErrCodeInvalidAction)
}

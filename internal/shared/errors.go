package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Upstream and storage errors
	ErrRepository         = fmt.Errorf("repository error")
	ErrNotFound           = fmt.Errorf("not found")
	ErrLookup             = fmt.Errorf("lectionary lookup failed")
	ErrGeneration         = fmt.Errorf("generation failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// named is ordered most specific first: a NotFound wrapped in a Repository error reports as not found.
var named = []error{
	ErrNotFound,
	ErrLookup,
	ErrGeneration,
	ErrRepository,
	ErrMissingCredentials,
	ErrInvalidConfig,
	ErrMissingConfig,
	ErrInvalidInput,
	ErrMissingArgument,
	ErrInvalidArgument,
	ErrInvalidFlag,
	ErrAPIRequest,
	ErrServiceUnavailable,
	ErrNotImplemented,
}

// Describe returns the name of the failure class err belongs to, or "error" when it matches no sentinel.
func Describe(err error) string {
	for _, target := range named {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "error"
}

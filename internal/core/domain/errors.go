package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("credential rejected")
	ErrTemporary          = errors.New("temporary failure")
	ErrNoFallback         = errors.New("no fallback available")
	ErrNetwork            = errors.New("network failure")
	ErrUpstream           = errors.New("upstream failure")
	ErrSaveFailed         = errors.New("save failed")
	ErrPatternNotFound    = errors.New("pattern not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNoCapturedImage    = errors.New("no captured image")
	ErrDeviceUnavailable  = errors.New("capture device unavailable")
	ErrFittingInFlight    = errors.New("fitting already in progress")
	ErrAttemptDiscarded   = errors.New("fitting attempt discarded")
	ErrCatalogUnavailable = errors.New("pattern catalog unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSessionNotFound), domain.IsKind(err, domain.ErrPatternNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNoCapturedImage):
		return http.StatusPreconditionRequired
	case domain.IsKind(err, domain.ErrFittingInFlight), domain.IsKind(err, domain.ErrAttemptDiscarded):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrNetwork),
		domain.IsKind(err, domain.ErrCatalogUnavailable),
		domain.IsKind(err, domain.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUnauthorized),
		domain.IsKind(err, domain.ErrNoFallback),
		domain.IsKind(err, domain.ErrUpstream),
		domain.IsKind(err, domain.ErrSaveFailed):
		// The end user did nothing wrong; the collaborator failed.
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	kinds := []struct {
		kind error
		name string
	}{
		{domain.ErrInvalidInput, "invalid_input"},
		{domain.ErrUnauthorized, "credential"},
		{domain.ErrNoFallback, "hard_dependency"},
		{domain.ErrTemporary, "temporary_unavailable"},
		{domain.ErrNetwork, "network"},
		{domain.ErrSaveFailed, "save_failed"},
		{domain.ErrSessionNotFound, "session_not_found"},
		{domain.ErrPatternNotFound, "pattern_not_found"},
		{domain.ErrNoCapturedImage, "no_captured_image"},
		{domain.ErrFittingInFlight, "fitting_in_flight"},
		{domain.ErrAttemptDiscarded, "attempt_discarded"},
		{domain.ErrCatalogUnavailable, "catalog_unavailable"},
		{domain.ErrDeviceUnavailable, "device_unavailable"},
		{domain.ErrUpstream, "upstream"},
	}
	for _, k := range kinds {
		if domain.IsKind(err, k.kind) {
			return k.name
		}
	}
	return ""
}

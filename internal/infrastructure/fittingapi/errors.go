package fittingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/infrastructure/resilience"
)

const noFallbackMarker = "no fallback"

// StatusError is a non-2xx answer from the fitting service. The structured
// fields come from the JSON error body when the service sent one.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	ErrorText  string
	Solution   string
	Message    string
	Details    string
	NoFallback bool
	Body       string
}

type errorBody struct {
	Error      string `json:"error"`
	Solution   string `json:"solution"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	NoFallback bool   `json:"no_fallback"`
}

func newStatusError(operation string, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	out := &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(raw)),
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		out.ErrorText = strings.TrimSpace(body.Error)
		out.Solution = strings.TrimSpace(body.Solution)
		out.Message = strings.TrimSpace(body.Message)
		out.Details = strings.TrimSpace(body.Details)
		out.NoFallback = body.NoFallback
	}
	return out
}

func (e *StatusError) Error() string {
	if e == nil {
		return "fitting service status error"
	}
	if detail := e.UserMessage(); detail != "" {
		return fmt.Sprintf("fitting service %s status: %s: %s", e.Operation, e.Status, detail)
	}
	if e.Body != "" {
		return fmt.Sprintf("fitting service %s status: %s: %s", e.Operation, e.Status, e.Body)
	}
	return fmt.Sprintf("fitting service %s status: %s", e.Operation, e.Status)
}

// UserMessage joins the service's error text and suggested solution.
func (e *StatusError) UserMessage() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, part := range []string{e.ErrorText, e.Message, e.Details} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	text := strings.Join(parts, ": ")
	if e.Solution != "" {
		if text != "" {
			text += ". "
		}
		text += e.Solution
	}
	return text
}

// IsHardDependencyFailure reports a 500 that says no fallback exists.
func (e *StatusError) IsHardDependencyFailure() bool {
	if e == nil || e.StatusCode != http.StatusInternalServerError {
		return false
	}
	if e.NoFallback {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{e.ErrorText, e.Message, e.Details, e.Solution}, " "))
	return strings.Contains(haystack, noFallbackMarker)
}

func classifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case isRetryableHTTPStatus(statusErr.StatusCode):
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		case statusErr.StatusCode >= 500:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
		default:
			// Caller mistakes and rejected credentials say nothing about the
			// service being down.
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// toDomainError maps a transport or status failure onto a domain error kind.
func toDomainError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return domain.WrapError(domain.ErrTemporary, operation, err)
	case resilience.IsCircuitOpen(err):
		return domain.WrapError(domain.ErrTemporary, operation, fmt.Errorf("circuit open: %w", err))
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return domain.WrapError(kindForStatus(statusErr), operation, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrNetwork, operation, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.WrapError(domain.ErrNetwork, operation, err)
	}
	return domain.WrapError(domain.ErrUpstream, operation, err)
}

func kindForStatus(e *StatusError) error {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case e.IsHardDependencyFailure():
		return domain.ErrNoFallback
	case isRetryableHTTPStatus(e.StatusCode):
		return domain.ErrTemporary
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity, e.StatusCode == http.StatusRequestEntityTooLarge:
		return domain.ErrInvalidInput
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrPatternNotFound
	default:
		return domain.ErrUpstream
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

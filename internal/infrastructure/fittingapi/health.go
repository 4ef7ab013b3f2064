package fittingapi

import (
	"context"
	"net/http"
)

// Ping checks that the service answers its health endpoint. It bypasses the
// breaker so readiness reflects the service, not our view of it.
func (c *Client) Ping(ctx context.Context) error {
	return toDomainError(operationHealth, c.doJSON(ctx, http.MethodGet, "/health", nil, nil, operationHealth))
}

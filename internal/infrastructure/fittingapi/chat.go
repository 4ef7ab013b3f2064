package fittingapi

import (
	"context"
	"net/http"
	"strings"
)

type chatRequest struct {
	Query     string `json:"query"`
	PatternID string `json:"patternId,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Respond forwards a chat query, with the current pattern as context.
func (c *Client) Respond(ctx context.Context, query, patternID string) (string, error) {
	var response chatResponse
	payload := chatRequest{Query: query, PatternID: strings.TrimSpace(patternID)}
	if err := c.call(ctx, http.MethodPost, "/chatbot", payload, &response, operationChat); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

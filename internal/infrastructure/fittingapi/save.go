package fittingapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/infrastructure/resilience"
)

type saveRequest struct {
	ImageBase64 string `json:"imageBase64"`
	PatternID   string `json:"patternId"`
}

// SavePhoto asks the service to keep a produced image. A 2xx answer with
// success=false is returned as a receipt, not an error.
func (c *Client) SavePhoto(ctx context.Context, imageBase64, patternID string) (domain.SaveReceipt, error) {
	var receipt domain.SaveReceipt
	payload := saveRequest{ImageBase64: domain.StripDataURIPrefix(imageBase64), PatternID: strings.TrimSpace(patternID)}
	if err := c.call(ctx, http.MethodPost, "/save_photo", payload, &receipt, operationSave, resilience.WithMaxAttempts(1)); err != nil {
		return domain.SaveReceipt{}, err
	}
	return receipt, nil
}

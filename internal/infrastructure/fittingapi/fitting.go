package fittingapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/infrastructure/resilience"
)

type fittingRequest struct {
	SourceImageBase64 string `json:"sourceImageBase64"`
	PatternID         string `json:"patternId"`
}

// fittingResponse also accepts the field names of older service builds.
type fittingResponse struct {
	ResultImageBase64 string `json:"resultImageBase64"`
	ResultImage       string `json:"resultImage"`
	LegacyResultImage string `json:"result_image"`
	MethodUsed        string `json:"methodUsed"`
	Method            string `json:"method"`
	LegacyMethodUsed  string `json:"method_used"`
}

func (r fittingResponse) image() string {
	for _, candidate := range []string{r.ResultImageBase64, r.ResultImage, r.LegacyResultImage} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

func (r fittingResponse) method() string {
	for _, candidate := range []string{r.MethodUsed, r.Method, r.LegacyMethodUsed} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// ApplyPattern issues exactly one fitting call per invocation. It is neither
// retried nor gated by the breaker; retrying is a user decision.
func (c *Client) ApplyPattern(ctx context.Context, req domain.FittingRequest) (domain.FittingResult, error) {
	if err := req.Validate(); err != nil {
		return domain.FittingResult{}, err
	}

	payload := fittingRequest{
		SourceImageBase64: req.SourceImage.Base64(),
		PatternID:         req.PatternID,
	}
	var response fittingResponse
	if err := c.call(ctx, http.MethodPost, "/virtual_fitting", payload, &response, operationFitting,
		resilience.WithMaxAttempts(1), resilience.WithoutBreaker()); err != nil {
		return domain.FittingResult{}, err
	}

	image := response.image()
	if image == "" {
		return domain.FittingResult{}, domain.WrapError(domain.ErrUpstream, operationFitting, errors.New("response carried no result image"))
	}
	return domain.FittingResult{
		Image:       image,
		MethodUsed:  response.method(),
		PatternID:   req.PatternID,
		CompletedAt: time.Now().UTC(),
	}, nil
}

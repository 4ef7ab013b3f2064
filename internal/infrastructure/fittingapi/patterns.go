package fittingapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

type patternListing struct {
	Patterns []patternEntry `json:"patterns"`
}

type patternEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// ListPatterns fetches the authoritative motif catalog.
func (c *Client) ListPatterns(ctx context.Context) ([]domain.PatternDescriptor, error) {
	var listing patternListing
	if err := c.call(ctx, http.MethodGet, c.patternsPath, nil, &listing, operationPatterns); err != nil {
		return nil, err
	}

	out := make([]domain.PatternDescriptor, 0, len(listing.Patterns))
	for _, entry := range listing.Patterns {
		name := strings.TrimSpace(entry.Name)
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = domain.PatternIDFromName(name)
		}
		if id == "" {
			continue
		}
		if name == "" {
			name = id
		}
		out = append(out, domain.PatternDescriptor{
			ID:           id,
			Name:         name,
			ReferenceURL: c.referenceURL(entry.Filename, name),
			Description:  strings.TrimSpace(entry.Description),
		})
	}
	return out, nil
}

func (c *Client) referenceURL(filename, name string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "/placeholder.svg?text=" + url.QueryEscape(name)
	}
	return c.baseURL + "/static/batik_patterns/" + url.PathEscape(filename)
}

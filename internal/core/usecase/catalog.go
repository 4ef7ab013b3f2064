package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

// CatalogService serves the selectable motifs. The remote listing is the only
// source of truth; local knowledge only fills in descriptions.
type CatalogService struct {
	lister    ports.PatternLister
	knowledge ports.PatternKnowledge
	observer  ports.CatalogObserver
}

func NewCatalogService(lister ports.PatternLister, knowledge ports.PatternKnowledge, observer ports.CatalogObserver) *CatalogService {
	return &CatalogService{lister: lister, knowledge: knowledge, observer: observer}
}

// List fetches the catalog once. On failure the slice is empty, never a
// substitute list.
func (uc *CatalogService) List(ctx context.Context) ([]domain.PatternDescriptor, error) {
	patterns, err := uc.lister.ListPatterns(ctx)
	if uc.observer != nil {
		uc.observer.ObserveCatalogLoad(len(patterns), err)
	}
	if err != nil {
		slog.Warn("catalog_load_failed", "error", err)
		return []domain.PatternDescriptor{}, domain.WrapError(domain.ErrCatalogUnavailable, "list patterns", err)
	}

	out := make([]domain.PatternDescriptor, 0, len(patterns))
	for _, p := range patterns {
		if p.ID == "" {
			p.ID = domain.PatternIDFromName(p.Name)
		}
		if p.ID == "" {
			continue
		}
		if p.Description == "" && uc.knowledge != nil {
			if known, ok := uc.knowledge.Describe(p.ID); ok {
				p.Description = known.Description
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (uc *CatalogService) Search(ctx context.Context, term string) ([]domain.PatternDescriptor, error) {
	patterns, err := uc.List(ctx)
	if err != nil {
		return patterns, err
	}
	return FilterPatterns(patterns, term), nil
}

func (uc *CatalogService) Find(ctx context.Context, id string) (domain.PatternDescriptor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.PatternDescriptor{}, domain.WrapError(domain.ErrInvalidInput, "find pattern", fmt.Errorf("pattern id is required"))
	}
	patterns, err := uc.List(ctx)
	if err != nil {
		return domain.PatternDescriptor{}, err
	}
	for _, p := range patterns {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.PatternDescriptor{}, domain.WrapError(domain.ErrPatternNotFound, "find pattern", fmt.Errorf("id %q", id))
}

// FilterPatterns keeps the descriptors whose name or description contains
// term, ignoring case. An empty term keeps everything.
func FilterPatterns(patterns []domain.PatternDescriptor, term string) []domain.PatternDescriptor {
	out := make([]domain.PatternDescriptor, 0, len(patterns))
	for _, p := range patterns {
		if p.Matches(term) {
			out = append(out, p)
		}
	}
	return out
}

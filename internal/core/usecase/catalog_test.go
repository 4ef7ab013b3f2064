package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

func sampleListing() []domain.PatternDescriptor {
	return []domain.PatternDescriptor{
		{ID: "sekar_kemuning", Name: "Sekar Kemuning", ReferenceURL: "http://svc/static/batik_patterns/sekar_kemuning.jpg"},
		{ID: "ceplok_liring", Name: "Ceplok Liring"},
		{ID: "sekar_duren", Name: "Sekar Duren"},
		{Name: "Arumdalu"},
		{ID: "kawung_nitik", Name: "Kawung Nitik", Description: "Motif kawung dengan teknik nitik"},
	}
}

func TestCatalogListEnrichesFromKnowledge(t *testing.T) {
	lister := &listerFake{patterns: sampleListing()}
	uc := NewCatalogService(lister, sampleKnowledge(), nil)

	patterns, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(patterns) != 5 {
		t.Fatalf("expected 5 patterns, got %d", len(patterns))
	}
	if patterns[0].Description == "" {
		t.Fatalf("expected description from knowledge for %s", patterns[0].ID)
	}
	if patterns[3].ID != "arumdalu" || patterns[3].Description == "" {
		t.Fatalf("expected derived id and description, got %+v", patterns[3])
	}
	if patterns[4].Description != "Motif kawung dengan teknik nitik" {
		t.Fatalf("expected listing description to win, got %q", patterns[4].Description)
	}
	if lister.calls != 1 {
		t.Fatalf("expected one remote call, got %d", lister.calls)
	}
}

func TestCatalogListFailureReturnsEmptyAndError(t *testing.T) {
	uc := NewCatalogService(&listerFake{err: errors.New("connection refused")}, sampleKnowledge(), nil)

	patterns, err := uc.List(context.Background())
	if !domain.IsKind(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if patterns == nil || len(patterns) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", patterns)
	}
}

func TestFilterPatterns(t *testing.T) {
	patterns := []domain.PatternDescriptor{
		{ID: "a", Name: "Sekar Kemuning", Description: "bunga kemuning"},
		{ID: "b", Name: "Sekar Duren", Description: "bunga durian"},
		{ID: "c", Name: "Ceplok Liring", Description: "ragam hias tidak beraturan"},
		{ID: "d", Name: "Kawung Nitik", Description: ""},
	}

	cases := []struct {
		term string
		want []string
	}{
		{term: "", want: []string{"a", "b", "c", "d"}},
		{term: "SEKAR", want: []string{"a", "b"}},
		{term: "bunga", want: []string{"a", "b"}},
		{term: "  liring ", want: []string{"c"}},
		{term: "Beraturan", want: []string{"c"}},
		{term: "parang", want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.term, func(t *testing.T) {
			got := FilterPatterns(patterns, tc.term)
			if got == nil {
				t.Fatalf("expected non-nil slice")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("FilterPatterns(%q) returned %d entries, want %d", tc.term, len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("entry %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestCatalogFind(t *testing.T) {
	uc := NewCatalogService(&listerFake{patterns: sampleListing()}, sampleKnowledge(), nil)

	p, err := uc.Find(context.Background(), "sekar_duren")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if p.Name != "Sekar Duren" {
		t.Fatalf("unexpected pattern: %+v", p)
	}
	if _, err := uc.Find(context.Background(), "parang"); !domain.IsKind(err, domain.ErrPatternNotFound) {
		t.Fatalf("expected ErrPatternNotFound, got %v", err)
	}
	if _, err := uc.Find(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

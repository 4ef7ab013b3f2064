package gemini

import (
	"context"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

func TestBuildChatPromptWithoutPattern(t *testing.T) {
	prompt := buildChatPrompt("  apa itu batik?  ", nil)
	if !strings.Contains(prompt, "Pertanyaan:\napa itu batik?") {
		t.Fatalf("unexpected prompt %q", prompt)
	}
	if strings.Contains(prompt, "Motif yang sedang dipilih") {
		t.Fatalf("prompt should not carry pattern context: %q", prompt)
	}
}

func TestBuildChatPromptCarriesPatternContext(t *testing.T) {
	pattern := &domain.PatternDescriptor{ID: "kawung", Name: "Kawung", Description: "Motif empat bulatan."}
	prompt := buildChatPrompt("apa maknanya?", pattern)

	for _, want := range []string{"Kawung (id=kawung)", "Keterangan: Motif empat bulatan.", "apa maknanya?"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got %q", want, prompt)
		}
	}
}

func TestBuildChatPromptTruncatesLongQueries(t *testing.T) {
	prompt := buildChatPrompt(strings.Repeat("é", maxQueryRunes+50), nil)
	if got := strings.Count(prompt, "é"); got != maxQueryRunes {
		t.Fatalf("expected %d runes kept, got %d", maxQueryRunes, got)
	}
}

func TestReplyTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Batik "), genai.Text("adalah kain. ")}},
		}},
	}
	got, err := replyText(resp)
	if err != nil {
		t.Fatalf("replyText() error = %v", err)
	}
	if got != "Batik adalah kain." {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestReplyTextRejectsEmptyResponses(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"no content":    {Candidates: []*genai.Candidate{{}}},
		"blank text":    {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}}},
	}
	for name, resp := range cases {
		if _, err := replyText(resp); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil, nil)
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
	"github.com/kirillkom/batikgram/internal/infrastructure/resilience"
)

const (
	DefaultModel = "gemini-1.5-flash"

	operationGenerate = "gemini.generate"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Responder answers batik questions through Gemini. It satisfies
// ports.RemoteChat, so the chat service falls back to the local responder
// whenever it fails.
type Responder struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	knowledge ports.PatternKnowledge
	executor  *resilience.Executor
}

func New(ctx context.Context, cfg Config, knowledge ports.PatternKnowledge, executor *resilience.Executor) (*Responder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "gemini", errors.New("GEMINI_API_KEY is not set"))
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	name := strings.TrimSpace(cfg.Model)
	if name == "" {
		name = DefaultModel
	}
	model := client.GenerativeModel(name)
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.4
	}
	model.SetTemperature(temperature)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))

	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &Responder{
		client:    client,
		model:     model,
		knowledge: knowledge,
		executor:  executor,
	}, nil
}

func (r *Responder) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Responder) Respond(ctx context.Context, query, patternID string) (string, error) {
	prompt := buildChatPrompt(query, r.currentPattern(patternID))

	var reply string
	err := r.executor.Execute(ctx, operationGenerate, func(callCtx context.Context) error {
		resp, err := r.model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			return fmt.Errorf("generate content: %w", err)
		}
		text, err := replyText(resp)
		if err != nil {
			return err
		}
		reply = text
		return nil
	}, classifyError, resilience.WithMaxAttempts(1))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) || resilience.IsCircuitOpen(err) {
			return "", domain.WrapError(domain.ErrTemporary, operationGenerate, err)
		}
		return "", domain.WrapError(domain.ErrUpstream, operationGenerate, err)
	}
	return reply, nil
}

func (r *Responder) currentPattern(patternID string) *domain.PatternDescriptor {
	if r.knowledge == nil || strings.TrimSpace(patternID) == "" {
		return nil
	}
	pattern, ok := r.knowledge.Describe(patternID)
	if !ok {
		return nil
	}
	return &pattern
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("empty content returned from gemini")
	}

	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	reply := strings.TrimSpace(out.String())
	if reply == "" {
		return "", errors.New("unexpected response format from gemini")
	}
	return reply, nil
}

func classifyError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

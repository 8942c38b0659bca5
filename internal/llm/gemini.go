package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Default Gemini models. The fast model handles extraction-style tasks where
// quality matters less than cost.
const (
	DefaultModel     = "gemini-flash-latest"
	DefaultFastModel = "gemini-flash-lite-latest"
)

const maxAttempts = 3

// GeminiProvider implements Provider on the Gemini API.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	fastModel string
}

// NewGeminiProvider creates a provider. An empty model falls back to the
// defaults.
func NewGeminiProvider(ctx context.Context, apiKey, model, fastModel string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required, set GEMINI_API_KEY or gemini.api_key in config")
	}
	if model == "" {
		model = DefaultModel
	}
	if fastModel == "" {
		fastModel = DefaultFastModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model, fastModel: fastModel}, nil
}

// Generate produces a completion with the primary model.
func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error) {
	return p.generate(ctx, p.model, systemPrompt, userPrompt)
}

// GenerateWithConfidence appends the confidence instruction and parses the
// score out of the response.
func (p *GeminiProvider) GenerateWithConfidence(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error) {
	result, err := p.generate(ctx, p.model, systemPrompt, userPrompt+confidenceSuffix)
	if err != nil {
		return GenerationResult{}, err
	}
	content, confidence := ParseConfidence(result.Content)
	result.Content = content
	result.Confidence = confidence
	return result, nil
}

// GenerateFast produces a completion with the cheap model.
func (p *GeminiProvider) GenerateFast(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error) {
	return p.generate(ctx, p.fastModel, systemPrompt, userPrompt)
}

func (p *GeminiProvider) generate(ctx context.Context, model, systemPrompt, userPrompt string) (GenerationResult, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: userPrompt}},
		Role:  "user",
	}}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				return GenerationResult{}, fmt.Errorf("empty response from %s", model)
			}
			result := GenerationResult{
				Content:  text,
				Model:    model,
				Provider: "gemini",
			}
			if resp.UsageMetadata != nil {
				result.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
			}
			return result, nil
		}

		lastErr = err
		if !isTransient(err) || attempt == maxAttempts {
			break
		}
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn().Err(err).Str("model", model).Int("attempt", attempt).
			Dur("backoff", backoff).Msg("generation failed, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return GenerationResult{}, ctx.Err()
		}
	}
	return GenerationResult{}, fmt.Errorf("generation failed: %w", lastErr)
}

// isTransient reports whether an API error is worth retrying: rate limits
// and server-side failures, not client errors.
func isTransient(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"429", "500", "502", "503", "504", "rate limit", "RESOURCE_EXHAUSTED", "UNAVAILABLE"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

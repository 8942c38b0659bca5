// Package llm abstracts the text-generation provider used for drafting
// posts and comments.
package llm

import (
	"context"
	"strconv"
	"strings"
)

// GenerationResult is the outcome of one generation call.
type GenerationResult struct {
	Content    string  `json:"content"`
	Model      string  `json:"model"`
	Provider   string  `json:"provider"`
	TokensUsed int     `json:"tokens_used"`
	Confidence float64 `json:"confidence"` // model self-assessment in [0,1]
}

// Provider generates text from a system prompt and a user prompt.
type Provider interface {
	// Generate produces a completion.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error)
	// GenerateWithConfidence asks the model to append a confidence line and
	// returns the parsed score alongside the cleaned content.
	GenerateWithConfidence(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error)
	// GenerateFast uses a cheaper model for simple extraction tasks.
	GenerateFast(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error)
}

// confidenceSuffix is appended to prompts for GenerateWithConfidence.
const confidenceSuffix = "\n\nAfter your response, on a new line write CONFIDENCE: followed by " +
	"a number between 0.0 and 1.0 indicating how confident you are in the " +
	"quality and relevance of your response."

// ParseConfidence strips a trailing "CONFIDENCE: x" line from generated text
// and returns the remaining content with the score clamped to [0,1]. Without
// a parseable confidence line the score defaults to 0.5.
func ParseConfidence(text string) (content string, confidence float64) {
	confidence = 0.5
	var kept []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToUpper(stripped), "CONFIDENCE:") {
			raw := strings.TrimSpace(stripped[len("CONFIDENCE:"):])
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				confidence = clamp01(v)
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), confidence
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

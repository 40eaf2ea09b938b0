// Package gemini implements taxonomy.Predictor on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"expensedash/internal/core"
)

const DefaultModel = "gemini-2.0-flash"

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Predictor struct {
	models generator
	model  string
}

// New creates a Gemini-backed predictor. An empty model selects DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Predictor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newWithGenerator(client.Models, model), nil
}

func newWithGenerator(g generator, model string) *Predictor {
	if model == "" {
		model = DefaultModel
	}
	return &Predictor{models: g, model: model}
}

// PredictCategory asks the model to pick one of categories for name. The
// returned label is cleaned but not validated against categories.
func (p *Predictor) PredictCategory(ctx context.Context, name string, categories []core.Category) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: 20,
	}
	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(buildPrompt(name, categories)), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini: empty response")
	}
	label := cleanLabel(resp.Text())
	if label == "" {
		return "", errors.New("gemini: empty response")
	}
	return label, nil
}

func buildPrompt(name string, categories []core.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return "Classify the following expense into exactly one category.\n\n" +
		"Expense: " + name + "\n\n" +
		"Categories: " + strings.Join(names, ", ") + "\n\n" +
		"Reply with the category name only, spelled exactly as listed.\n" +
		"Do NOT add punctuation, quotes, Markdown or explanation.\n" +
		"If no category fits, reply " + string(core.Miscellaneous) + ".\n"
}

// cleanLabel strips the wrapping models add despite instructions: code
// fences, quotes, a "Category:" prefix and trailing punctuation.
func cleanLabel(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[:idx]
	}
	if head, rest, ok := strings.Cut(s, ":"); ok && strings.EqualFold(strings.TrimSpace(head), "category") {
		s = rest
	}
	return strings.Trim(strings.TrimSpace(s), "\"'`*.")
}

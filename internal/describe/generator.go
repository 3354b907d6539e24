// Package describe generates short promotional product descriptions with the
// Gemini API. The feature is optional: when no API key is configured the
// storefront simply runs without it, and a generation failure surfaces as a
// user-visible error without blocking the rest of the product form.
package describe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Generator wraps a genai client bound to one model.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator builds a Generator. Returns an error when the client cannot
// be constructed; callers treat a nil Generator as "feature disabled".
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Generator{client: client, model: model}, nil
}

// ProductDescription asks the model for a short (max 40 words) sales
// description for a product name and category.
func (g *Generator) ProductDescription(ctx context.Context, name, category string) (string, error) {
	prompt := fmt.Sprintf(`Act as an expert e-commerce copywriter for a Peruvian store.
Write a short (40 words max), attractive sales description for a product.
Name: %s
Category: %s

Use a friendly, professional tone. Include subtle emojis.`, name, category)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate description: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("model returned an empty description")
	}
	return text, nil
}

package generator

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini generates comments through Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the Gemini comment backend.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini generator requires an api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate returns a short casual comment for the thread text.
func (g *Gemini) Generate(ctx context.Context, contextText, platform string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(buildPrompt(contextText, platform)),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			MaxOutputTokens: 150,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini completion returned no text")
	}
	return text, nil
}

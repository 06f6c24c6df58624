// Package generator produces short casual comments for a thread. The
// driver treats it as an opaque collaborator: one call, text out, and any
// error abandons the comment for that thread.
package generator

import (
	"context"
	"fmt"
	"strings"
)

// MaxCommentChars is the length the prompt asks the model to stay under.
// It is a request to the model, not a hard truncation.
const MaxCommentChars = 250

// Generator produces a comment for the given thread context.
type Generator interface {
	Generate(ctx context.Context, contextText, platform string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Provider string // "openai" (default) or "gemini"
	Model    string
	APIKey   string
}

// New constructs the configured backend.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai generator requires an api key")
		}
		return NewOpenAI(cfg.APIKey, cfg.Model), nil
	case "gemini":
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown generator provider: %q", cfg.Provider)
	}
}

func buildPrompt(contextText, platform string) string {
	return fmt.Sprintf("Write a human sounding comment for this %s post:\n\n%s\n\n"+
		"The tone should be really casual. Keep it less than %d characters. "+
		"Shorter the better. Keep it real, simplify grammar, stay away from fluf, use simple language",
		platform, contextText, MaxCommentChars)
}

// Package llm provides the TextGenerator abstraction and concrete clients for
// the hosted text-generation services used to phrase driver recommendations.
//
// Every client performs exactly one request per Generate call and never retries.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyCompletion is returned when a provider answers with no text
var ErrEmptyCompletion = errors.New("text generation returned an empty completion")

// TextGenerator turns a prompt into a text completion
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to TextGenerator
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func completion(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"vehicle-advisor/internal/llm"
	"vehicle-advisor/internal/models"
)

// RecommenderConfig holds configuration for the recommender
type RecommenderConfig struct {
	Timeout time.Duration // bound on the generation call, 0 means none
	Rules   []PromptRule  // nil selects DefaultRules
}

// Recommender produces driver recommendations
type Recommender struct {
	generator llm.TextGenerator
	rules     []PromptRule
	timeout   time.Duration
}

// NewRecommender creates a recommender backed by generator
func NewRecommender(generator llm.TextGenerator, config RecommenderConfig) *Recommender {
	rules := config.Rules
	if rules == nil {
		rules = DefaultRules
	}
	return &Recommender{
		generator: generator,
		rules:     rules,
		timeout:   config.Timeout,
	}
}

// Recommend asks the text-generation service for advice on the reading.
// The returned text is never empty: when generation fails it explains the
// failure and the error is returned alongside it. There is a single attempt.
func (r *Recommender) Recommend(ctx context.Context, label string, reading models.Reading) (string, error) {
	ruleName, prompt := BuildPrompt(r.rules, label, reading)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := r.generator.Generate(ctx, prompt)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		log.Printf("Recommender: generation failed for label=%q rule=%s after %v: %v",
			label, ruleName, time.Since(start).Round(time.Millisecond), err)
		return FailureText(err), err
	}

	log.Printf("Recommender: generated recommendation for label=%q rule=%s in %v",
		label, ruleName, time.Since(start).Round(time.Millisecond))
	return text, nil
}

// FailureText is the recommendation reported when generation fails
func FailureText(err error) string {
	return fmt.Sprintf("Failed to generate recommendation: %v", err)
}

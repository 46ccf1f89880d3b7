package advisor

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-advisor/internal/llm"
	"vehicle-advisor/internal/models"
)

type recordingGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func TestBuildPromptRuleOrder(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		reading  models.Reading
		wantRule string
		contains []string
	}{
		{
			name:     "speed anomaly wins over temperature",
			label:    models.LabelSpeedAnomaly,
			reading:  models.Reading{Temperature: 130, Speed: 150},
			wantRule: "speed_anomaly",
			contains: []string{"speed of 150.0 kph", "'speed_anomaly'", "within the safe range (50–120°C)", "high speed"},
		},
		{
			name:     "low temperature regardless of label",
			label:    models.LabelInvalid,
			reading:  models.Reading{Temperature: 30, Speed: 40},
			wantRule: "low_temperature",
			contains: []string{"30.0°C", "below the safe range (50–120°C)", "40.0 kph", "'invalid'", "low engine temperature"},
		},
		{
			name:     "high temperature regardless of label",
			label:    models.LabelNormal,
			reading:  models.Reading{Temperature: 125.5, Speed: 60},
			wantRule: "high_temperature",
			contains: []string{"125.5°C", "above the safe range", "'normal'", "high engine temperature"},
		},
		{
			name:     "generic",
			label:    models.LabelNormal,
			reading:  models.Reading{Temperature: 90, Speed: 60},
			wantRule: "generic",
			contains: []string{"engine temperature of 90.0°C and speed of 60.0 kph", "'normal'", "this situation safely"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, prompt := BuildPrompt(DefaultRules, tt.label, tt.reading)
			assert.Equal(t, tt.wantRule, rule)
			for _, s := range tt.contains {
				assert.Contains(t, prompt, s)
			}
			assert.Contains(t, prompt, "Provide a concise recommendation (1-2 sentences)")
		})
	}
}

func TestBuildPromptFallsBackToGeneric(t *testing.T) {
	never := PromptRule{
		Name:    "never",
		Matches: func(string, models.Reading) bool { return false },
		Build:   func(string, models.Reading) string { return "unused" },
	}
	rule, prompt := BuildPrompt([]PromptRule{never}, "overheating", models.Reading{Temperature: 100, Speed: 10})
	assert.Equal(t, "generic", rule)
	assert.Contains(t, prompt, "'overheating'")
}

func TestCustomRuleTable(t *testing.T) {
	cold := PromptRule{
		Name:    "cold_engine",
		Matches: func(label string, _ models.Reading) bool { return label == "cold_engine" },
		Build:   func(string, models.Reading) string { return "warm it up" },
	}
	gen := &recordingGenerator{reply: "Idle for a minute."}
	rec := NewRecommender(gen, RecommenderConfig{Rules: append([]PromptRule{cold}, DefaultRules...)})

	text, err := rec.Recommend(context.Background(), "cold_engine", models.Reading{Temperature: 55, Speed: 0})
	require.NoError(t, err)
	assert.Equal(t, "Idle for a minute.", text)
	assert.Equal(t, []string{"warm it up"}, gen.prompts)
}

func TestRecommendReturnsTrimmedText(t *testing.T) {
	gen := &recordingGenerator{reply: "  Keep a steady pace.\n"}
	rec := NewRecommender(gen, RecommenderConfig{})

	text, err := rec.Recommend(context.Background(), models.LabelNormal, models.Reading{Temperature: 90, Speed: 60})
	require.NoError(t, err)
	assert.Equal(t, "Keep a steady pace.", text)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "90.0")
	assert.Contains(t, gen.prompts[0], "60.0")
}

func TestRecommendFailureIsExplained(t *testing.T) {
	gen := &recordingGenerator{err: errors.New("quota exceeded")}
	rec := NewRecommender(gen, RecommenderConfig{})

	text, err := rec.Recommend(context.Background(), models.LabelNormal, models.Reading{Temperature: 90, Speed: 60})
	require.Error(t, err)
	assert.Equal(t, "Failed to generate recommendation: quota exceeded", text)
	assert.Len(t, gen.prompts, 1, "generation is attempted once")
}

func TestRecommendEmptyCompletion(t *testing.T) {
	gen := &recordingGenerator{reply: "   "}
	rec := NewRecommender(gen, RecommenderConfig{})

	text, err := rec.Recommend(context.Background(), models.LabelNormal, models.Reading{Temperature: 90, Speed: 60})
	assert.True(t, errors.Is(err, llm.ErrEmptyCompletion))
	assert.True(t, strings.HasPrefix(text, "Failed to generate recommendation: "))
}

func TestRecommendAppliesTimeout(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	rec := NewRecommender(gen, RecommenderConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	text, err := rec.Recommend(context.Background(), models.LabelNormal, models.Reading{Temperature: 90, Speed: 60})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotEmpty(t, text)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "90.0", formatNumber(90, true))
	assert.Equal(t, "90", formatNumber(90, false))
	assert.Equal(t, "-3.25", formatNumber(-3.25, true))
	assert.Equal(t, "nan", formatNumber(math.NaN(), true))
	assert.Equal(t, "0.0", formatNumber(0, true))
	assert.Equal(t, "1e+16", formatNumber(1e16, true))
	assert.Equal(t, "-2.5e+20", formatNumber(-2.5e20, true))
	assert.Equal(t, "1234567890123456.0", formatNumber(1234567890123456, true))
	assert.Equal(t, "0.0001", formatNumber(0.0001, true))
	assert.Equal(t, "1e-05", formatNumber(0.00001, true))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-advisor/internal/advisor"
	"vehicle-advisor/internal/llm"
	"vehicle-advisor/internal/ml"
	"vehicle-advisor/internal/models"
	"vehicle-advisor/internal/validator"
)

type fakeClassifier struct {
	label string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(models.Reading) (string, error) {
	f.calls++
	return f.label, f.err
}

type panickingClassifier struct{}

func (panickingClassifier) Classify(models.Reading) (string, error) {
	panic("index out of range")
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func newService(classifier ml.Classifier, gen llm.TextGenerator) *PredictionService {
	return NewPredictionService(classifier, advisor.NewRecommender(gen, advisor.RecommenderConfig{}))
}

func TestPredictNormalReading(t *testing.T) {
	classifier := &fakeClassifier{label: models.LabelNormal}
	gen := &fakeGenerator{reply: "Conditions look good. Keep driving at 60 kph with the engine at 90°C."}
	svc := newService(classifier, gen)

	result := svc.Predict(context.Background(), models.Reading{Temperature: 90, Speed: 60})

	assert.Equal(t, models.LabelNormal, result.Anomaly)
	assert.Equal(t, gen.reply, result.Recommendation)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "90.0°C")
	assert.Contains(t, gen.prompts[0], "60.0 kph")
	assert.Contains(t, gen.prompts[0], "'normal'")
}

func TestPredictLowTemperatureIsInvalid(t *testing.T) {
	classifier := &fakeClassifier{label: models.LabelNormal}
	gen := &fakeGenerator{reply: "Let the engine warm up before driving off."}
	svc := newService(classifier, gen)

	result := svc.Predict(context.Background(), models.Reading{Temperature: 30, Speed: 40})

	assert.Equal(t, validator.MsgTemperatureLow, result.Anomaly)
	assert.Equal(t, gen.reply, result.Recommendation)
	assert.Zero(t, classifier.calls, "invalid readings are not classified")
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "below the safe range")
	assert.Contains(t, gen.prompts[0], "'invalid'")
}

func TestPredictSpeedTooHighIsInvalid(t *testing.T) {
	gen := &fakeGenerator{reply: "Slow down."}
	svc := newService(&fakeClassifier{label: models.LabelNormal}, gen)

	result := svc.Predict(context.Background(), models.Reading{Temperature: 100, Speed: 200})

	assert.Equal(t, validator.MsgSpeedTooHigh, result.Anomaly)
	assert.Equal(t, "Slow down.", result.Recommendation)
}

func TestPredictNonNumericReading(t *testing.T) {
	gen := &fakeGenerator{reply: "Check the sensors."}
	svc := newService(&fakeClassifier{label: models.LabelNormal}, gen)

	result := svc.Predict(context.Background(), models.Reading{Temperature: math.NaN(), Speed: 60})

	assert.Equal(t, validator.MsgNonNumeric, result.Anomaly)
	assert.Equal(t, "Check the sensors.", result.Recommendation)
}

func TestPredictGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("context deadline exceeded")}
	svc := newService(&fakeClassifier{label: models.LabelSpeedAnomaly}, gen)

	result := svc.Predict(context.Background(), models.Reading{Temperature: 90, Speed: 150})

	assert.Equal(t, models.LabelSpeedAnomaly, result.Anomaly)
	assert.Equal(t, "Failed to generate recommendation: context deadline exceeded", result.Recommendation)
}

func TestPredictClassificationFailure(t *testing.T) {
	classifier := &fakeClassifier{label: models.LabelError, err: errors.New("class index 9 not in encoder")}

	t.Run("recommendation still generated", func(t *testing.T) {
		gen := &fakeGenerator{reply: "Have the vehicle inspected."}
		result := newService(classifier, gen).Predict(context.Background(), models.Reading{Temperature: 90, Speed: 60})

		assert.Equal(t, models.LabelError, result.Anomaly)
		assert.Equal(t, "Have the vehicle inspected.", result.Recommendation)
		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "'Error'")
	})

	t.Run("generation also fails", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("network down")}
		result := newService(classifier, gen).Predict(context.Background(), models.Reading{Temperature: 90, Speed: 60})

		assert.Equal(t, models.LabelError, result.Anomaly)
		assert.Equal(t, "Failed to predict anomaly: class index 9 not in encoder", result.Recommendation)
	})
}

func TestPredictRecoversFromPanic(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	svc := newService(panickingClassifier{}, gen)

	result := svc.Predict(context.Background(), models.Reading{Temperature: 90, Speed: 60})

	assert.Equal(t, models.LabelError, result.Anomaly)
	assert.Equal(t, "Failed to predict anomaly: index out of range", result.Recommendation)
}

type blankRecommender struct{}

func (blankRecommender) Recommend(context.Context, string, models.Reading) (string, error) {
	return "", nil
}

func TestPredictNeverReturnsEmptyRecommendation(t *testing.T) {
	svc := NewPredictionService(&fakeClassifier{label: models.LabelNormal}, blankRecommender{})

	readings := []models.Reading{
		{Temperature: 90, Speed: 60},
		{Temperature: 10, Speed: -10},
		{Temperature: math.Inf(1), Speed: math.NaN()},
	}
	for _, reading := range readings {
		result := svc.Predict(context.Background(), reading)
		assert.NotEmpty(t, result.Anomaly)
		assert.NotEmpty(t, result.Recommendation)
	}
}

func TestPredictWithSampleModel(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	encoderPath := filepath.Join(dir, "encoder.json")
	require.NoError(t, ml.CreateSampleArtifacts(modelPath, encoderPath))

	predictor, err := ml.LoadPredictor(context.Background(), ml.FileStore{}, modelPath, encoderPath)
	require.NoError(t, err)

	var n int
	var mu sync.Mutex
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("advice #%d", n), nil
	})
	svc := newService(predictor, gen)

	first := svc.Predict(context.Background(), models.Reading{Temperature: 90, Speed: 60})
	second := svc.Predict(context.Background(), models.Reading{Temperature: 90, Speed: 60})
	assert.Equal(t, models.LabelNormal, first.Anomaly)
	assert.Equal(t, first.Anomaly, second.Anomaly)
	assert.NotEqual(t, first.Recommendation, second.Recommendation)
	assert.NotEmpty(t, second.Recommendation)

	result := svc.Predict(context.Background(), models.Reading{Temperature: 95, Speed: 150})
	assert.Equal(t, models.LabelSpeedAnomaly, result.Anomaly)

	// concurrent callers share the read-only predictor
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := svc.Predict(context.Background(), models.Reading{Temperature: 115, Speed: 60})
			assert.Equal(t, "overheating", r.Anomaly)
			assert.True(t, strings.HasPrefix(r.Recommendation, "advice #"))
		}()
	}
	wg.Wait()
}

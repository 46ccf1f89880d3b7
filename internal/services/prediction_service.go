package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"vehicle-advisor/internal/ml"
	"vehicle-advisor/internal/models"
	"vehicle-advisor/internal/validator"
)

// Recommender produces a non-empty driver recommendation for a labelled reading
type Recommender interface {
	Recommend(ctx context.Context, label string, reading models.Reading) (string, error)
}

// PredictionService validates, classifies and advises on a single reading.
// It holds only read-only collaborators and may be shared between goroutines.
type PredictionService struct {
	classifier  ml.Classifier
	recommender Recommender
}

// NewPredictionService creates the orchestrator. The classifier must already
// have its artifacts loaded.
func NewPredictionService(classifier ml.Classifier, recommender Recommender) *PredictionService {
	return &PredictionService{
		classifier:  classifier,
		recommender: recommender,
	}
}

// Predict always returns a result with both fields populated. Validation,
// classification and generation failures are reported inside the result.
func (s *PredictionService) Predict(ctx context.Context, reading models.Reading) (result models.PredictionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PredictionService: recovered from panic: %v", r)
			result = models.PredictionResult{
				Anomaly:        models.LabelError,
				Recommendation: fmt.Sprintf("Failed to predict anomaly: %v", r),
			}
		}
	}()

	validation := validator.Validate(reading)
	if !validation.Valid {
		log.Printf("PredictionService: invalid reading temp=%v speed=%v: %s", reading.Temperature, reading.Speed, validation.Message)
		recommendation, _ := s.recommend(ctx, models.LabelInvalid, reading)
		return models.PredictionResult{Anomaly: validation.Message, Recommendation: recommendation}
	}

	label, classifyErr := s.classifier.Classify(reading)
	if classifyErr != nil || label == "" {
		if classifyErr == nil {
			classifyErr = fmt.Errorf("classifier returned an empty label")
		}
		log.Printf("PredictionService: classification failed for temp=%v speed=%v: %v", reading.Temperature, reading.Speed, classifyErr)
		label = models.LabelError
	} else {
		log.Printf("PredictionService: classified temp=%v speed=%v as %q", reading.Temperature, reading.Speed, label)
	}

	recommendation, genErr := s.recommend(ctx, label, reading)
	if classifyErr != nil && genErr != nil {
		// Report the root cause rather than the follow-on generation failure
		recommendation = fmt.Sprintf("Failed to predict anomaly: %v", classifyErr)
	}

	return models.PredictionResult{Anomaly: label, Recommendation: recommendation}
}

func (s *PredictionService) recommend(ctx context.Context, label string, reading models.Reading) (string, error) {
	text, err := s.recommender.Recommend(ctx, label, reading)
	if strings.TrimSpace(text) == "" {
		if err == nil {
			err = fmt.Errorf("recommender returned no text")
		}
		text = fmt.Sprintf("Failed to generate recommendation: %v", err)
	}
	return text, err
}

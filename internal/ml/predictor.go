package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"vehicle-advisor/internal/models"
)

// FeatureNames is the fixed feature order the classifier was trained with
var FeatureNames = []string{"engine_temperature", "speed"}

// Classifier maps a validated reading to an anomaly label.
// On failure it returns models.LabelError together with the reason.
type Classifier interface {
	Classify(reading models.Reading) (string, error)
}

// Predictor classifies readings with a random forest and its label encoder.
// It is read-only after LoadPredictor and safe for concurrent use.
type Predictor struct {
	forest  *Forest
	encoder *LabelEncoder
}

var _ Classifier = (*Predictor)(nil)

// LoadPredictor fetches and checks both classifier artifacts.
// Every failure is returned as an *ArtifactError.
func LoadPredictor(ctx context.Context, store ArtifactStore, modelLocation, encoderLocation string) (*Predictor, error) {
	modelData, err := store.Fetch(ctx, modelLocation)
	if err != nil {
		return nil, &ArtifactError{Location: modelLocation, Err: err}
	}
	forest, err := decodeForest(modelData)
	if err != nil {
		return nil, &ArtifactError{Location: modelLocation, Err: err}
	}
	if err := checkFeatureNames(forest.FeatureNames); err != nil {
		return nil, &ArtifactError{Location: modelLocation, Err: err}
	}

	encoderData, err := store.Fetch(ctx, encoderLocation)
	if err != nil {
		return nil, &ArtifactError{Location: encoderLocation, Err: err}
	}
	encoder, err := decodeLabelEncoder(encoderData)
	if err != nil {
		return nil, &ArtifactError{Location: encoderLocation, Err: err}
	}
	if len(encoder.Classes) != forest.NClasses {
		return nil, &ArtifactError{
			Location: encoderLocation,
			Err:      fmt.Errorf("label encoder has %d classes but model predicts %d", len(encoder.Classes), forest.NClasses),
		}
	}

	log.Printf("Loaded model from %s (%d trees) with classes %v", modelLocation, len(forest.Trees), encoder.Classes)

	return &Predictor{forest: forest, encoder: encoder}, nil
}

func checkFeatureNames(names []string) error {
	if len(names) != len(FeatureNames) {
		return fmt.Errorf("model expects features %v, pipeline provides %v", names, FeatureNames)
	}
	for i := range names {
		if names[i] != FeatureNames[i] {
			return fmt.Errorf("model expects features %v, pipeline provides %v", names, FeatureNames)
		}
	}
	return nil
}

// Classes returns the label vocabulary of the classifier
func (p *Predictor) Classes() []string {
	classes := make([]string, len(p.encoder.Classes))
	copy(classes, p.encoder.Classes)
	return classes
}

// Classify predicts the anomaly label for a reading
func (p *Predictor) Classify(reading models.Reading) (label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			label, err = models.LabelError, fmt.Errorf("classifier panic: %v", r)
		}
	}()

	features := []float64{reading.Temperature, reading.Speed}

	index, err := p.forest.Predict(features)
	if err != nil {
		return models.LabelError, fmt.Errorf("failed to predict anomaly: %w", err)
	}

	label, err = p.encoder.Decode(index)
	if err != nil {
		return models.LabelError, fmt.Errorf("failed to decode anomaly: %w", err)
	}
	return label, nil
}

// CreateSampleArtifacts writes a small demonstration forest and its label encoder.
// Use it when no trained artifacts are available.
func CreateSampleArtifacts(modelPath, encoderPath string) error {
	// Classes are sorted, as LabelEncoder stores them
	encoder := LabelEncoder{Classes: []string{"cold_engine", "normal", "overheating", "speed_anomaly"}}

	cold := []float64{1, 0, 0, 0}
	normal := []float64{0, 1, 0, 0}
	hot := []float64{0, 0, 1, 0}
	fast := []float64{0, 0, 0, 1}

	leaf := func(value []float64) Node {
		return Node{Feature: -2, Left: leafChild, Right: leafChild, Value: value}
	}
	split := func(feature int, threshold float64, left, right int) Node {
		return Node{Feature: feature, Threshold: threshold, Left: left, Right: right}
	}

	forest := Forest{
		FeatureNames: FeatureNames,
		NClasses:     len(encoder.Classes),
		Trees: []Tree{
			// temperature only
			{Nodes: []Node{
				split(0, 50, 1, 2),
				leaf(cold),
				split(0, 110, 3, 4),
				leaf(normal),
				leaf(hot),
			}},
			// speed only
			{Nodes: []Node{
				split(1, 120, 1, 2),
				leaf(normal),
				leaf(fast),
			}},
			// speed first, then temperature
			{Nodes: []Node{
				split(1, 120, 1, 6),
				split(0, 50, 2, 3),
				leaf(cold),
				split(0, 110, 4, 5),
				leaf(normal),
				leaf(hot),
				leaf(fast),
			}},
		},
	}

	if err := writeJSON(modelPath, forest); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := writeJSON(encoderPath, encoder); err != nil {
		return fmt.Errorf("failed to write label encoder file: %w", err)
	}

	log.Printf("Created sample model at %s and label encoder at %s", modelPath, encoderPath)
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

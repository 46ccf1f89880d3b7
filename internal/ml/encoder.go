package ml

import (
	"encoding/json"
	"fmt"
)

// LabelEncoder maps class indices back to label names, like scikit-learn's
// LabelEncoder.inverse_transform
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

func decodeLabelEncoder(data []byte) (*LabelEncoder, error) {
	var encoder LabelEncoder
	if err := json.Unmarshal(data, &encoder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal label encoder: %w", err)
	}
	if len(encoder.Classes) == 0 {
		return nil, fmt.Errorf("label encoder has no classes")
	}

	seen := make(map[string]bool, len(encoder.Classes))
	for i, class := range encoder.Classes {
		if class == "" {
			return nil, fmt.Errorf("label encoder class %d is empty", i)
		}
		if seen[class] {
			return nil, fmt.Errorf("label encoder has duplicate class %q", class)
		}
		seen[class] = true
	}
	return &encoder, nil
}

// Decode returns the label for a class index
func (e *LabelEncoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(e.Classes) {
		return "", fmt.Errorf("class index %d not in encoder (%d classes)", index, len(e.Classes))
	}
	return e.Classes[index], nil
}

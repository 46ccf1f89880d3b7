package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeForestRejectsMalformedTrees(t *testing.T) {
	tests := map[string]string{
		"no trees":          `{"feature_names":["a"],"n_classes":2,"trees":[]}`,
		"no classes":        `{"feature_names":["a"],"n_classes":0,"trees":[{"nodes":[{"left":-1,"right":-1,"value":[]}]}]}`,
		"empty tree":        `{"feature_names":["a"],"n_classes":2,"trees":[{"nodes":[]}]}`,
		"leaf width":        `{"feature_names":["a"],"n_classes":2,"trees":[{"nodes":[{"left":-1,"right":-1,"value":[1]}]}]}`,
		"zero leaf":         `{"feature_names":["a"],"n_classes":2,"trees":[{"nodes":[{"left":-1,"right":-1,"value":[0,0]}]}]}`,
		"negative weight":   `{"feature_names":["a"],"n_classes":2,"trees":[{"nodes":[{"left":-1,"right":-1,"value":[2,-1]}]}]}`,
		"feature range":     `{"feature_names":["a"],"n_classes":2,"trees":[{"nodes":[{"feature":3,"left":1,"right":2},{"left":-1,"right":-1,"value":[1,0]},{"left":-1,"right":-1,"value":[0,1]}]}]}`,
		"cycle":             `{"feature_names":["a"],"n_classes":2,"trees":[{"nodes":[{"feature":0,"left":0,"right":1},{"left":-1,"right":-1,"value":[0,1]}]}]}`,
		"child out of tree": `{"feature_names":["a"],"n_classes":2,"trees":[{"nodes":[{"feature":0,"left":1,"right":7},{"left":-1,"right":-1,"value":[0,1]}]}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeForest([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestForestPredictAveragesTrees(t *testing.T) {
	body := `{
		"feature_names": ["a", "b"],
		"n_classes": 3,
		"trees": [
			{"nodes": [{"left": -1, "right": -1, "value": [30, 10, 0]}]},
			{"nodes": [{"left": -1, "right": -1, "value": [0, 3, 1]}]}
		]
	}`
	forest, err := decodeForest([]byte(body))
	require.NoError(t, err)

	// class 0: 0.75 + 0, class 1: 0.25 + 0.75
	index, err := forest.Predict([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	_, err = forest.Predict([]float64{1})
	assert.Error(t, err)
}

func TestForestPredictTiesGoToLowestIndex(t *testing.T) {
	body := `{
		"feature_names": ["a"],
		"n_classes": 2,
		"trees": [
			{"nodes": [{"left": -1, "right": -1, "value": [0, 1]}]},
			{"nodes": [{"left": -1, "right": -1, "value": [1, 0]}]}
		]
	}`
	forest, err := decodeForest([]byte(body))
	require.NoError(t, err)

	index, err := forest.Predict([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 0, index)
}

package ml

import (
	"encoding/json"
	"fmt"
	"math"
)

// Forest is a random forest classifier exported from scikit-learn.
// Each tree keeps the tree_ layout: split nodes route a sample left when
// features[Feature] <= Threshold, leaves carry per-class sample weights.
type Forest struct {
	FeatureNames []string `json:"feature_names"`
	NClasses     int      `json:"n_classes"`
	Trees        []Tree   `json:"trees"`
}

// Tree is a single decision tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a split (Left and Right set) or a leaf (both -1, Value set)
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

const leafChild = -1

func (n Node) isLeaf() bool {
	return n.Left == leafChild && n.Right == leafChild
}

// decodeForest parses and checks a forest artifact
func decodeForest(data []byte) (*Forest, error) {
	var forest Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	if err := forest.validate(); err != nil {
		return nil, err
	}
	return &forest, nil
}

func (f *Forest) validate() error {
	if len(f.FeatureNames) == 0 {
		return fmt.Errorf("model has no feature names")
	}
	if f.NClasses < 1 {
		return fmt.Errorf("model has invalid class count %d", f.NClasses)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}

	for t, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for i, node := range tree.Nodes {
			if node.isLeaf() {
				if err := f.validateLeaf(node); err != nil {
					return fmt.Errorf("tree %d node %d: %w", t, i, err)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= len(f.FeatureNames) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", t, i, node.Feature)
			}
			// Children always follow their parent, which rules out cycles
			if node.Left <= i || node.Left >= len(tree.Nodes) || node.Right <= i || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children (%d, %d)", t, i, node.Left, node.Right)
			}
		}
	}
	return nil
}

func (f *Forest) validateLeaf(node Node) error {
	if len(node.Value) != f.NClasses {
		return fmt.Errorf("leaf has %d class weights, expected %d", len(node.Value), f.NClasses)
	}
	var total float64
	for _, w := range node.Value {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("leaf has invalid class weight %v", w)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("leaf has no class weight")
	}
	return nil
}

// Predict returns the index of the most probable class. Probabilities are the
// mean of each tree's normalised leaf weights; ties go to the lowest index.
func (f *Forest) Predict(features []float64) (int, error) {
	if len(features) != len(f.FeatureNames) {
		return 0, fmt.Errorf("expected %d features, got %d", len(f.FeatureNames), len(features))
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %s is not a finite number: %v", f.FeatureNames[i], v)
		}
	}

	proba := make([]float64, f.NClasses)
	for t := range f.Trees {
		leaf, err := f.Trees[t].leafFor(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", t, err)
		}
		var total float64
		for _, w := range leaf.Value {
			total += w
		}
		for c, w := range leaf.Value {
			proba[c] += w / total
		}
	}

	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best, nil
}

func (t *Tree) leafFor(features []float64) (*Node, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", idx)
		}
		node := &t.Nodes[idx]
		if node.isLeaf() {
			return node, nil
		}
		if node.Feature < 0 || node.Feature >= len(features) {
			return nil, fmt.Errorf("node %d: feature index %d out of range", idx, node.Feature)
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return nil, fmt.Errorf("traversal did not reach a leaf")
}

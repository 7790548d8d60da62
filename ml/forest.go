package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
)

// RegressionForest averages a set of regression trees trained on bootstrap
// samples. Its JSON envelope is the on-disk model artifact.
type RegressionForest struct {
	trees    []*RegressionTree
	numTrees int
	maxDepth int
	seed     int64
}

type forestEnvelope struct {
	ModelType string       `json:"model_type"`
	NumTrees  int          `json:"num_trees"`
	MaxDepth  int          `json:"max_depth"`
	Trees     [][]treeNode `json:"trees"`
}

const forestModelType = "regression_forest"

func NewRegressionForest(numTrees, maxDepth int, seed int64) *RegressionForest {
	if numTrees <= 0 {
		numTrees = 10
	}
	if maxDepth <= 0 {
		maxDepth = 5
	}
	return &RegressionForest{numTrees: numTrees, maxDepth: maxDepth, seed: seed}
}

func (rf *RegressionForest) Train(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}

	rng := rand.New(rand.NewSource(rf.seed))
	rf.trees = make([]*RegressionTree, 0, rf.numTrees)
	for i := 0; i < rf.numTrees; i++ {
		sampleFeatures, sampleTargets := bootstrapSample(features, targets, rng)
		tree := NewRegressionTree(rf.maxDepth)
		if err := tree.Train(sampleFeatures, sampleTargets); err != nil {
			return fmt.Errorf("train tree %d: %w", i, err)
		}
		rf.trees = append(rf.trees, tree)
	}
	return nil
}

func (rf *RegressionForest) Predict(features []float64) (float64, error) {
	if len(rf.trees) == 0 {
		return 0, errors.New("model not trained")
	}
	sum := 0.0
	for _, tree := range rf.trees {
		value, err := tree.Predict(features)
		if err != nil {
			return 0, err
		}
		sum += value
	}
	return sum / float64(len(rf.trees)), nil
}

func (rf *RegressionForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return errors.New("model not trained")
	}
	envelope := forestEnvelope{
		ModelType: forestModelType,
		NumTrees:  len(rf.trees),
		MaxDepth:  rf.maxDepth,
		Trees:     make([][]treeNode, 0, len(rf.trees)),
	}
	for _, tree := range rf.trees {
		envelope.Trees = append(envelope.Trees, tree.nodes)
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (rf *RegressionForest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var envelope forestEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode model artifact: %w", err)
	}
	if envelope.ModelType != forestModelType {
		return fmt.Errorf("unsupported model type %q", envelope.ModelType)
	}
	if len(envelope.Trees) == 0 {
		return errors.New("model artifact has no trees")
	}
	trees := make([]*RegressionTree, 0, len(envelope.Trees))
	for _, nodes := range envelope.Trees {
		if len(nodes) == 0 {
			return errors.New("model artifact has an empty tree")
		}
		trees = append(trees, &RegressionTree{nodes: nodes, maxDepth: envelope.MaxDepth})
	}
	rf.trees = trees
	rf.numTrees = envelope.NumTrees
	rf.maxDepth = envelope.MaxDepth
	return nil
}

func bootstrapSample(features [][]float64, targets []float64, rng *rand.Rand) ([][]float64, []float64) {
	n := len(features)
	sampleFeatures := make([][]float64, n)
	sampleTargets := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(n)
		sampleFeatures[i] = features[idx]
		sampleTargets[i] = targets[idx]
	}
	return sampleFeatures, sampleTargets
}

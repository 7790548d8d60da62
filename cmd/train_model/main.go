// Command train_model fits a study time regressor on synthetic data and
// writes the model artifact the API loads at startup. Real training data
// lives outside this repo; this produces the same placeholder regime the
// service falls back to when an artifact is corrupt.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"studytime/ml"
	"studytime/study"
)

func main() {
	modelPath := flag.String("out", "study_time_model.json", "model output path")
	numTrees := flag.Int("trees", 10, "number of trees in the forest")
	maxDepth := flag.Int("max_depth", 5, "max tree depth")
	samples := flag.Int("samples", 100, "number of synthetic samples")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	features, targets := buildTrainingData(*samples, *seed)

	model := ml.NewRegressionForest(*numTrees, *maxDepth, *seed)
	if err := model.Train(features, targets); err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	mae := meanAbsoluteError(model, features, targets)
	log.Printf("train samples=%d trees=%d mae=%.3f", len(features), *numTrees, mae)

	if dir := filepath.Dir(*modelPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create model dir: %v", err)
		}
	}
	if err := model.Save(*modelPath); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}

	fmt.Printf("model saved to %s\n", *modelPath)
}

func buildTrainingData(samples int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	dims := len(study.FeatureNames())

	features := make([][]float64, samples)
	targets := make([]float64, samples)
	for i := 0; i < samples; i++ {
		row := make([]float64, dims)
		for j := range row {
			row[j] = rng.Float64()
		}
		features[i] = row
		targets[i] = 0.5 + rng.Float64()*3.5
	}
	return features, targets
}

func meanAbsoluteError(model *ml.RegressionForest, features [][]float64, targets []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	sum := 0.0
	for i, feature := range features {
		value, err := model.Predict(feature)
		if err != nil {
			continue
		}
		sum += math.Abs(value - targets[i])
	}
	return sum / float64(len(features))
}

package ml

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
)

// ErrArtifactMissing reports that no model artifact exists at the given
// path, as opposed to one that exists but cannot be decoded.
var ErrArtifactMissing = errors.New("model artifact not found")

// LoadRegressor reads a serialized regression forest from path.
func LoadRegressor(path string) (Regressor, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrArtifactMissing
		}
		return nil, err
	}
	forest := &RegressionForest{}
	if err := forest.Load(path); err != nil {
		return nil, fmt.Errorf("load regressor from %s: %w", path, err)
	}
	return forest, nil
}

const (
	fallbackSamples  = 100
	fallbackFeatures = 13
	fallbackTargetLo = 0.5
	fallbackTargetHi = 4.0
)

// TrainFallback fits a placeholder forest on synthetic data so the service
// stays callable when the real artifact cannot be decoded. Targets are
// uniform in [0.5, 4.0) hours.
func TrainFallback(seed int64) (Regressor, error) {
	rng := rand.New(rand.NewSource(seed))

	features := make([][]float64, fallbackSamples)
	targets := make([]float64, fallbackSamples)
	for i := 0; i < fallbackSamples; i++ {
		row := make([]float64, fallbackFeatures)
		for j := range row {
			row[j] = rng.Float64()
		}
		features[i] = row
		targets[i] = fallbackTargetLo + rng.Float64()*(fallbackTargetHi-fallbackTargetLo)
	}

	forest := NewRegressionForest(10, 4, seed)
	if err := forest.Train(features, targets); err != nil {
		return nil, fmt.Errorf("train fallback regressor: %w", err)
	}
	return forest, nil
}

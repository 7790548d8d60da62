package study

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"studytime/ml"
)

// Prediction is the user-facing result for one feature record.
type Prediction struct {
	PredictedStudyTime string   `json:"predicted_study_time"`
	ConfidenceLevel    string   `json:"confidence_level"`
	KeyFactors         []string `json:"key_influencing_factors"`
	Recommendation     string   `json:"recommendation"`

	// Value is the rounded scalar behind PredictedStudyTime, kept for the
	// audit log and the live feed. Not part of the wire contract.
	Value float64 `json:"-"`
}

// HealthStatus is the health endpoint body. ModelFileExists reflects the
// filesystem at call time and can disagree with ModelLoaded when the
// service runs on the fallback model.
type HealthStatus struct {
	Status          string `json:"status"`
	ModelLoaded     bool   `json:"model_loaded"`
	ModelFileExists bool   `json:"model_file_exists"`
}

// ServiceUnavailableError means no model, real or fallback, is held.
type ServiceUnavailableError struct {
	ArtifactPath string
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("Model not loaded. Please ensure %s exists.", filepath.Base(e.ArtifactPath))
}

// PredictionError wraps an unexpected inference failure.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("Prediction error: %v", e.Cause)
}

func (e *PredictionError) Unwrap() error { return e.Cause }

const (
	confidenceLo = 80
	confidenceHi = 95

	StatusHealthy      = "healthy"
	StatusModelMissing = "model_missing"

	factorLowFailures    = "Low failures"
	factorHighMotivation = "High motivation"
	factorGoodHealth     = "Good health"
	factorHighAbsences   = "High absences affecting study time"

	recommendationLow      = "Try to dedicate more daily study time and reduce distractions."
	recommendationMaintain = "Maintain current study pattern, focus on building consistent daily habits."
	recommendationPositive = "Great! Keep up the good work, aim for balance between study and rest."
)

// ConfidenceSource draws one confidence percentage in [lo, hi]. The default
// is a fresh random draw per call; tests inject a deterministic one.
type ConfidenceSource func(lo, hi int) int

// Service holds the loaded model and derives predictions from it. The model
// is set once at construction and read concurrently without locking.
type Service struct {
	model      ml.Regressor
	modelPath  string
	fallback   bool
	confidence ConfidenceSource
	logger     *zap.Logger
}

type Option func(*Service)

func WithConfidenceSource(source ConfidenceSource) Option {
	return func(s *Service) { s.confidence = source }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New builds a service around an already-resolved model. A nil model puts
// the service in the degraded state where Predict fails and health reports
// model_missing.
func New(modelPath string, model ml.Regressor, opts ...Option) *Service {
	s := &Service{
		model:     model,
		modelPath: modelPath,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.confidence == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		var mu sync.Mutex
		s.confidence = func(lo, hi int) int {
			mu.Lock()
			defer mu.Unlock()
			return lo + rng.Intn(hi-lo+1)
		}
	}
	return s
}

// Load resolves the model artifact at startup and wraps it in a service.
// Three outcomes: artifact loads, artifact absent (degraded service), or
// artifact present but corrupt, in which case a synthetic fallback model is
// trained so the endpoint stays callable during development.
func Load(modelPath string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	model, err := ml.LoadRegressor(modelPath)
	switch {
	case err == nil:
		logger.Info("model loaded", zap.String("path", modelPath))
	case err == ml.ErrArtifactMissing:
		logger.Warn("model artifact not found, service starts degraded",
			zap.String("path", modelPath))
		model = nil
	default:
		logger.Warn("model artifact unusable, training synthetic fallback",
			zap.String("path", modelPath), zap.Error(err))
		fallback, trainErr := ml.TrainFallback(time.Now().UnixNano())
		if trainErr != nil {
			logger.Error("fallback training failed, service starts degraded",
				zap.Error(trainErr))
			model = nil
		} else {
			logger.Info("fallback model ready, predictions are placeholders only",
				zap.String("path", modelPath))
			model = fallback
		}
	}

	opts = append(opts, WithLogger(logger))
	s := New(modelPath, model, opts...)
	s.fallback = model != nil && err != nil
	return s
}

// Predict turns a validated feature record into a prediction. Callers must
// have validated the record; Predict only fails on a missing model or an
// inference error.
func (s *Service) Predict(rec FeatureRecord) (Prediction, error) {
	if s.model == nil {
		return Prediction{}, &ServiceUnavailableError{ArtifactPath: s.modelPath}
	}

	value, err := s.model.Predict(rec.Vector())
	if err != nil {
		return Prediction{}, &PredictionError{Cause: err}
	}
	rounded := math.Round(value*100) / 100

	confidence := s.confidence(confidenceLo, confidenceHi)

	return Prediction{
		PredictedStudyTime: fmt.Sprintf("%.2f hours/day", rounded),
		ConfidenceLevel:    fmt.Sprintf("%d%%", confidence),
		KeyFactors:         influencingFactors(rec),
		Recommendation:     recommendFor(rounded),
		Value:              rounded,
	}, nil
}

// Health never fails. Status derives from the held model alone; the file
// check is fresh on every call.
func (s *Service) Health() HealthStatus {
	status := StatusModelMissing
	if s.model != nil {
		status = StatusHealthy
	}
	_, statErr := os.Stat(s.modelPath)
	return HealthStatus{
		Status:          status,
		ModelLoaded:     s.model != nil,
		ModelFileExists: statErr == nil,
	}
}

// Fallback reports whether the held model is the synthetic placeholder.
func (s *Service) Fallback() bool { return s.fallback }

// ModelPath returns the fixed artifact path this service was built with.
func (s *Service) ModelPath() string { return s.modelPath }

// influencingFactors evaluates the fixed rule list in order; every rule is
// independent and several may fire. The result is empty, never nil.
func influencingFactors(rec FeatureRecord) []string {
	factors := make([]string, 0, 4)
	if rec.Failures != nil && *rec.Failures == 0 {
		factors = append(factors, factorLowFailures)
	}
	if rec.Higher != nil && *rec.Higher == 1 {
		factors = append(factors, factorHighMotivation)
	}
	if rec.Health != nil && *rec.Health >= 4 {
		factors = append(factors, factorGoodHealth)
	}
	if rec.Absences != nil && *rec.Absences > 10 {
		factors = append(factors, factorHighAbsences)
	}
	return factors
}

// recommendFor thresholds the rounded prediction. Bounds are exclusive, so
// a model output of exactly 1.0 already earns the maintain message.
func recommendFor(rounded float64) string {
	switch {
	case rounded < 1.0:
		return recommendationLow
	case rounded < 2.0:
		return recommendationMaintain
	default:
		return recommendationPositive
	}
}

package ml

// Regressor is the single operation the prediction service needs from a
// trained model: one feature vector in, one scalar out.
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// TrainableRegressor is implemented by models this package can fit and
// persist itself.
type TrainableRegressor interface {
	Regressor
	Train(features [][]float64, targets []float64) error
	Save(path string) error
	Load(path string) error
}

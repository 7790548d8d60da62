package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"studytime/study"
)

type fakeRegressor struct {
	value float64
	err   error
	calls int
}

func (f *fakeRegressor) Predict(features []float64) (float64, error) {
	f.calls++
	return f.value, f.err
}

func fixedConfidence(value int) study.ConfidenceSource {
	return func(lo, hi int) int { return value }
}

func sampleBody() map[string]interface{} {
	return map[string]interface{}{
		"failures": 0, "higher": 1, "absences": 3, "freetime": 2,
		"goout": 3, "famrel": 4, "famsup": 1, "schoolsup": 0,
		"paid": 1, "traveltime": 2, "health": 5, "internet": 1, "age": 17,
	}
}

func newTestMux(svc *study.Service) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandlers(svc, nil, nil).Register(mux)
	return mux
}

func postPredict(t *testing.T, mux *http.ServeMux, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandlePredict(t *testing.T) {
	svc := study.New("model.json", &fakeRegressor{value: 1.5},
		study.WithConfidenceSource(fixedConfidence(90)))
	w := postPredict(t, newTestMux(svc), sampleBody())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload struct {
		PredictedStudyTime string   `json:"predicted_study_time"`
		ConfidenceLevel    string   `json:"confidence_level"`
		KeyFactors         []string `json:"key_influencing_factors"`
		Recommendation     string   `json:"recommendation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.PredictedStudyTime != "1.50 hours/day" {
		t.Fatalf("unexpected study time: %q", payload.PredictedStudyTime)
	}
	if payload.ConfidenceLevel != "90%" {
		t.Fatalf("unexpected confidence: %q", payload.ConfidenceLevel)
	}
	want := []string{"Low failures", "High motivation", "Good health"}
	if !reflect.DeepEqual(payload.KeyFactors, want) {
		t.Fatalf("expected factors %v, got %v", want, payload.KeyFactors)
	}
	if !strings.Contains(payload.Recommendation, "Maintain current study pattern") {
		t.Fatalf("unexpected recommendation: %q", payload.Recommendation)
	}
}

func TestHandlePredictMissingField(t *testing.T) {
	model := &fakeRegressor{value: 1.5}
	svc := study.New("model.json", model)
	mux := newTestMux(svc)

	body := sampleBody()
	delete(body, "famrel")
	w := postPredict(t, mux, body)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "famrel") {
		t.Fatalf("expected field name in detail: %s", w.Body.String())
	}
	if model.calls != 0 {
		t.Fatalf("model must not be invoked on validation failure, got %d calls", model.calls)
	}
}

func TestHandlePredictMistypedField(t *testing.T) {
	model := &fakeRegressor{value: 1.5}
	svc := study.New("model.json", model)

	body := sampleBody()
	body["age"] = "seventeen"
	w := postPredict(t, newTestMux(svc), body)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be invoked on decode failure, got %d calls", model.calls)
	}
}

func TestHandlePredictDegraded(t *testing.T) {
	svc := study.New("study_time_model.json", nil)
	w := postPredict(t, newTestMux(svc), sampleBody())

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !strings.Contains(payload["detail"], "study_time_model.json") {
		t.Fatalf("expected artifact name in detail: %q", payload["detail"])
	}
}

func TestHandlePredictInferenceFailure(t *testing.T) {
	svc := study.New("model.json", &fakeRegressor{err: errors.New("matrix shape mismatch")})
	w := postPredict(t, newTestMux(svc), sampleBody())

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "matrix shape mismatch") {
		t.Fatalf("expected cause in detail: %s", w.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	svc := study.New("does-not-exist.json", nil)
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload struct {
		Status          string `json:"status"`
		ModelLoaded     bool   `json:"model_loaded"`
		ModelFileExists bool   `json:"model_file_exists"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Status != "model_missing" || payload.ModelLoaded || payload.ModelFileExists {
		t.Fatalf("unexpected health body: %+v", payload)
	}
}

func TestHandleRoot(t *testing.T) {
	svc := study.New("model.json", &fakeRegressor{value: 1})
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Study Planner Prediction API is running!") {
		t.Fatalf("unexpected root body: %s", w.Body.String())
	}
}

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studytime/study"
)

func intPtr(v int) *int { return &v }

func fullRecord() study.FeatureRecord {
	return study.FeatureRecord{
		Failures:   intPtr(0),
		Higher:     intPtr(1),
		Absences:   intPtr(3),
		Freetime:   intPtr(2),
		Goout:      intPtr(3),
		Famrel:     intPtr(4),
		Famsup:     intPtr(1),
		Schoolsup:  intPtr(0),
		Paid:       intPtr(1),
		Traveltime: intPtr(2),
		Health:     intPtr(5),
		Internet:   intPtr(1),
		Age:        intPtr(17),
	}
}

func TestClientPredict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predicted_study_time":"2.10 hours/day","confidence_level":"84%","key_influencing_factors":["Low failures"],"recommendation":"Great! Keep up the good work, aim for balance between study and rest."}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	pred, err := c.Predict(context.Background(), fullRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.PredictedStudyTime != "2.10 hours/day" || pred.ConfidenceLevel != "84%" {
		t.Fatalf("unexpected prediction: %+v", pred)
	}
}

func TestClientPredictRejectsIncompleteRecord(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	rec := fullRecord()
	rec.Internet = nil

	c := New(server.URL, 5*time.Second)
	_, err := c.Predict(context.Background(), rec)
	if err == nil || !strings.Contains(err.Error(), "internet") {
		t.Fatalf("expected local validation error, got %v", err)
	}
	if called {
		t.Fatal("incomplete record must not reach the server")
	}
}

func TestClientPredictServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"Model not loaded. Please ensure study_time_model.json exists."}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Predict(context.Background(), fullRecord())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Detail, "Model not loaded") {
		t.Fatalf("unexpected detail: %q", apiErr.Detail)
	}
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","model_loaded":true,"model_file_exists":false}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	health, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if health.Status != "healthy" || !health.ModelLoaded || health.ModelFileExists {
		t.Fatalf("unexpected health: %+v", health)
	}
}

package db

import (
	"path/filepath"
	"testing"

	"studytime/study"
)

func intPtr(v int) *int { return &v }

func testRecord() study.FeatureRecord {
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

func TestSaveAndQueryPredictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	if err := InitDB(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer Close()

	if !Enabled() {
		t.Fatal("expected audit database to be enabled")
	}

	pred := study.Prediction{
		PredictedStudyTime: "1.50 hours/day",
		ConfidenceLevel:    "88%",
		KeyFactors:         []string{"Low failures"},
		Recommendation:     "Maintain current study pattern, focus on building consistent daily habits.",
		Value:              1.5,
	}
	for i := 0; i < 3; i++ {
		if err := SavePrediction(testRecord(), pred, i == 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rows, err := QueryRecentPredictions(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// newest first: the last insert carried the fallback flag
	if !rows[0].FallbackModel {
		t.Fatal("expected newest row to carry the fallback flag")
	}
	if rows[0].PredictedHours != 1.5 || rows[0].Confidence != "88%" {
		t.Fatalf("unexpected row contents: %+v", rows[0])
	}
}

func TestDisabledDatabase(t *testing.T) {
	if err := InitDB(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Enabled() {
		t.Fatal("expected disabled audit database")
	}
	if err := SavePrediction(testRecord(), study.Prediction{}, false); err != nil {
		t.Fatalf("expected no-op save, got %v", err)
	}
	if _, err := QueryRecentPredictions(5); err == nil {
		t.Fatal("expected error querying disabled database")
	}
}

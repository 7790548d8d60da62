package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"studytime/study"
)

var database *sql.DB

// InitDB opens the SQLite audit database. An empty path leaves the package
// disabled; every call then becomes a no-op or an empty result.
func InitDB(path string) error {
	if path == "" {
		return nil
	}

	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        failures INTEGER NOT NULL,
        higher INTEGER NOT NULL,
        absences INTEGER NOT NULL,
        freetime INTEGER NOT NULL,
        goout INTEGER NOT NULL,
        famrel INTEGER NOT NULL,
        famsup INTEGER NOT NULL,
        schoolsup INTEGER NOT NULL,
        paid INTEGER NOT NULL,
        traveltime INTEGER NOT NULL,
        health INTEGER NOT NULL,
        internet INTEGER NOT NULL,
        age INTEGER NOT NULL,
        predicted_hours REAL NOT NULL,
        confidence TEXT NOT NULL,
        recommendation TEXT NOT NULL,
        fallback_model INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	_, err = database.Exec(query)
	return err
}

// Enabled reports whether an audit database is open.
func Enabled() bool { return database != nil }

func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// SavePrediction appends one served prediction to the audit log.
func SavePrediction(rec study.FeatureRecord, pred study.Prediction, fallback bool) error {
	if database == nil {
		return nil
	}

	vector := rec.Vector()
	args := make([]interface{}, 0, len(vector)+4)
	for _, v := range vector {
		args = append(args, int(v))
	}
	args = append(args, pred.Value, pred.ConfidenceLevel, pred.Recommendation, fallback)

	_, err := database.Exec(`
        INSERT INTO predictions (
            failures, higher, absences, freetime, goout,
            famrel, famsup, schoolsup, paid, traveltime,
            health, internet, age,
            predicted_hours, confidence, recommendation, fallback_model
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...)
	return err
}

// PredictionRow is one audit entry as served to the recent-predictions API.
type PredictionRow struct {
	ID             int64     `json:"id"`
	PredictedHours float64   `json:"predicted_hours"`
	Confidence     string    `json:"confidence"`
	Recommendation string    `json:"recommendation"`
	FallbackModel  bool      `json:"fallback_model"`
	CreatedAt      time.Time `json:"created_at"`
}

// QueryRecentPredictions returns the newest audit entries, newest first.
func QueryRecentPredictions(limit int) ([]PredictionRow, error) {
	if database == nil {
		return nil, errors.New("audit database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := database.Query(`
        SELECT id, predicted_hours, confidence, recommendation, fallback_model, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]PredictionRow, 0, limit)
	for rows.Next() {
		var row PredictionRow
		if err := rows.Scan(&row.ID, &row.PredictedHours, &row.Confidence,
			&row.Recommendation, &row.FallbackModel, &row.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, row)
	}
	return entries, rows.Err()
}

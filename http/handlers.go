package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"studytime/db"
	"studytime/monitoring"
	"studytime/study"
)

const rootMessage = "Study Planner Prediction API is running! Use /health to check model status."

// Handlers carries the request handlers and their dependencies. The service
// is injected, never global, so tests can swap in fake models.
type Handlers struct {
	service *study.Service
	feed    *monitoring.Feed
	logger  *zap.Logger
}

// NewHandlers wires the handler set. feed may be nil to disable the live
// prediction feed and its endpoints.
func NewHandlers(service *study.Service, feed *monitoring.Feed, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{service: service, feed: feed, logger: logger}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /api/predictions/recent", h.handleRecentPredictions)
	if h.feed != nil {
		mux.HandleFunc("GET /api/ws/predictions", h.feed.HandleWebSocket)
	}
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	var rec study.FeatureRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return
	}
	if err := rec.Validate(); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	pred, err := h.service.Predict(rec)
	if err != nil {
		status := http.StatusInternalServerError
		var unavailable *study.ServiceUnavailableError
		if errors.As(err, &unavailable) {
			status = http.StatusServiceUnavailable
		}
		respondDetail(w, status, err.Error())
		return
	}

	// audit log and live feed are best-effort and never fail the request
	if db.Enabled() {
		if err := db.SavePrediction(rec, pred, h.service.Fallback()); err != nil {
			h.logger.Warn("audit log write failed", zap.Error(err))
		}
	}
	if h.feed != nil {
		h.feed.Publish(monitoring.PredictionEvent{
			PredictedStudyTime: pred.PredictedStudyTime,
			ConfidenceLevel:    pred.ConfidenceLevel,
			KeyFactors:         pred.KeyFactors,
			Recommendation:     pred.Recommendation,
			FallbackModel:      h.service.Fallback(),
			Timestamp:          time.Now().UTC(),
		})
	}

	respondJSON(w, pred)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.service.Health())
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"message": rootMessage})
}

func (h *Handlers) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if h.feed != nil {
		respondJSON(w, map[string]interface{}{"data": h.feed.Recent(limit)})
		return
	}
	if db.Enabled() {
		rows, err := db.QueryRecentPredictions(limit)
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]interface{}{"data": rows})
		return
	}
	respondJSON(w, map[string]interface{}{"data": []monitoring.PredictionEvent{}})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

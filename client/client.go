// Package client is a typed Go client for the study time prediction API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"studytime/study"
)

// Prediction mirrors the /predict response body.
type Prediction struct {
	PredictedStudyTime string   `json:"predicted_study_time"`
	ConfidenceLevel    string   `json:"confidence_level"`
	KeyFactors         []string `json:"key_influencing_factors"`
	Recommendation     string   `json:"recommendation"`
}

// Health mirrors the /health response body.
type Health struct {
	Status          string `json:"status"`
	ModelLoaded     bool   `json:"model_loaded"`
	ModelFileExists bool   `json:"model_file_exists"`
}

// APIError is a non-200 response from the service, with the detail message
// the server attached.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Predict posts the record and decodes the prediction. The record is
// validated locally first so an incomplete one never goes on the wire.
func (c *Client) Predict(ctx context.Context, rec study.FeatureRecord) (*Prediction, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &pred, nil
}

// Health queries the health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &health, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Detail == "" {
		body.Detail = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: body.Detail}
}

// Package insight calls an external clinical-assistant service for an
// advisory read on a visit's vitals and notes. The result is display-only:
// a failed or missing insight never blocks the workflow, callers fall back
// to Placeholder.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Input carries the clinical context sent to the assistant.
type Input struct {
	BloodPressure    string  `json:"blood_pressure"`
	HeartRate        int     `json:"heart_rate"`
	Temperature      float64 `json:"temperature"`
	OxygenSaturation int     `json:"oxygen_saturation"`
	Notes            string  `json:"notes"`
}

// Result is the assistant's advisory output: a brief summary and a list
// of potential differential diagnoses.
type Result struct {
	Summary       string   `json:"summary"`
	Differentials []string `json:"differentials"`
}

// Placeholder is returned to callers whenever the assistant is
// unavailable or returns garbage.
func Placeholder() Result {
	return Result{Summary: "Unable to generate insights.", Differentials: []string{}}
}

// Client produces advisory clinical insights.
type Client interface {
	ClinicalInsights(ctx context.Context, in Input) (Result, error)
}

// HTTPClient calls a remote insight service over JSON/HTTP.
type HTTPClient struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPClient creates a client for the insight service at url. The API
// key is optional and sent as a bearer token when present.
func NewHTTPClient(url, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ClinicalInsights(ctx context.Context, in Input) (Result, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return Placeholder(), fmt.Errorf("marshal insight input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Placeholder(), fmt.Errorf("create insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Placeholder(), fmt.Errorf("insight request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.ReadAll(io.LimitReader(resp.Body, 1024)) // drain
		return Placeholder(), fmt.Errorf("insight service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return Placeholder(), fmt.Errorf("decode insight response: %w", err)
	}
	if result.Differentials == nil {
		result.Differentials = []string{}
	}
	return result, nil
}

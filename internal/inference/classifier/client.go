// Package classifier calls the remote evidence image classifier over HTTP.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"golang.org/x/time/rate"

	"claimintake/internal/config"
	"claimintake/internal/domain"
	"claimintake/internal/inference"
	"claimintake/internal/port"
)

const serviceName = "classifier"

// Client implements port.ImageClassifier.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a classifier client from service config.
func NewClient(cfg *config.InferenceConfig) *Client {
	return &Client{
		endpoint: cfg.BaseURL + "/classify",
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout()},
		limiter:  inference.NewLimiter(cfg),
	}
}

type classifyRequest struct {
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
	Data        string `json:"data"`
}

// prediction accepts both the snake_case shape and the Teachable Machine
// {className, probability} shape.
type prediction struct {
	Label       string   `json:"label"`
	ClassName   string   `json:"className"`
	Confidence  *float64 `json:"confidence"`
	Probability *float64 `json:"probability"`
}

func (p prediction) label() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ClassName
}

func (p prediction) score() (float64, bool) {
	if p.Confidence != nil {
		return *p.Confidence, true
	}
	if p.Probability != nil {
		return *p.Probability, true
	}
	return 0, false
}

type classifyResponse struct {
	prediction
	Predictions []prediction `json:"predictions"`
}

func (c *Client) Classify(ctx context.Context, input port.ArtifactInput) (*domain.ClassificationResult, error) {
	if !domain.EvidenceArtifactTypes[input.ContentType] {
		return nil, &inference.RemoteError{
			Service: serviceName,
			Err:     fmt.Errorf("%w: %s", domain.ErrUnsupportedArtifact, input.ContentType),
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &inference.RemoteError{Service: serviceName, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	bodyBytes, err := json.Marshal(classifyRequest{
		ContentType: input.ContentType,
		Filename:    input.Filename,
		Data:        base64.StdEncoding.EncodeToString(input.Data),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, inference.NewTransportError(serviceName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, inference.NewTransportError(serviceName, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, inference.NewStatusError(serviceName, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	result, err := parseResponse(respBody)
	if err != nil {
		return nil, inference.NewMalformedError(serviceName, err)
	}
	return result, nil
}

func parseResponse(body []byte) (*domain.ClassificationResult, error) {
	var resp classifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	candidates := resp.Predictions
	if len(candidates) == 0 {
		candidates = []prediction{resp.prediction}
	}

	var top *prediction
	var topScore float64
	for i := range candidates {
		score, ok := candidates[i].score()
		if !ok {
			return nil, fmt.Errorf("prediction %d has no confidence", i)
		}
		if math.IsNaN(score) || score < 0 || score > 1 {
			return nil, fmt.Errorf("prediction %d confidence %v outside [0,1]", i, score)
		}
		if top == nil || score > topScore {
			top = &candidates[i]
			topScore = score
		}
	}
	if top.label() == "" {
		return nil, fmt.Errorf("top prediction has no label")
	}

	return &domain.ClassificationResult{Label: top.label(), Confidence: topScore}, nil
}

// Package extractor calls the remote policy document extractor over HTTP and
// folds its open-ended responses into each claim type's closed field schema.
package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"claimintake/internal/config"
	"claimintake/internal/domain"
	"claimintake/internal/inference"
	"claimintake/internal/port"
)

const serviceName = "extractor"

// Client implements port.DocumentExtractor.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	schemas map[string][]domain.FieldSpec
}

// NewClient creates an extractor client. The profile table supplies the schema
// for each extraction endpoint.
func NewClient(cfg *config.InferenceConfig, profiles domain.ProfileTable) *Client {
	schemas := make(map[string][]domain.FieldSpec, len(profiles))
	for _, p := range profiles {
		schemas[p.ExtractionEndpoint] = p.Fields
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout()},
		limiter: inference.NewLimiter(cfg),
		schemas: schemas,
	}
}

type extractRequest struct {
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
	Data        string `json:"data"`
}

// extractResponse covers the {fields, raw_text} shape and the flat
// {success, data} shape returned by the older per-type validators.
type extractResponse struct {
	Fields  map[string]rawField        `json:"fields"`
	RawText string                     `json:"raw_text"`
	Success *bool                      `json:"success"`
	Data    map[string]json.RawMessage `json:"data"`
}

func (c *Client) Extract(ctx context.Context, input port.ArtifactInput, endpointID string) (*domain.ExtractionResult, error) {
	schema, ok := c.schemas[endpointID]
	if !ok {
		return nil, fmt.Errorf("extractor: unknown endpoint %q", endpointID)
	}
	if _, ok := domain.AllowedArtifactTypes[input.ContentType]; !ok {
		return nil, &inference.RemoteError{
			Service: serviceName,
			Err:     fmt.Errorf("%w: %s", domain.ErrUnsupportedArtifact, input.ContentType),
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &inference.RemoteError{Service: serviceName, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	bodyBytes, err := json.Marshal(extractRequest{
		ContentType: input.ContentType,
		Filename:    input.Filename,
		Data:        base64.StdEncoding.EncodeToString(input.Data),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.baseURL + "/extract/" + url.PathEscape(endpointID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
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

	src, err := decodeResponse(respBody)
	if err != nil {
		return nil, inference.NewMalformedError(serviceName, err)
	}
	return normalize(schema, src), nil
}

func decodeResponse(body []byte) (source, error) {
	var resp extractResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return source{}, fmt.Errorf("unmarshaling response: %w", err)
	}

	if resp.Fields != nil {
		return source{fields: resp.Fields, rawText: resp.RawText}, nil
	}
	if resp.Data == nil {
		return source{}, fmt.Errorf("response has neither fields nor data")
	}
	if resp.Success != nil && !*resp.Success {
		return source{}, fmt.Errorf("service reported success=false")
	}

	src := source{fields: make(map[string]rawField, len(resp.Data)), legacy: true}
	for key, val := range resp.Data {
		switch key {
		case "_fallbackApplied":
			_ = json.Unmarshal(val, &src.numericFallback)
		case "extractedText":
			_ = json.Unmarshal(val, &src.rawText)
		default:
			src.fields[key] = rawField{Value: val}
		}
	}
	return src, nil
}

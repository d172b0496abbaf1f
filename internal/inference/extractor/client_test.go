package extractor_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimintake/internal/config"
	"claimintake/internal/domain"
	"claimintake/internal/inference"
	"claimintake/internal/inference/extractor"
	"claimintake/internal/port"
)

var policyPDF = port.ArtifactInput{Data: []byte("%PDF-1.4 policy"), ContentType: "application/pdf", Filename: "policy.pdf"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *extractor.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return extractor.NewClient(&config.InferenceConfig{BaseURL: srv.URL, TimeoutSecs: 5}, domain.DefaultProfiles())
}

func fieldByName(t *testing.T, r *domain.ExtractionResult, name string) domain.ExtractedField {
	t.Helper()
	f, ok := r.Field(name)
	require.True(t, ok, "field %s missing", name)
	return f
}

func TestExtract_FieldsShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract/vehicle", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "application/pdf", body["content_type"])

		_, _ = w.Write([]byte(`{
			"fields": {
				"policyNumber": {"value": "VH/2024/001", "fallback_applied": false},
				"vehicleNumber": {"value": null, "fallback_applied": true},
				"validTo": {"value": "31/03/2025"},
				"idv": {"value": "Rs. 4,50,000"},
				"engineNumber": {"value": "EN-99"}
			},
			"raw_text": "POLICY SCHEDULE"
		}`))
	})

	result, err := c.Extract(context.Background(), policyPDF, "vehicle")

	require.NoError(t, err)
	require.Len(t, result.Fields, 5)
	assert.Equal(t, "POLICY SCHEDULE", result.RawText)

	names := make([]string, 0, len(result.Fields))
	for _, f := range result.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"policyNumber", "vehicleNumber", "validFrom", "validTo", "idv"}, names)

	pn := fieldByName(t, result, "policyNumber")
	assert.Equal(t, "VH/2024/001", *pn.Text)
	assert.False(t, pn.FallbackApplied)

	vn := fieldByName(t, result, "vehicleNumber")
	assert.True(t, vn.IsNull())
	assert.True(t, vn.FallbackApplied)

	from := fieldByName(t, result, "validFrom")
	assert.True(t, from.IsNull())
	assert.True(t, from.FallbackApplied)

	to := fieldByName(t, result, "validTo")
	assert.Equal(t, "2025-03-31", *to.Text)

	idv := fieldByName(t, result, "idv")
	require.NotNil(t, idv.Number)
	assert.Equal(t, 450000.0, *idv.Number)
}

func TestExtract_LegacyFlatShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract/health", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"policyNumber": "HL-7781",
				"memberId": null,
				"validFrom": "01-04-2024",
				"validTo": "31-03-2025",
				"sumInsuredVal": 500000,
				"_fallbackApplied": false,
				"extractedText": "health policy"
			},
			"validation": {"status": "APPROVED", "issues": []}
		}`))
	})

	result, err := c.Extract(context.Background(), policyPDF, "health")

	require.NoError(t, err)
	assert.Equal(t, "health policy", result.RawText)
	assert.Equal(t, "HL-7781", *fieldByName(t, result, "policyNumber").Text)
	assert.True(t, fieldByName(t, result, "memberId").FallbackApplied)
	assert.Equal(t, "2024-04-01", *fieldByName(t, result, "validFrom").Text)
	assert.Equal(t, 500000.0, *fieldByName(t, result, "sumInsured").Number)
}

func TestExtract_LegacyHeuristicFallbackDiscardsFigures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"policyNumber":"HM-1","totalSum":1500000,"buildingSum":1500000,"_fallbackApplied":true
		}}`))
	})

	result, err := c.Extract(context.Background(), policyPDF, "home")

	require.NoError(t, err)
	assert.Equal(t, "HM-1", *fieldByName(t, result, "policyNumber").Text)
	sum := fieldByName(t, result, "sumInsured")
	assert.True(t, sum.IsNull())
	assert.True(t, sum.FallbackApplied)
}

func TestExtract_LegacyZeroMeansNotDetected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"policyNumber":"LF-1","sumAssuredVal":0}}`))
	})

	result, err := c.Extract(context.Background(), policyPDF, "life")

	require.NoError(t, err)
	assert.True(t, fieldByName(t, result, "sumAssured").FallbackApplied)
}

func TestExtract_UnreadableValuesBecomeNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fields":{
			"policyNumber":{"value":"   "},
			"validTo":{"value":"sometime next year"},
			"sumAssured":{"value":{"nested":true}}
		}}`))
	})

	result, err := c.Extract(context.Background(), policyPDF, "life")

	require.NoError(t, err)
	for _, f := range result.Fields {
		assert.True(t, f.IsNull(), f.Name)
		assert.True(t, f.FallbackApplied, f.Name)
	}
}

func TestExtract_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":      `oops`,
		"no fields":     `{"raw_text":"x"}`,
		"success false": `{"success":false,"data":{}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := c.Extract(context.Background(), policyPDF, "vehicle")

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
		})
	}
}

func TestExtract_UnsupportedMediaFromService(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
	})

	_, err := c.Extract(context.Background(), policyPDF, "vehicle")

	assert.True(t, errors.Is(err, domain.ErrUnsupportedArtifact))
	assert.False(t, inference.IsRetryable(err))
}

func TestExtract_UnsupportedContentType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("service must not be called")
	})

	_, err := c.Extract(context.Background(), port.ArtifactInput{ContentType: "text/plain"}, "vehicle")

	assert.True(t, errors.Is(err, domain.ErrUnsupportedArtifact))
}

func TestExtract_UnknownEndpoint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Extract(context.Background(), policyPDF, "marine")

	assert.Error(t, err)
}

func TestExtract_ServiceUnavailableIsRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Extract(context.Background(), policyPDF, "vehicle")

	assert.True(t, inference.IsRetryable(err))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"500000", 500000, true},
		{"5,00,000", 500000, true},
		{"Rs. 2,50,000.00", 250000, true},
		{"INR 1,25,000/-", 125000, true},
		{"1O,OOO", 10000, true},
		{"S0000", 50000, true},
		{"2.50.000", 250000, true},
		{"Sum Insured: 3,00,000 only", 300000, true},
		{"not available", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := extractor.ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

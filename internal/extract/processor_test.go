package extract

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/extract-cli/internal/model"
)

const orderDocument = "Order #: ORD-123456789\nDate: 2024-01-15\nTotal: $99.99\nContact: customer@example.com"

func TestProcessorProcessText(t *testing.T) {
	p := NewProcessor()

	t.Run("order document", func(t *testing.T) {
		results := p.ProcessText(context.Background(), orderDocument, "", nil)

		var orderIDs []string
		for _, pat := range results.Patterns {
			if pat.PatternType == model.PatternTypeOrderID {
				orderIDs = append(orderIDs, pat.Value)
			}
		}
		assert.Contains(t, orderIDs, "ORD-123456789")

		require.Len(t, results.Dates, 1)
		assert.Equal(t, model.DateTypeOrder, results.Dates[0].DateType)

		require.Len(t, results.Prices, 1)
		assert.True(t, results.Prices[0].Amount.Equal(decimal.RequireFromString("99.99")))
		assert.Equal(t, "USD", results.Prices[0].Currency)

		cross := results.Metadata["cross_analysis"].(map[string]any)
		docType := cross["document_type"].(map[string]any)
		assert.Equal(t, "order", docType["most_likely"])
		assert.InDelta(t, 0.9, docType["confidence"].(float64), 0.001)
		assert.Contains(t, cross, "potential_orders")

		assert.Greater(t, results.Confidence, 0.0)
		assert.LessOrEqual(t, results.Confidence, 1.0)
	})

	t.Run("empty input", func(t *testing.T) {
		results := p.ProcessText(context.Background(), "", "", nil)
		assert.True(t, results.Empty())
		assert.Zero(t, results.Confidence)

		cross := results.Metadata["cross_analysis"].(map[string]any)
		docType := cross["document_type"].(map[string]any)
		assert.Equal(t, "unknown", docType["most_likely"])
		assert.Zero(t, docType["confidence"].(float64))
	})

	t.Run("idempotent", func(t *testing.T) {
		first := p.ProcessText(context.Background(), orderDocument, "shipping", nil)
		second := p.ProcessText(context.Background(), orderDocument, "shipping", nil)
		assert.Equal(t, first, second)
	})

	t.Run("pattern type subset", func(t *testing.T) {
		cfg := &Config{PatternTypes: []model.PatternType{model.PatternTypeEmail}}
		results := p.ProcessText(context.Background(), orderDocument, "", cfg)
		for _, pat := range results.Patterns {
			assert.Equal(t, model.PatternTypeEmail, pat.PatternType)
		}
		assert.NotEmpty(t, results.Patterns)
	})

	t.Run("never panics on hostile input", func(t *testing.T) {
		inputs := []string{
			strings.Repeat("$", 10000),
			"\x00\x01\x02",
			strings.Repeat("2024-01-15 ", 500),
			"€€€ 12.34.56.78 +++",
		}
		for _, input := range inputs {
			results := p.ProcessText(context.Background(), input, "", nil)
			require.NotNil(t, results)
			assert.GreaterOrEqual(t, results.Confidence, 0.0)
			assert.LessOrEqual(t, results.Confidence, 1.0)
		}
	})

	t.Run("shipping context flows into cross analysis", func(t *testing.T) {
		text := "Ship to:\n123 Main Street, Springfield, IL 62704\nTracking: 1Z999AA10123456784"
		results := p.ProcessText(context.Background(), text, "shipping label", nil)

		cross := results.Metadata["cross_analysis"].(map[string]any)
		require.Contains(t, cross, "shipping_info")
		info := cross["shipping_info"].(map[string]any)
		assert.Equal(t, true, info["has_shipping_address"])
		assert.Equal(t, true, info["has_tracking"])

		docType := cross["document_type"].(map[string]any)
		assert.Equal(t, "shipping", docType["most_likely"])
	})
}

func TestOverallConfidence(t *testing.T) {
	t.Run("empty is zero", func(t *testing.T) {
		assert.Zero(t, overallConfidence(nil, nil, nil, nil))
	})

	t.Run("mean plus diversity bonus", func(t *testing.T) {
		got := overallConfidence(
			[]model.ExtractedAddress{{Confidence: 0.8}},
			[]model.ExtractedDate{{Confidence: 0.6}},
			nil, nil,
		)
		assert.InDelta(t, 0.8, got, 0.001)
	})

	t.Run("bonus caps at 0.15", func(t *testing.T) {
		got := overallConfidence(
			[]model.ExtractedAddress{{Confidence: 0.5}},
			[]model.ExtractedDate{{Confidence: 0.5}},
			[]model.ExtractedPrice{{Confidence: 0.5}},
			[]model.ExtractedPattern{{Confidence: 0.5}},
		)
		assert.InDelta(t, 0.65, got, 0.001)
	})

	t.Run("never exceeds one", func(t *testing.T) {
		got := overallConfidence(
			[]model.ExtractedAddress{{Confidence: 1.0}},
			[]model.ExtractedDate{{Confidence: 1.0}},
			[]model.ExtractedPrice{{Confidence: 1.0}},
			nil,
		)
		assert.InDelta(t, 1.0, got, 0.001)
	})
}

func TestValidateResults(t *testing.T) {
	p := NewProcessor()

	t.Run("high quality extraction is valid", func(t *testing.T) {
		results := p.ProcessText(context.Background(), orderDocument, "", nil)
		summary := p.ValidateResults(results)

		assert.Equal(t, true, summary["overall_valid"])
		assert.GreaterOrEqual(t, summary["overall_score"].(float64), 0.6)

		components := summary["component_validations"].(map[string]any)
		assert.Contains(t, components, "dates")
		assert.Contains(t, components, "prices")
		assert.Contains(t, components, "patterns")
		assert.NotContains(t, components, "addresses")
	})

	t.Run("empty results have zero score", func(t *testing.T) {
		summary := p.ValidateResults(&model.Results{})
		assert.Equal(t, false, summary["overall_valid"])
		assert.Zero(t, summary["overall_score"].(float64))
	})
}

func TestResultsSerialization(t *testing.T) {
	p := NewProcessor()
	results := p.ProcessText(context.Background(), orderDocument, "", nil)

	t.Run("to dict preserves exact values", func(t *testing.T) {
		dict := results.ToDict()
		prices := dict["prices"].([]map[string]any)
		require.Len(t, prices, 1)
		assert.Equal(t, "99.99", prices[0]["amount"])

		dates := dict["dates"].([]map[string]any)
		require.Len(t, dates, 1)
		assert.Equal(t, "2024-01-15T00:00:00Z", dates[0]["parsed_date"])
	})

	t.Run("json round trip", func(t *testing.T) {
		raw, err := json.Marshal(results)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Contains(t, decoded, "addresses")
		assert.Contains(t, decoded, "metadata")
		assert.InDelta(t, results.Confidence, decoded["confidence"].(float64), 0.0001)
	})
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/extract-cli/internal/model"
)

func TestAddressExtract(t *testing.T) {
	e := NewAddressExtractor()

	t.Run("full street address", func(t *testing.T) {
		got := e.Extract("Ship to:\n123 Main Street, Springfield, IL 62704", "")
		require.Len(t, got, 1)

		addr := got[0]
		assert.Equal(t, "123", addr.Components["street_number"])
		assert.Equal(t, "IL", addr.Components["state"])
		assert.Equal(t, "62704", addr.Components["postal_code"])
		assert.Contains(t, addr.Components["street_name"], "Main Street")
		assert.InDelta(t, 0.75, addr.Confidence, 0.001)
		assert.NotEmpty(t, addr.Normalized)
	})

	t.Run("duplicate lines collapse", func(t *testing.T) {
		text := "123 Main Street, Springfield, IL 62704\n123 Main Street, Springfield, IL 62704"
		got := e.Extract(text, "")
		assert.Len(t, got, 1)
	})

	t.Run("context boost applies to all candidates", func(t *testing.T) {
		plain := e.Extract("123 Main Street, Springfield, IL 62704", "")
		boosted := e.Extract("123 Main Street, Springfield, IL 62704", "shipping address")
		require.Len(t, plain, 1)
		require.Len(t, boosted, 1)
		assert.InDelta(t, plain[0].Confidence+addressContextBoost, boosted[0].Confidence, 0.001)
	})

	t.Run("non-address lines are ignored", func(t *testing.T) {
		got := e.Extract("hello world\nshort\nno numbers on this street at all", "")
		assert.Empty(t, got)
	})

	t.Run("confidence stays in range", func(t *testing.T) {
		got := e.Extract("Ship to: 123 Main Street Apt 4, Springfield, IL 62704 USA", "shipping delivery address")
		for _, addr := range got {
			assert.GreaterOrEqual(t, addr.Confidence, 0.0)
			assert.LessOrEqual(t, addr.Confidence, 1.0)
		}
	})
}

func TestLooksLikeAddress(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"street suffix", "123 Main Street somewhere", true},
		{"state zip", "Springfield IL 62704 region", true},
		{"postal code only", "code is 62704 in the notes", true},
		{"too short", "1 Main St", false},
		{"no digits", "Main Street near the park", false},
		{"plain sentence", "the quick brown fox jumps", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeAddress(tt.line))
		})
	}
}

func TestAddressValidate(t *testing.T) {
	e := NewAddressExtractor()

	t.Run("complete address is valid", func(t *testing.T) {
		got := e.Validate(model.ExtractedAddress{
			Components: map[string]string{
				"street_number": "123",
				"street_name":   "Main Street",
				"city":          "Springfield",
				"postal_code":   "62704",
			},
		})
		assert.True(t, got.Valid)
		assert.InDelta(t, 1.0, got.Score, 0.001)
		assert.Empty(t, got.Issues)
	})

	t.Run("missing postal code", func(t *testing.T) {
		got := e.Validate(model.ExtractedAddress{
			Components: map[string]string{
				"street_number": "123",
				"city":          "Springfield",
			},
		})
		assert.True(t, got.Valid)
		assert.InDelta(t, 0.7, got.Score, 0.001)
		assert.Contains(t, got.Issues, "missing postal code")
	})

	t.Run("malformed postal code", func(t *testing.T) {
		got := e.Validate(model.ExtractedAddress{
			Components: map[string]string{
				"street_number": "123",
				"city":          "Springfield",
				"postal_code":   "627",
			},
		})
		assert.Contains(t, got.Issues, "invalid postal code format")
		assert.InDelta(t, 0.9, got.Score, 0.001)
	})

	t.Run("street only is invalid", func(t *testing.T) {
		got := e.Validate(model.ExtractedAddress{
			Components: map[string]string{"street_number": "123"},
		})
		assert.False(t, got.Valid)
	})
}

func TestAddressStats(t *testing.T) {
	e := NewAddressExtractor()

	assert.Equal(t, map[string]any{"total_addresses": 0}, e.Stats(nil))

	stats := e.Stats([]model.ExtractedAddress{
		{Confidence: 0.9},
		{Confidence: 0.5},
	})
	assert.Equal(t, 2, stats["total_addresses"])
	assert.InDelta(t, 0.7, stats["avg_confidence"].(float64), 0.001)
	assert.InDelta(t, 0.9, stats["max_confidence"].(float64), 0.001)
	assert.InDelta(t, 0.5, stats["min_confidence"].(float64), 0.001)
	assert.Equal(t, 1, stats["high_confidence_addresses"])
	assert.Equal(t, "regex_fallback", stats["extraction_method"])
}

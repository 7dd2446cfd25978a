package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/extract-cli/internal/model"
)

func TestPatternExtract(t *testing.T) {
	e := NewPatternExtractor()

	t.Run("order id with context", func(t *testing.T) {
		got := e.Extract("Order #: ORD-123456789", []model.PatternType{model.PatternTypeOrderID}, "")
		require.NotEmpty(t, got)

		top := got[0]
		assert.Equal(t, model.PatternTypeOrderID, top.PatternType)
		assert.Equal(t, "ORD-123456789", top.Value)
		assert.InDelta(t, 1.0, top.Confidence, 0.001)
	})

	t.Run("email with metadata", func(t *testing.T) {
		got := e.Extract("Contact: support@example.com", []model.PatternType{model.PatternTypeEmail}, "")
		require.Len(t, got, 1)

		p := got[0]
		assert.Equal(t, "support@example.com", p.Value)
		assert.Equal(t, "support", p.Metadata["local"])
		assert.Equal(t, "example.com", p.Metadata["domain"])
		assert.Equal(t, "com", p.Metadata["tld"])
	})

	t.Run("phone formats and metadata", func(t *testing.T) {
		got := e.Extract("Phone: (555) 123-4567", []model.PatternType{model.PatternTypePhone}, "")
		require.Len(t, got, 1)

		p := got[0]
		assert.Equal(t, "5551234567", p.Metadata["digits_only"])
		assert.Equal(t, "(555) 123-4567", p.Metadata["formatted"])
		assert.Equal(t, "555", p.Metadata["area_code"])
		assert.InDelta(t, 1.0, p.Confidence, 0.001)
	})

	t.Run("quantity notations collapse to one candidate", func(t *testing.T) {
		got := e.Extract("Qty: 5\nShipped 5 pcs", []model.PatternType{model.PatternTypeQuantity}, "")
		require.Len(t, got, 1)
		assert.Equal(t, "5", got[0].Value)
		assert.Equal(t, 5, got[0].Metadata["numeric_value"])
		assert.InDelta(t, 0.8, got[0].Confidence, 0.001)
	})

	t.Run("ups tracking number", func(t *testing.T) {
		got := e.Extract("Tracking: 1Z999AA10123456784", []model.PatternType{model.PatternTypeTracking}, "")
		require.NotEmpty(t, got)
		assert.Equal(t, "1Z999AA10123456784", got[0].Value)
	})

	t.Run("url metadata", func(t *testing.T) {
		got := e.Extract("see https://example.com/orders/42 for details", []model.PatternType{model.PatternTypeURL}, "")
		require.Len(t, got, 1)
		assert.Equal(t, "https", got[0].Metadata["protocol"])
		assert.Equal(t, "example.com", got[0].Metadata["domain"])
		assert.Equal(t, "/orders/42", got[0].Metadata["path"])
	})

	t.Run("nil types runs every rule set", func(t *testing.T) {
		got := e.Extract("Order #: ORD-123456789 email support@example.com", nil, "")
		types := make(map[model.PatternType]bool)
		for _, p := range got {
			types[p.PatternType] = true
		}
		assert.True(t, types[model.PatternTypeOrderID])
		assert.True(t, types[model.PatternTypeEmail])
	})

	t.Run("type subset is honored", func(t *testing.T) {
		got := e.Extract("Order #: ORD-123456789 email support@example.com", []model.PatternType{model.PatternTypeEmail}, "")
		for _, p := range got {
			assert.Equal(t, model.PatternTypeEmail, p.PatternType)
		}
		assert.NotEmpty(t, got)
	})

	t.Run("sorted descending by confidence", func(t *testing.T) {
		got := e.Extract("Order #: ORD-123456789, contact support@example.com, qty: 3", nil, "")
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
		}
	})
}

func TestNormalizePatternValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		pt    model.PatternType
		want  string
	}{
		{"phone strips punctuation", "(555) 123-4567", model.PatternTypePhone, "5551234567"},
		{"email lowercases", "Support@Example.COM ", model.PatternTypeEmail, "support@example.com"},
		{"order id uppercases", "ord-123456", model.PatternTypeOrderID, "ORD-123456"},
		{"sku uppercases", "abc123", model.PatternTypeSKU, "ABC123"},
		{"quantity trims", " 5 ", model.PatternTypeQuantity, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePatternValue(tt.value, tt.pt))
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"no-at-sign", false},
		{"user@nodot", false},
		{"user@x.y", false},
		{"user@example.c1m", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, validEmail(tt.email))
		})
	}
}

func TestPatternValidate(t *testing.T) {
	e := NewPatternExtractor()

	t.Run("valid email", func(t *testing.T) {
		got := e.Validate(model.ExtractedPattern{
			PatternType: model.PatternTypeEmail,
			Value:       "user@example.com",
			Confidence:  0.9,
		})
		assert.True(t, got.Valid)
		assert.Empty(t, got.Issues)
	})

	t.Run("short phone", func(t *testing.T) {
		got := e.Validate(model.ExtractedPattern{
			PatternType: model.PatternTypePhone,
			Value:       "123-4567",
			Confidence:  0.7,
		})
		assert.Contains(t, got.Issues, "phone number too short")
		assert.InDelta(t, 0.5, got.Score, 0.001)
	})

	t.Run("huge quantity", func(t *testing.T) {
		got := e.Validate(model.ExtractedPattern{
			PatternType: model.PatternTypeQuantity,
			Value:       "50000",
			Confidence:  0.6,
		})
		assert.Contains(t, got.Issues, "unusually large quantity")
	})

	t.Run("non-numeric quantity", func(t *testing.T) {
		got := e.Validate(model.ExtractedPattern{
			PatternType: model.PatternTypeQuantity,
			Value:       "many",
			Confidence:  0.6,
		})
		assert.Contains(t, got.Issues, "non-numeric quantity")
		assert.False(t, got.Valid)
	})
}

func TestPatternStats(t *testing.T) {
	e := NewPatternExtractor()

	assert.Equal(t, map[string]any{"total_patterns": 0}, e.Stats(nil))

	stats := e.Stats([]model.ExtractedPattern{
		{PatternType: model.PatternTypeEmail, Confidence: 0.95},
		{PatternType: model.PatternTypeEmail, Confidence: 0.9},
		{PatternType: model.PatternTypePhone, Confidence: 0.7},
	})
	assert.Equal(t, 3, stats["total_patterns"])
	assert.Equal(t, map[string]int{"email": 2, "phone": 1}, stats["type_counts"])
	assert.Equal(t, 2, stats["high_confidence_patterns"])
}

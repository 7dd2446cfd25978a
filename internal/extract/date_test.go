package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/extract-cli/internal/model"
)

func TestDateExtract(t *testing.T) {
	e := NewDateExtractor()

	t.Run("iso date with order context", func(t *testing.T) {
		got := e.Extract("Order date: 2024-01-15", "")
		require.Len(t, got, 1)

		d := got[0]
		assert.Equal(t, "2024-01-15", d.RawText)
		assert.Equal(t, "iso_date", d.FormatDetected)
		assert.Equal(t, model.DateTypeOrder, d.DateType)
		assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), d.Day())
		assert.InDelta(t, 1.0, d.Confidence, 0.001)
	})

	t.Run("same day in two notations collapses", func(t *testing.T) {
		got := e.Extract("Shipped 2024-01-15, confirmed January 15, 2024", "")
		require.Len(t, got, 1)
		assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), got[0].Day())
	})

	t.Run("format variants resolve to the right day", func(t *testing.T) {
		tests := []struct {
			name string
			text string
			want time.Time
		}{
			{"us slash", "due 01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
			{"us dash", "due 1-15-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
			{"written month", "billed March 5, 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
			{"short month", "billed Mar 5 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
			{"european dots", "issued 15.01.2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
			{"timestamp", "created 2024-01-15T10:30:00", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := e.Extract(tt.text, "")
				require.NotEmpty(t, got)
				assert.Equal(t, tt.want, got[0].Day())
			})
		}
	})

	t.Run("sorted descending by confidence", func(t *testing.T) {
		got := e.Extract("Order date: 2024-01-15 and also 3-7-24 somewhere", "")
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
		}
	})

	t.Run("no dates", func(t *testing.T) {
		assert.Empty(t, e.Extract("nothing to see here", ""))
	})
}

func TestCanonicalizeMonthCase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"upper month", "JANUARY 5, 2024", "January 5, 2024"},
		{"lower short month", "jan 5 2024", "Jan 5 2024"},
		{"timestamp untouched", "2024-01-15T10:30:00", "2024-01-15T10:30:00"},
		{"numeric untouched", "01/15/2024", "01/15/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeMonthCase(tt.in))
		})
	}
}

func TestDateExtractTimestamp(t *testing.T) {
	e := NewDateExtractor()

	got := e.Extract("Created: 2024-01-15T10:30:00", "")
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-15T10:30:00", got[0].RawText)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), got[0].ParsedDate)
}

func TestDateExtractRegexFallback(t *testing.T) {
	e := &DateExtractor{enhanced: false}

	got := e.Extract("2024-01-15", "")
	require.Len(t, got, 1)
	assert.InDelta(t, 0.65, got[0].Confidence, 0.001)
	assert.LessOrEqual(t, got[0].Confidence, dateRegexCap)
}

func TestDateTypeClassification(t *testing.T) {
	e := NewDateExtractor()

	tests := []struct {
		name string
		text string
		want model.DateType
	}{
		{"ship", "Ship date: 2024-02-01", model.DateTypeShip},
		{"due", "Payment due 2024-02-01", model.DateTypeDue},
		{"invoice", "Invoice date: 2024-02-01", model.DateTypeInvoice},
		{"event", "Appointment scheduled 2024-02-01", model.DateTypeEvent},
		{"created", "Generated 2024-02-01", model.DateTypeCreated},
		{"untyped", "value 2024-02-01", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text, "")
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].DateType)
		})
	}
}

func TestDateNormalize(t *testing.T) {
	e := NewDateExtractor()
	d := model.ExtractedDate{ParsedDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, "2024-01-15", e.Normalize(d, "iso"))
	assert.Equal(t, "01/15/2024", e.Normalize(d, "us"))
	assert.Equal(t, "15.01.2024", e.Normalize(d, "european"))
	assert.Equal(t, "2024-01-15", e.Normalize(d, ""))
	assert.Equal(t, "Jan 2024", e.Normalize(d, "Jan 2006"))
}

func TestDateValidate(t *testing.T) {
	e := NewDateExtractor()

	t.Run("reasonable past order date", func(t *testing.T) {
		got := e.Validate(model.ExtractedDate{
			ParsedDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			DateType:   model.DateTypeOrder,
			Confidence: 0.9,
		})
		assert.True(t, got.Valid)
		assert.Empty(t, got.Issues)
	})

	t.Run("year out of range", func(t *testing.T) {
		got := e.Validate(model.ExtractedDate{
			ParsedDate: time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC),
			Confidence: 0.6,
		})
		assert.False(t, got.Valid)
		assert.Contains(t, got.Issues, "date outside reasonable range")
		assert.InDelta(t, 0.3, got.Score, 0.001)
	})

	t.Run("future date for historical role", func(t *testing.T) {
		got := e.Validate(model.ExtractedDate{
			ParsedDate: time.Now().AddDate(1, 0, 0),
			DateType:   model.DateTypeInvoice,
			Confidence: 0.8,
		})
		assert.Contains(t, got.Issues, "future date for historical event")
		assert.InDelta(t, 0.6, got.Score, 0.001)
	})

	t.Run("stale date for forward role", func(t *testing.T) {
		got := e.Validate(model.ExtractedDate{
			ParsedDate: time.Now().AddDate(-2, 0, 0),
			DateType:   model.DateTypeShip,
			Confidence: 0.8,
		})
		assert.Contains(t, got.Issues, "very old date for future event")
		assert.InDelta(t, 0.7, got.Score, 0.001)
	})
}

func TestDateStats(t *testing.T) {
	e := NewDateExtractor()

	assert.Equal(t, map[string]any{"total_dates": 0}, e.Stats(nil))

	stats := e.Stats([]model.ExtractedDate{
		{Confidence: 0.9, DateType: model.DateTypeOrder},
		{Confidence: 0.7, DateType: model.DateTypeOrder},
		{Confidence: 0.85, DateType: model.DateTypeShip},
	})
	assert.Equal(t, 3, stats["total_dates"])
	assert.Equal(t, []string{"order", "ship"}, stats["date_types_found"])
	assert.Equal(t, "flexible_parser", stats["extraction_method"])
}

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/extract-cli/internal/model"
)

func TestComputeRunStats(t *testing.T) {
	now := time.Now()
	runs := []model.Run{
		{Status: model.RunStatusComplete, Confidence: 0.8, CreatedAt: now, UpdatedAt: now.Add(2 * time.Second)},
		{Status: model.RunStatusComplete, Confidence: 0.6, CreatedAt: now, UpdatedAt: now.Add(4 * time.Second)},
		{Status: model.RunStatusFailed},
		{Status: model.RunStatusQueued},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.InDelta(t, 0.7, s.AvgConfidence, 0.0001)
	assert.InDelta(t, 3.0, s.AvgDurSecs, 0.0001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AvgConfidence)
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:         "abcdef12-3456-7890-abcd-ef1234567890",
			Source:     "invoice.txt",
			Status:     model.RunStatusComplete,
			Confidence: 0.92,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "abcdef12")
	assert.NotContains(t, out, "abcdef12-3456")
	assert.Contains(t, out, "invoice.txt")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "0.92")
	assert.Contains(t, out, "2024-03-01 10:30")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{
		Total:         5,
		Complete:      3,
		Failed:        1,
		Other:         1,
		AvgConfidence: 0.75,
		AvgDurSecs:    1.5,
	})

	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "0.75")
	assert.Contains(t, out, "1.5s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abc"))
	assert.Equal(t, "short", truncateID("short"))
}

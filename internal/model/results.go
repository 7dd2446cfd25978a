package model

import (
	"encoding/json"
	"time"
)

// Results aggregates the output of one extraction call: four candidate
// sequences (each sorted descending by confidence and deduplicated),
// per-type statistics plus cross-analysis under Metadata, and an overall
// confidence scalar. A Results value is immutable after construction.
type Results struct {
	Addresses  []ExtractedAddress `json:"addresses"`
	Dates      []ExtractedDate    `json:"dates"`
	Prices     []ExtractedPrice   `json:"prices"`
	Patterns   []ExtractedPattern `json:"patterns"`
	Metadata   map[string]any     `json:"metadata"`
	Confidence float64            `json:"confidence"`
}

// Empty reports whether no extractor produced any candidate.
func (r *Results) Empty() bool {
	return len(r.Addresses) == 0 && len(r.Dates) == 0 && len(r.Prices) == 0 && len(r.Patterns) == 0
}

// Total returns the candidate count across all four types.
func (r *Results) Total() int {
	return len(r.Addresses) + len(r.Dates) + len(r.Prices) + len(r.Patterns)
}

// ToDict renders the results as plain nested maps and slices of primitive
// values. Calendar dates become ISO-8601 strings and decimal amounts become
// exact string representations, so nothing round-trips through binary floats.
func (r *Results) ToDict() map[string]any {
	addresses := make([]map[string]any, 0, len(r.Addresses))
	for _, a := range r.Addresses {
		entry := map[string]any{
			"raw_text":   a.RawText,
			"confidence": a.Confidence,
			"components": a.Components,
			"normalized": a.Normalized,
		}
		if a.Context != "" {
			entry["context"] = a.Context
		}
		addresses = append(addresses, entry)
	}

	dates := make([]map[string]any, 0, len(r.Dates))
	for _, d := range r.Dates {
		entry := map[string]any{
			"raw_text":        d.RawText,
			"parsed_date":     d.ParsedDate.Format(time.RFC3339),
			"confidence":      d.Confidence,
			"format_detected": d.FormatDetected,
		}
		if d.Context != "" {
			entry["context"] = d.Context
		}
		if d.DateType != "" {
			entry["date_type"] = string(d.DateType)
		}
		dates = append(dates, entry)
	}

	prices := make([]map[string]any, 0, len(r.Prices))
	for _, p := range r.Prices {
		entry := map[string]any{
			"raw_text":   p.RawText,
			"amount":     p.Amount.String(),
			"currency":   p.Currency,
			"confidence": p.Confidence,
		}
		if p.Context != "" {
			entry["context"] = p.Context
		}
		if p.PriceType != "" {
			entry["price_type"] = string(p.PriceType)
		}
		prices = append(prices, entry)
	}

	patterns := make([]map[string]any, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		entry := map[string]any{
			"raw_text":     p.RawText,
			"pattern_type": string(p.PatternType),
			"confidence":   p.Confidence,
			"value":        p.Value,
		}
		if p.Context != "" {
			entry["context"] = p.Context
		}
		if len(p.Metadata) > 0 {
			entry["metadata"] = p.Metadata
		}
		patterns = append(patterns, entry)
	}

	return map[string]any{
		"addresses":  addresses,
		"dates":      dates,
		"prices":     prices,
		"patterns":   patterns,
		"metadata":   r.Metadata,
		"confidence": r.Confidence,
	}
}

// MarshalJSON serializes through ToDict so the wire shape matches the
// documented leaf contract exactly.
func (r *Results) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToDict())
}

package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/extract-cli/internal/model"
)

// Config narrows an extraction call. A nil Config (or nil PatternTypes)
// runs every extractor with every pattern type.
type Config struct {
	// PatternTypes restricts the pattern extractor to a subset of its rule
	// sets. Nil means all registered types.
	PatternTypes []model.PatternType `json:"pattern_types,omitempty"`
}

// Processor orchestrates the four extractors: it fans one text out to all of
// them concurrently, merges their candidates, and adds cross-extractor
// analysis. ProcessText never returns an error; any failure inside an
// extractor degrades to an empty candidate slice for that type.
type Processor struct {
	addresses *AddressExtractor
	dates     *DateExtractor
	prices    *PriceExtractor
	patterns  *PatternExtractor
}

// NewProcessor constructs a processor with all four extractors wired.
func NewProcessor() *Processor {
	p := &Processor{
		addresses: NewAddressExtractor(),
		dates:     NewDateExtractor(),
		prices:    NewPriceExtractor(),
		patterns:  NewPatternExtractor(),
	}
	zap.L().Info("processor: initialized with all extractors")
	return p
}

// ProcessText runs every extractor against text and returns the merged
// results. contextHint is free-text caller context that biases role
// classification and confidence; cfg may be nil.
func (p *Processor) ProcessText(ctx context.Context, text, contextHint string, cfg *Config) (results *model.Results) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("processor: extraction panicked", zap.Any("panic", r))
			results = &model.Results{
				Addresses: []model.ExtractedAddress{},
				Dates:     []model.ExtractedDate{},
				Prices:    []model.ExtractedPrice{},
				Patterns:  []model.ExtractedPattern{},
				Metadata:  map[string]any{"error": fmt.Sprint(r)},
			}
		}
	}()

	zap.L().Info("processor: starting extraction",
		zap.Int("text_length", len(text)),
		zap.Bool("has_context", contextHint != ""))

	var patternTypes []model.PatternType
	if cfg != nil {
		patternTypes = cfg.PatternTypes
	}

	var (
		addresses []model.ExtractedAddress
		dates     []model.ExtractedDate
		prices    []model.ExtractedPrice
		patterns  []model.ExtractedPattern
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(protect("address", func() { addresses = p.addresses.Extract(text, contextHint) }))
	g.Go(protect("date", func() { dates = p.dates.Extract(text, contextHint) }))
	g.Go(protect("price", func() { prices = p.prices.Extract(text, contextHint) }))
	g.Go(protect("pattern", func() { patterns = p.patterns.Extract(text, patternTypes, contextHint) }))
	_ = g.Wait()

	if addresses == nil {
		addresses = []model.ExtractedAddress{}
	}
	if dates == nil {
		dates = []model.ExtractedDate{}
	}
	if prices == nil {
		prices = []model.ExtractedPrice{}
	}
	if patterns == nil {
		patterns = []model.ExtractedPattern{}
	}

	results = &model.Results{
		Addresses:  addresses,
		Dates:      dates,
		Prices:     prices,
		Patterns:   patterns,
		Metadata:   p.compileMetadata(addresses, dates, prices, patterns, text),
		Confidence: overallConfidence(addresses, dates, prices, patterns),
	}

	zap.L().Info("processor: extraction complete",
		zap.Int("addresses_found", len(addresses)),
		zap.Int("dates_found", len(dates)),
		zap.Int("prices_found", len(prices)),
		zap.Int("patterns_found", len(patterns)),
		zap.Float64("overall_confidence", results.Confidence))
	return results
}

// protect wraps one extractor call so a panic degrades to an empty slice for
// that extractor instead of failing the whole run.
func protect(name string, fn func()) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("processor: extractor panicked",
					zap.String("extractor", name), zap.Any("panic", r))
			}
		}()
		fn()
		return nil
	}
}

func (p *Processor) compileMetadata(
	addresses []model.ExtractedAddress,
	dates []model.ExtractedDate,
	prices []model.ExtractedPrice,
	patterns []model.ExtractedPattern,
	text string,
) map[string]any {
	metadata := map[string]any{
		"extraction_stats": map[string]any{
			"text_length":       len(text),
			"total_extractions": len(addresses) + len(dates) + len(prices) + len(patterns),
		},
	}
	if len(addresses) > 0 {
		metadata["address_stats"] = p.addresses.Stats(addresses)
	}
	if len(dates) > 0 {
		metadata["date_stats"] = p.dates.Stats(dates)
	}
	if len(prices) > 0 {
		metadata["price_stats"] = p.prices.Stats(prices)
	}
	if len(patterns) > 0 {
		metadata["pattern_stats"] = p.patterns.Stats(patterns)
	}
	metadata["cross_analysis"] = crossAnalysis(addresses, dates, prices, patterns)
	return metadata
}

// overallConfidence is the mean candidate confidence plus a diversity bonus
// of 0.05 per populated type, capped at 0.15, clamped to 1.0. No candidates
// means 0.0.
func overallConfidence(
	addresses []model.ExtractedAddress,
	dates []model.ExtractedDate,
	prices []model.ExtractedPrice,
	patterns []model.ExtractedPattern,
) float64 {
	sum := 0.0
	count := 0
	types := 0

	if len(addresses) > 0 {
		types++
	}
	for _, a := range addresses {
		sum += a.Confidence
		count++
	}
	if len(dates) > 0 {
		types++
	}
	for _, d := range dates {
		sum += d.Confidence
		count++
	}
	if len(prices) > 0 {
		types++
	}
	for _, p := range prices {
		sum += p.Confidence
		count++
	}
	if len(patterns) > 0 {
		types++
	}
	for _, p := range patterns {
		sum += p.Confidence
		count++
	}

	if count == 0 {
		return 0.0
	}
	bonus := float64(types) * 0.05
	if bonus > 0.15 {
		bonus = 0.15
	}
	return model.ClampConfidence(sum/float64(count) + bonus)
}

// ValidateResults validates every candidate in results and aggregates the
// outcome: per-type average scores and valid counts, plus an overall score
// that is the mean of the populated per-type averages. Overall validity
// requires 0.6.
func (p *Processor) ValidateResults(results *model.Results) map[string]any {
	summary := map[string]any{
		"overall_valid":         false,
		"overall_score":         0.0,
		"component_validations": map[string]any{},
		"issues":                []string{},
	}
	components := summary["component_validations"].(map[string]any)

	totalScore := 0.0
	componentCount := 0

	addComponent := func(name string, validations []model.ValidationResult) {
		if len(validations) == 0 {
			return
		}
		sum := 0.0
		valid := 0
		for _, v := range validations {
			sum += v.Score
			if v.Valid {
				valid++
			}
		}
		avg := sum / float64(len(validations))
		components[name] = map[string]any{
			"average_score": avg,
			"valid_count":   valid,
			"total_count":   len(validations),
		}
		totalScore += avg
		componentCount++
	}

	var addrValidations []model.ValidationResult
	for _, a := range results.Addresses {
		addrValidations = append(addrValidations, p.addresses.Validate(a))
	}
	addComponent("addresses", addrValidations)

	var dateValidations []model.ValidationResult
	for _, d := range results.Dates {
		dateValidations = append(dateValidations, p.dates.Validate(d))
	}
	addComponent("dates", dateValidations)

	var priceValidations []model.ValidationResult
	for _, pr := range results.Prices {
		priceValidations = append(priceValidations, p.prices.Validate(pr))
	}
	addComponent("prices", priceValidations)

	var patternValidations []model.ValidationResult
	for _, pt := range results.Patterns {
		patternValidations = append(patternValidations, p.patterns.Validate(pt))
	}
	addComponent("patterns", patternValidations)

	if componentCount > 0 {
		overall := totalScore / float64(componentCount)
		summary["overall_score"] = overall
		summary["overall_valid"] = overall >= 0.6
	}
	return summary
}

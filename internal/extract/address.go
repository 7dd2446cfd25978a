// Package extract implements the deterministic extraction core: four
// independent rule-table extractors (addresses, dates, prices, identifier
// patterns) and the processor that fans work out to them and merges the
// results.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/extract-cli/internal/model"
)

// Address component patterns for the regex extraction path. Each matched
// component contributes a fixed confidence increment.
var addressComponentPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"street_number", regexp.MustCompile(`\b\d+\b`)},
	{"street_name", regexp.MustCompile(`(?i)\b\d+\s+([A-Za-z\s]+?(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd|Circle|Cir|Court|Ct|Place|Pl))\b`)},
	{"city", regexp.MustCompile(`(?i)\b([A-Za-z\s]{2,}?),\s*[A-Z]{2}\s+\d{5}`)},
	{"state", regexp.MustCompile(`\b([A-Z]{2})\s+\d{5}`)},
	{"postal_code", regexp.MustCompile(`\b(\d{5}(?:-\d{4})?)\b`)},
	{"country", regexp.MustCompile(`(?i)\b(USA|United States|US|Canada|CA)\b`)},
}

var (
	postalCodeRe      = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	stateZipRe        = regexp.MustCompile(`\b[A-Z]{2}\s+\d{5}`)
	validPostalCodeRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	hasDigitRe        = regexp.MustCompile(`\d`)
)

// addressIndicators are keywords that mark a line as address-bearing.
var addressIndicators = []string{
	"address", "street", "avenue", "road", "drive", "lane", "boulevard",
	"ship to", "shipping", "billing", "delivery", "location", "apt", "suite",
}

var streetSuffixes = []string{
	"street", "st", "avenue", "ave", "road", "rd", "drive", "dr", "lane", "ln",
}

// addressContextKeywords boost every candidate from a call whose caller
// context mentions them.
var addressContextKeywords = []string{
	"shipping", "billing", "delivery", "send to", "ship to", "address",
}

const (
	addressComponentIncrement = 0.15
	addressRegexCap           = 0.85
	addressContextBoost       = 0.10
	addressMinConfidence      = 0.3
)

// AddressExtractor finds postal-address-like lines and scores them by
// component completeness. A richer parser can be plugged in through the
// resolver; without one the extractor runs its regex path, which caps
// confidence at 0.85.
type AddressExtractor struct {
	enhanced bool
}

// NewAddressExtractor constructs an extractor. No enhanced address parser is
// wired in this build, so the regex path is always used; the downgrade is
// logged once at construction.
func NewAddressExtractor() *AddressExtractor {
	e := &AddressExtractor{enhanced: false}
	if !e.enhanced {
		zap.L().Info("address: enhanced parser unavailable, using regex path")
	}
	return e
}

// Extract scans text line by line and returns address candidates sorted
// descending by confidence. Identical normalized addresses collapse to the
// highest-confidence representative.
func (e *AddressExtractor) Extract(text, context string) []model.ExtractedAddress {
	var addresses []model.ExtractedAddress

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !looksLikeAddress(line) {
			continue
		}

		components := make(map[string]string)
		confidence := 0.0
		for _, cp := range addressComponentPatterns {
			m := cp.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			components[cp.name] = strings.TrimSpace(value)
			confidence += addressComponentIncrement
		}

		hasStreet := components["street_name"] != "" || components["street_number"] != ""
		hasLocation := components["postal_code"] != "" || components["city"] != "" || components["state"] != ""
		if !hasStreet || !hasLocation || confidence <= addressMinConfidence {
			continue
		}
		if confidence > addressRegexCap {
			confidence = addressRegexCap
		}

		addresses = append(addresses, model.ExtractedAddress{
			RawText:    line,
			Confidence: confidence,
			Components: components,
			Normalized: normalizeAddressComponents(components),
			Context:    context,
		})
	}

	if context != "" && hasAnyKeyword(strings.ToLower(context), addressContextKeywords) {
		for i := range addresses {
			addresses[i].Confidence = model.ClampConfidence(addresses[i].Confidence + addressContextBoost)
		}
	}

	addresses = dedupeAddresses(addresses)
	sort.SliceStable(addresses, func(i, j int) bool {
		return addresses[i].Confidence > addresses[j].Confidence
	})

	zap.L().Debug("address: extraction complete", zap.Int("candidates", len(addresses)))
	return addresses
}

// looksLikeAddress is the cheap gate before component extraction: the line
// must carry a digit plus at least one address signal.
func looksLikeAddress(line string) bool {
	if len(line) < 10 {
		return false
	}
	if !hasDigitRe.MatchString(line) {
		return false
	}

	lower := strings.ToLower(line)
	if hasAnyKeyword(lower, addressIndicators) {
		return true
	}
	for _, suffix := range streetSuffixes {
		if containsWord(lower, suffix) {
			return true
		}
	}
	return postalCodeRe.MatchString(line) || stateZipRe.MatchString(line)
}

// normalizeAddressComponents renders components in canonical order:
// number street, city, state zip, country.
func normalizeAddressComponents(components map[string]string) string {
	var parts []string

	if n := components["street_number"]; n != "" {
		parts = append(parts, n)
	}
	if s := components["street_name"]; s != "" {
		parts = append(parts, s)
	}

	var cityStateZip []string
	if c := components["city"]; c != "" {
		cityStateZip = append(cityStateZip, c)
	}
	if s := components["state"]; s != "" {
		cityStateZip = append(cityStateZip, s)
	}
	if p := components["postal_code"]; p != "" {
		cityStateZip = append(cityStateZip, p)
	}
	if len(cityStateZip) > 0 {
		parts = append(parts, strings.Join(cityStateZip, ", "))
	}

	if c := components["country"]; c != "" {
		parts = append(parts, c)
	}

	return strings.Join(parts, ", ")
}

// dedupeAddresses collapses candidates whose normalized form is identical,
// keeping the highest-confidence one. Duplicate verbatim lines in the input
// therefore yield a single candidate.
func dedupeAddresses(addresses []model.ExtractedAddress) []model.ExtractedAddress {
	if len(addresses) == 0 {
		return addresses
	}
	best := make(map[string]int)
	var order []string
	for i, a := range addresses {
		key := strings.ToLower(a.Normalized)
		if j, ok := best[key]; ok {
			if a.Confidence > addresses[j].Confidence {
				best[key] = i
			}
			continue
		}
		best[key] = i
		order = append(order, key)
	}
	out := make([]model.ExtractedAddress, 0, len(order))
	for _, key := range order {
		out = append(out, addresses[best[key]])
	}
	return out
}

// Validate checks an address candidate for the component completeness a
// usable postal address requires: street, city, and a well-formed postal code.
func (e *AddressExtractor) Validate(a model.ExtractedAddress) model.ValidationResult {
	result := model.ValidationResult{Issues: []string{}}
	score := 0.0

	if a.Components["street_name"] != "" || a.Components["street_number"] != "" {
		score += 0.4
	} else {
		result.Issues = append(result.Issues, "missing street information")
	}

	if a.Components["city"] != "" {
		score += 0.3
	} else {
		result.Issues = append(result.Issues, "missing city")
	}

	if postal := a.Components["postal_code"]; postal != "" {
		score += 0.3
		if !validPostalCodeRe.MatchString(postal) {
			result.Issues = append(result.Issues, "invalid postal code format")
			score -= 0.1
		}
	} else {
		result.Issues = append(result.Issues, "missing postal code")
	}

	result.Score = score
	result.Valid = score >= 0.6
	return result
}

// Stats summarizes a candidate sequence for the processor's metadata map.
func (e *AddressExtractor) Stats(addresses []model.ExtractedAddress) map[string]any {
	if len(addresses) == 0 {
		return map[string]any{"total_addresses": 0}
	}
	confidences := make([]float64, len(addresses))
	for i, a := range addresses {
		confidences[i] = a.Confidence
	}
	stats := confidenceStats(confidences)
	return map[string]any{
		"total_addresses":           len(addresses),
		"avg_confidence":            stats.avg,
		"max_confidence":            stats.max,
		"min_confidence":            stats.min,
		"high_confidence_addresses": stats.high,
		"extraction_method":         e.method(),
	}
}

func (e *AddressExtractor) method() string {
	if e.enhanced {
		return "parser"
	}
	return "regex_fallback"
}

package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/extract-cli/internal/model"
)

// patternRule is the rule set for one identifier type: detection regexes,
// base confidence, context boost, and a format validator every match must
// pass.
type patternRule struct {
	ptype    model.PatternType
	res      []*regexp.Regexp
	base     float64
	boost    float64
	validate func(string) bool
}

// patternRules is keyed and ordered by model.AllPatternTypes. The regexes for
// one type are tried in order; matches from several regexes are reconciled by
// normalized-value dedup.
var patternRules = map[model.PatternType]patternRule{
	model.PatternTypeOrderID: {
		ptype: model.PatternTypeOrderID,
		res: []*regexp.Regexp{
			regexp.MustCompile(`\b([A-Z]{2,4}-?\d{6,12})\b`),
			regexp.MustCompile(`(?i)\b(ORD-?\d{6,10})\b`),
			regexp.MustCompile(`\b([0-9]{8,15})\b`),
			regexp.MustCompile(`\b([A-Z]+\d{6,})\b`),
			regexp.MustCompile(`\b(\d{3}-\d{3}-\d{4,6})\b`),
		},
		base:  0.6,
		boost: 0.3,
		validate: func(v string) bool {
			return len(v) >= 6 && hasDigit(v)
		},
	},
	model.PatternTypeSKU: {
		ptype: model.PatternTypeSKU,
		res: []*regexp.Regexp{
			regexp.MustCompile(`\b([A-Z]{2,5}\d{2,8}[A-Z]?)\b`),
			regexp.MustCompile(`\b(\d{4,}-[A-Z0-9]{2,8})\b`),
			regexp.MustCompile(`\b([A-Z]+[-_]\d+[-_]?[A-Z]*)\b`),
			regexp.MustCompile(`\b(\d{6,12})\b`),
			regexp.MustCompile(`\b([A-Z]{1,3}\d{2,6}[A-Z]{0,3})\b`),
		},
		base:  0.5,
		boost: 0.3,
		validate: func(v string) bool {
			return len(v) >= 4 && hasDigit(v) && hasLetter(v)
		},
	},
	model.PatternTypeEmail: {
		ptype: model.PatternTypeEmail,
		res: []*regexp.Regexp{
			regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`),
		},
		base:  0.9,
		boost: 0.1,
		validate: func(v string) bool {
			at := strings.LastIndex(v, "@")
			if at <= 0 {
				return false
			}
			domain := v[at+1:]
			return strings.Contains(domain, ".") && len(domain) > 2
		},
	},
	model.PatternTypePhone: {
		ptype: model.PatternTypePhone,
		res: []*regexp.Regexp{
			regexp.MustCompile(`\b(\+?1[-.\s]?(\d{3})[-.\s]?(\d{3})[-.\s]?(\d{4}))\b`),
			regexp.MustCompile(`(\(\d{3}\)\s?-?\s?\d{3}[-.\s]?\d{4})`),
			regexp.MustCompile(`\b(\d{3}[-.\s]?\d{3}[-.\s]?\d{4})\b`),
			regexp.MustCompile(`(\+\d{1,3}[-.\s]?\d{1,14})\b`),
			regexp.MustCompile(`\b(\d{10})\b`),
		},
		base:  0.7,
		boost: 0.2,
		validate: func(v string) bool {
			n := len(digitsOnly(v))
			return n >= 10 && n <= 15
		},
	},
	model.PatternTypeTracking: {
		ptype: model.PatternTypeTracking,
		res: []*regexp.Regexp{
			regexp.MustCompile(`\b(1Z[A-Z0-9]{16})\b`),
			regexp.MustCompile(`\b(\d{22})\b`),
			regexp.MustCompile(`\b(\d{12})\b`),
			regexp.MustCompile(`\b([A-Z]{2}\d{9}[A-Z]{2})\b`),
			regexp.MustCompile(`(?i)\b(TRK\d{10,15})\b`),
		},
		base:  0.6,
		boost: 0.3,
		validate: func(v string) bool {
			return len(v) >= 8 && hasDigit(v)
		},
	},
	model.PatternTypeInvoice: {
		ptype: model.PatternTypeInvoice,
		res: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(INV-?\d{4,12})\b`),
			regexp.MustCompile(`\b(\d{6,12})\b`),
			regexp.MustCompile(`\b([A-Z]{2,4}\d{4,10})\b`),
		},
		base:  0.5,
		boost: 0.4,
		validate: func(v string) bool {
			return len(v) >= 4 && hasDigit(v)
		},
	},
	model.PatternTypeCustomerID: {
		ptype: model.PatternTypeCustomerID,
		res: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(CUST-?\d{4,12})\b`),
			regexp.MustCompile(`\b(C\d{6,12})\b`),
			regexp.MustCompile(`\b(\d{6,15})\b`),
		},
		base:  0.4,
		boost: 0.4,
		validate: func(v string) bool {
			return len(v) >= 4 && hasDigit(v)
		},
	},
	model.PatternTypeQuantity: {
		ptype: model.PatternTypeQuantity,
		res: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(\d+)\s*(?:pcs?|pieces?|units?|each|qty|x)\b`),
			regexp.MustCompile(`(?i)\bqty:?\s*(\d+)\b`),
			regexp.MustCompile(`(?i)\bquantity:?\s*(\d+)\b`),
		},
		base:  0.7,
		boost: 0.2,
		validate: func(v string) bool {
			n, err := strconv.Atoi(v)
			return err == nil && n > 0
		},
	},
	model.PatternTypeURL: {
		ptype: model.PatternTypeURL,
		res: []*regexp.Regexp{
			regexp.MustCompile("\\b(https?://[^\\s<>\"{}|\\\\^`\\[\\]]+)\\b"),
			regexp.MustCompile("\\b(www\\.[^\\s<>\"{}|\\\\^`\\[\\]]+\\.[a-zA-Z]{2,})\\b"),
		},
		base:  0.8,
		boost: 0.1,
		validate: func(v string) bool {
			return strings.Contains(v, ".") && len(v) > 5
		},
	},
}

// patternIndicatorTable holds the proximity keywords that trigger the context
// boost. Types with no entry (quantity, url) never receive the boost.
var patternIndicatorTable = map[model.PatternType][]string{
	model.PatternTypeOrderID: {
		"order", "order number", "order #", "order id", "purchase order",
		"po number", "po #", "transaction", "reference", "confirmation",
	},
	model.PatternTypeSKU: {
		"sku", "item number", "product code", "part number", "catalog",
		"model", "item code", "product id", "part #",
	},
	model.PatternTypeEmail: {
		"email", "e-mail", "contact", "from", "to", "reply", "@",
	},
	model.PatternTypePhone: {
		"phone", "tel", "telephone", "mobile", "cell", "call", "contact",
	},
	model.PatternTypeTracking: {
		"tracking", "tracking number", "shipment", "carrier", "ups", "fedex", "usps",
	},
	model.PatternTypeInvoice: {
		"invoice", "invoice number", "invoice #", "bill", "billing",
	},
	model.PatternTypeCustomerID: {
		"customer", "customer id", "customer number", "account", "client id",
	},
}

const (
	patternWindowRadius  = 50
	patternMinConfidence = 0.3
)

// PatternExtractor finds identifier-style tokens (order ids, SKUs, emails,
// phones, tracking numbers, invoices, customer ids, quantities, URLs).
// Deduplication is per (type, normalized value); the same token may legally
// appear under several types.
type PatternExtractor struct{}

// NewPatternExtractor constructs an extractor with all rule sets registered.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract returns pattern candidates for the requested types (nil means all
// types, in registration order), sorted descending by confidence.
func (e *PatternExtractor) Extract(text string, types []model.PatternType, context string) []model.ExtractedPattern {
	if types == nil {
		types = model.AllPatternTypes()
	}

	var patterns []model.ExtractedPattern
	for _, pt := range types {
		rule, ok := patternRules[pt]
		if !ok {
			continue
		}
		patterns = append(patterns, e.extractType(text, rule, context)...)
	}

	patterns = dedupePatterns(patterns)
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})

	zap.L().Debug("pattern: extraction complete", zap.Int("candidates", len(patterns)))
	return patterns
}

func (e *PatternExtractor) extractType(text string, rule patternRule, context string) []model.ExtractedPattern {
	var out []model.ExtractedPattern
	lowerContext := strings.ToLower(context)

	for _, re := range rule.res {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[0]:m[1]]
			value := raw
			if len(m) > 2 && m[2] >= 0 {
				value = text[m[2]:m[3]]
			}
			if !rule.validate(value) {
				continue
			}

			confidence := scorePattern(value, rule, m[0], text, lowerContext)
			if confidence < patternMinConfidence {
				continue
			}

			out = append(out, model.ExtractedPattern{
				RawText:     raw,
				PatternType: rule.ptype,
				Confidence:  confidence,
				Value:       value,
				Context:     context,
				Metadata:    patternMetadata(value, rule.ptype),
			})
		}
	}
	return out
}

func scorePattern(value string, rule patternRule, position int, text, lowerContext string) float64 {
	confidence := rule.base
	if hasPatternContext(rule.ptype, position, text, lowerContext) {
		confidence += rule.boost
	}

	switch rule.ptype {
	case model.PatternTypeEmail:
		if validEmail(value) {
			confidence += 0.1
		}
	case model.PatternTypePhone:
		digits := digitsOnly(value)
		if len(digits) == 10 {
			confidence += 0.1
		} else if len(digits) == 11 && strings.HasPrefix(value, "+1") {
			confidence += 0.1
		}
	case model.PatternTypeOrderID, model.PatternTypeSKU, model.PatternTypeTracking:
		if len(value) >= 8 {
			confidence += 0.05
		}
		if strings.ContainsAny(value, "-_") {
			confidence += 0.05
		}
	case model.PatternTypeQuantity:
		if qty, err := strconv.Atoi(value); err == nil {
			if qty >= 1 && qty <= 10000 {
				confidence += 0.1
			} else if qty > 10000 {
				confidence -= 0.2
			}
		} else {
			confidence -= 0.3
		}
	}

	return model.ClampConfidence(confidence)
}

func hasPatternContext(pt model.PatternType, position int, text, lowerContext string) bool {
	indicators := patternIndicatorTable[pt]
	if len(indicators) == 0 {
		return false
	}
	full := lowerContext + " " + window(text, position, patternWindowRadius)
	return hasAnyKeyword(full, indicators)
}

// validEmail is the stricter structural check behind the email confidence
// bump and validation rule.
func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return false
	}
	local, domain := email[:at], email[at+1:]
	if local == "" || len(local) > 64 {
		return false
	}
	if domain == "" || !strings.Contains(domain, ".") || len(domain) < 4 {
		return false
	}
	tld := domain[strings.LastIndex(domain, ".")+1:]
	if len(tld) < 2 || digitsOnly(tld) != "" || !hasLetter(tld) {
		return false
	}
	return true
}

// patternMetadata builds the per-type structured metadata map.
func patternMetadata(value string, pt model.PatternType) map[string]any {
	metadata := make(map[string]any)

	switch pt {
	case model.PatternTypePhone:
		digits := digitsOnly(value)
		metadata["digits_only"] = digits
		metadata["formatted"] = formatPhone(digits)
		if len(digits) == 10 {
			metadata["area_code"] = digits[:3]
			metadata["exchange"] = digits[3:6]
			metadata["number"] = digits[6:]
		}
	case model.PatternTypeEmail:
		if at := strings.LastIndex(value, "@"); at >= 0 {
			local, domain := value[:at], value[at+1:]
			metadata["local"] = local
			metadata["domain"] = domain
			if dot := strings.LastIndex(domain, "."); dot >= 0 {
				metadata["tld"] = domain[dot+1:]
			}
		}
	case model.PatternTypeURL:
		if idx := strings.Index(value, "://"); idx >= 0 {
			metadata["protocol"] = value[:idx]
			rest := value[idx+3:]
			if slash := strings.Index(rest, "/"); slash >= 0 {
				metadata["domain"] = rest[:slash]
				metadata["path"] = rest[slash:]
			} else {
				metadata["domain"] = rest
				metadata["path"] = "/"
			}
		}
	case model.PatternTypeQuantity:
		if n, err := strconv.Atoi(value); err == nil {
			metadata["numeric_value"] = n
		}
	}

	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

// formatPhone renders a digit string in the canonical display format.
func formatPhone(digits string) string {
	switch {
	case len(digits) == 10:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+1 (" + digits[1:4] + ") " + digits[4:7] + "-" + digits[7:]
	default:
		return digits
	}
}

// normalizePatternValue produces the dedup key component for a value:
// phones collapse to digits, emails to lowercase, id-style codes to
// uppercase, everything else is trimmed verbatim.
func normalizePatternValue(value string, pt model.PatternType) string {
	switch pt {
	case model.PatternTypePhone:
		return digitsOnly(value)
	case model.PatternTypeEmail:
		return strings.ToLower(strings.TrimSpace(value))
	case model.PatternTypeOrderID, model.PatternTypeSKU, model.PatternTypeTracking,
		model.PatternTypeInvoice, model.PatternTypeCustomerID:
		return strings.ToUpper(strings.TrimSpace(value))
	default:
		return strings.TrimSpace(value)
	}
}

// dedupePatterns keeps one candidate per (type, normalized value), the
// highest-confidence one, in first-seen order before the final sort.
func dedupePatterns(patterns []model.ExtractedPattern) []model.ExtractedPattern {
	if len(patterns) == 0 {
		return patterns
	}
	type key struct {
		pt    model.PatternType
		value string
	}
	best := make(map[key]int)
	var order []key
	for i, p := range patterns {
		k := key{p.PatternType, normalizePatternValue(p.Value, p.PatternType)}
		if j, ok := best[k]; ok {
			if p.Confidence > patterns[j].Confidence {
				best[k] = i
			}
			continue
		}
		best[k] = i
		order = append(order, k)
	}
	out := make([]model.ExtractedPattern, 0, len(order))
	for _, k := range order {
		out = append(out, patterns[best[k]])
	}
	return out
}

// Validate re-checks a candidate against its type's structural rules.
func (e *PatternExtractor) Validate(p model.ExtractedPattern) model.ValidationResult {
	result := model.ValidationResult{Issues: []string{}}
	score := p.Confidence

	switch p.PatternType {
	case model.PatternTypeEmail:
		if !validEmail(p.Value) {
			result.Issues = append(result.Issues, "invalid email format")
			score -= 0.3
		}
	case model.PatternTypePhone:
		digits := digitsOnly(p.Value)
		if len(digits) < 10 {
			result.Issues = append(result.Issues, "phone number too short")
			score -= 0.2
		} else if len(digits) > 15 {
			result.Issues = append(result.Issues, "phone number too long")
			score -= 0.2
		}
	case model.PatternTypeURL:
		if !strings.Contains(p.Value, ".") || len(p.Value) <= 5 {
			result.Issues = append(result.Issues, "invalid url format")
			score -= 0.3
		}
	case model.PatternTypeQuantity:
		if qty, err := strconv.Atoi(p.Value); err != nil {
			result.Issues = append(result.Issues, "non-numeric quantity")
			score -= 0.5
		} else if qty <= 0 {
			result.Issues = append(result.Issues, "non-positive quantity")
			score -= 0.5
		} else if qty > 10000 {
			result.Issues = append(result.Issues, "unusually large quantity")
			score -= 0.1
		}
	}

	if score < 0 {
		score = 0
	}
	result.Score = score
	result.Valid = score >= 0.5
	return result
}

// Stats summarizes a candidate sequence for the processor's metadata map.
func (e *PatternExtractor) Stats(patterns []model.ExtractedPattern) map[string]any {
	if len(patterns) == 0 {
		return map[string]any{"total_patterns": 0}
	}
	confidences := make([]float64, len(patterns))
	typeCounts := make(map[string]int)
	for i, p := range patterns {
		confidences[i] = p.Confidence
		typeCounts[string(p.PatternType)]++
	}
	stats := confidenceStats(confidences)
	return map[string]any{
		"total_patterns":           len(patterns),
		"type_counts":              typeCounts,
		"avg_confidence":           stats.avg,
		"max_confidence":           stats.max,
		"min_confidence":           stats.min,
		"high_confidence_patterns": stats.high,
	}
}

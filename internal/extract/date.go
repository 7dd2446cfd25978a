package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/extract-cli/internal/model"
)

// datePattern is one entry in the date-shape rule table: the regex that
// detects the shape, the layouts that resolve it, and the specificity
// bonuses for the flexible and regex-only scoring paths.
type datePattern struct {
	name       string
	re         *regexp.Regexp
	layouts    []string
	flexBonus  float64
	regexBonus float64
}

// datePatterns is evaluated in order; more specific shapes carry larger
// bonuses.
var datePatterns = []datePattern{
	{"iso_date", regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2})\b`), []string{"2006-01-02", "2006-1-2"}, 0.3, 0.25},
	{"us_date", regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`), []string{"1/2/2006", "1/2/06"}, 0.2, 0.15},
	{"us_date_dash", regexp.MustCompile(`\b(\d{1,2}-\d{1,2}-\d{2,4})\b`), []string{"1-2-2006", "1-2-06"}, 0.1, 0.05},
	{"written_date", regexp.MustCompile(`(?i)\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})\b`), []string{"January 2, 2006", "January 2 2006"}, 0.25, 0.2},
	{"short_written", regexp.MustCompile(`(?i)\b((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},?\s+\d{4})\b`), []string{"Jan 2, 2006", "Jan 2 2006"}, 0.2, 0.15},
	{"european", regexp.MustCompile(`\b(\d{1,2}\.\d{1,2}\.\d{4})\b`), []string{"2.1.2006"}, 0.15, 0.1},
	{"timestamp", regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})\b`), []string{"2006-01-02T15:04:05"}, 0.3, 0.25},
}

// dateContextTable maps each date role to its indicator keywords. Order
// matters: role classification returns the first role whose keyword appears.
var dateContextTable = []struct {
	dateType model.DateType
	keywords []string
}{
	{model.DateTypeOrder, []string{"order date", "ordered", "purchased", "bought", "order"}},
	{model.DateTypeShip, []string{"ship date", "shipped", "delivery", "sent", "shipping"}},
	{model.DateTypeDue, []string{"due date", "payment due", "expires", "expiry", "due"}},
	{model.DateTypeInvoice, []string{"invoice date", "billed", "billing date", "invoice"}},
	{model.DateTypeEvent, []string{"event date", "scheduled", "appointment"}},
	{model.DateTypeCreated, []string{"created", "generated", "issued"}},
}

// lineDateWords nudge full-line parsing toward lines that talk about dates.
var lineDateWords = []string{"date", "on", "due", "expires", "scheduled"}

// flexibleLayouts is the layout chain the enhanced resolver tries against
// arbitrary strings, most specific first. US month-day order is preferred,
// matching the documents this pipeline sees.
var flexibleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-1-2",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2.1.2006",
	"01/02/2006",
}

const (
	dateFlexBase     = 0.5
	dateRegexBase    = 0.3
	dateLineBase     = 0.2
	dateRegexCap     = 0.85
	dateContextBoost = 0.1
	dateWindowRadius = 50
	minLineLen       = 6
	maxLineLen       = 100
)

// DateExtractor finds date-shaped substrings, resolves them to calendar
// dates, and classifies their role from nearby keywords. Deduplication is
// by calendar day: two distinct raw matches resolving to the same day
// collapse to the highest-confidence one, whatever their roles.
type DateExtractor struct {
	// enhanced selects the flexible multi-layout resolver; when false, each
	// match is parsed only with the layouts of the pattern that produced it
	// and confidence is capped at 0.85.
	enhanced bool
}

// NewDateExtractor constructs an extractor with the flexible resolver.
func NewDateExtractor() *DateExtractor {
	return &DateExtractor{enhanced: true}
}

// Extract returns date candidates sorted descending by confidence, one per
// calendar day.
func (e *DateExtractor) Extract(text, context string) []model.ExtractedDate {
	var dates []model.ExtractedDate
	if e.enhanced {
		dates = e.extractFlexible(text, context)
	} else {
		dates = e.extractRegex(text, context)
	}

	dates = dedupeDates(dates)
	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].Confidence > dates[j].Confidence
	})

	zap.L().Debug("date: extraction complete", zap.Int("candidates", len(dates)))
	return dates
}

func (e *DateExtractor) extractFlexible(text, context string) []model.ExtractedDate {
	var dates []model.ExtractedDate

	for _, dp := range datePatterns {
		for _, m := range dp.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[2]:m[3]]
			parsed, ok := resolveFlexible(raw)
			if !ok {
				continue
			}
			confidence := e.scoreFlexible(parsed, dp.flexBonus, m[2], text, context)
			dates = append(dates, model.ExtractedDate{
				RawText:        raw,
				ParsedDate:     parsed,
				Confidence:     confidence,
				FormatDetected: dp.name,
				Context:        context,
				DateType:       classifyDate(m[2], text, context),
			})
		}
	}

	// Whole lines not already covered by a pattern match sometimes still
	// carry a parsable date ("Due on January fifth style labels").
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLineLen || len(line) > maxLineLen {
			continue
		}
		if lineCovered(line, dates) {
			continue
		}
		parsed, ok := resolveLine(line)
		if !ok || !isReasonableDate(parsed) {
			continue
		}
		confidence := scoreLine(line, parsed)
		if confidence <= 0.3 {
			continue
		}
		dates = append(dates, model.ExtractedDate{
			RawText:        line,
			ParsedDate:     parsed,
			Confidence:     confidence,
			FormatDetected: "full_line",
			Context:        context,
			DateType:       classifyDate(0, line, context),
		})
	}

	return dates
}

func (e *DateExtractor) extractRegex(text, context string) []model.ExtractedDate {
	var dates []model.ExtractedDate

	for _, dp := range datePatterns {
		for _, m := range dp.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[2]:m[3]]
			parsed, ok := parseLayouts(raw, dp.layouts)
			if !ok {
				continue
			}
			confidence := e.scoreRegex(parsed, dp.regexBonus, m[2], text, context)
			dates = append(dates, model.ExtractedDate{
				RawText:        raw,
				ParsedDate:     parsed,
				Confidence:     confidence,
				FormatDetected: dp.name,
				Context:        context,
				DateType:       classifyDate(m[2], text, context),
			})
		}
	}

	return dates
}

func (e *DateExtractor) scoreFlexible(parsed time.Time, bonus float64, position int, text, context string) float64 {
	confidence := dateFlexBase + bonus
	if isReasonableDate(parsed) {
		confidence += 0.1
	} else {
		confidence -= 0.2
	}
	if hasDateContext(position, text, context) {
		confidence += dateContextBoost
	}
	return model.ClampConfidence(confidence)
}

func (e *DateExtractor) scoreRegex(parsed time.Time, bonus float64, position int, text, context string) float64 {
	confidence := dateRegexBase + bonus
	if isReasonableDate(parsed) {
		confidence += 0.1
	} else {
		confidence -= 0.3
	}
	if hasDateContext(position, text, context) {
		confidence += dateContextBoost
	}
	if confidence > dateRegexCap {
		confidence = dateRegexCap
	}
	return model.ClampConfidence(confidence)
}

func scoreLine(line string, parsed time.Time) float64 {
	confidence := dateLineBase
	if len(line) > 50 {
		confidence -= 0.1
	}
	lower := strings.ToLower(line)
	if hasAnyKeyword(lower, lineDateWords) {
		confidence += 0.2
	}
	if isReasonableDate(parsed) {
		confidence += 0.1
	}
	return model.ClampConfidence(confidence)
}

// resolveFlexible parses a date-shaped string with the full layout chain.
func resolveFlexible(s string) (time.Time, bool) {
	return parseLayouts(s, flexibleLayouts)
}

// resolveLine tries to pull a date out of a whole line: first the line
// itself, then the part after a label separator ("Due: March 5, 2024").
func resolveLine(line string) (time.Time, bool) {
	if t, ok := parseLayouts(line, flexibleLayouts); ok {
		return t, true
	}
	if idx := strings.IndexAny(line, ":"); idx >= 0 && idx < len(line)-1 {
		rest := strings.TrimSpace(line[idx+1:])
		if t, ok := parseLayouts(rest, flexibleLayouts); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseLayouts(s string, layouts []string) (time.Time, bool) {
	s = canonicalizeMonthCase(strings.TrimSpace(s))
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// canonicalizeMonthCase rewrites month tokens ("JANUARY 5, 2024",
// "jan 5 2024") into the capitalization time.Parse expects. Only
// letters-only fields are touched; mixed fields like "2024-01-15T10:30:00"
// pass through unchanged.
func canonicalizeMonthCase(s string) string {
	if s == "" || !hasLetter(s) {
		return s
	}
	fields := strings.Fields(s)
	changed := false
	for i, f := range fields {
		if len(f) >= 3 && lettersOnly(f) {
			fields[i] = strings.ToUpper(f[:1]) + strings.ToLower(f[1:])
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(fields, " ")
}

// lineCovered reports whether any already-extracted raw match came from this
// line, so the full-line pass does not double-report.
func lineCovered(line string, dates []model.ExtractedDate) bool {
	for _, d := range dates {
		if strings.Contains(line, d.RawText) {
			return true
		}
	}
	return false
}

// isReasonableDate bounds accepted years to [1900, current year + 10].
func isReasonableDate(t time.Time) bool {
	year := t.Year()
	return year >= 1900 && year <= time.Now().Year()+10
}

// hasDateContext reports whether the caller context or the window around the
// match mentions any date-role keyword.
func hasDateContext(position int, text, context string) bool {
	full := strings.ToLower(context) + " " + window(text, position, dateWindowRadius)
	for _, entry := range dateContextTable {
		if hasAnyKeyword(full, entry.keywords) {
			return true
		}
	}
	return false
}

// classifyDate returns the first role whose keywords appear in the caller
// context or the window around the match, or "" when none do.
func classifyDate(position int, text, context string) model.DateType {
	full := strings.ToLower(context) + " " + window(text, position, dateWindowRadius)
	for _, entry := range dateContextTable {
		if hasAnyKeyword(full, entry.keywords) {
			return entry.dateType
		}
	}
	return ""
}

// dedupeDates keeps one candidate per calendar day, the highest-confidence
// one. Distinct facts that fall on the same day are intentionally collapsed.
func dedupeDates(dates []model.ExtractedDate) []model.ExtractedDate {
	if len(dates) == 0 {
		return dates
	}
	best := make(map[time.Time]int)
	var order []time.Time
	for i, d := range dates {
		key := d.Day()
		if j, ok := best[key]; ok {
			if d.Confidence > dates[j].Confidence {
				best[key] = i
			}
			continue
		}
		best[key] = i
		order = append(order, key)
	}
	out := make([]model.ExtractedDate, 0, len(order))
	for _, key := range order {
		out = append(out, dates[best[key]])
	}
	return out
}

// Normalize renders a candidate's date in the requested output format:
// "iso", "us", "european", or a custom time layout.
func (e *DateExtractor) Normalize(d model.ExtractedDate, format string) string {
	switch format {
	case "iso", "":
		return d.ParsedDate.Format("2006-01-02")
	case "us":
		return d.ParsedDate.Format("01/02/2006")
	case "european":
		return d.ParsedDate.Format("02.01.2006")
	default:
		return d.ParsedDate.Format(format)
	}
}

// Validate penalizes dates outside the reasonable year range, future dates
// tagged with historical roles, and far-past dates tagged with forward-looking
// roles.
func (e *DateExtractor) Validate(d model.ExtractedDate) model.ValidationResult {
	result := model.ValidationResult{Issues: []string{}}
	now := time.Now()
	score := d.Confidence

	if !isReasonableDate(d.ParsedDate) {
		result.Issues = append(result.Issues, "date outside reasonable range")
		score -= 0.3
	}

	switch d.DateType {
	case model.DateTypeOrder, model.DateTypeInvoice, model.DateTypeCreated:
		if d.ParsedDate.After(now) {
			result.Issues = append(result.Issues, "future date for historical event")
			score -= 0.2
		}
	case model.DateTypeShip, model.DateTypeDue, model.DateTypeEvent:
		if d.ParsedDate.Before(now) && now.Sub(d.ParsedDate) > 365*24*time.Hour {
			result.Issues = append(result.Issues, "very old date for future event")
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
func (e *DateExtractor) Stats(dates []model.ExtractedDate) map[string]any {
	if len(dates) == 0 {
		return map[string]any{"total_dates": 0}
	}
	confidences := make([]float64, len(dates))
	typesSeen := make(map[model.DateType]bool)
	var typesFound []string
	for i, d := range dates {
		confidences[i] = d.Confidence
		if d.DateType != "" && !typesSeen[d.DateType] {
			typesSeen[d.DateType] = true
			typesFound = append(typesFound, string(d.DateType))
		}
	}
	stats := confidenceStats(confidences)
	return map[string]any{
		"total_dates":           len(dates),
		"avg_confidence":        stats.avg,
		"max_confidence":        stats.max,
		"min_confidence":        stats.min,
		"high_confidence_dates": stats.high,
		"date_types_found":      typesFound,
		"extraction_method":     e.method(),
	}
}

func (e *DateExtractor) method() string {
	if e.enhanced {
		return "flexible_parser"
	}
	return "regex_fallback"
}

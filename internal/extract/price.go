package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/extract-cli/internal/model"
)

// pricePatternKind tells the extraction loop how to read a match's groups.
type pricePatternKind int

const (
	kindSymbolAmount pricePatternKind = iota // group 1 symbol, group 2 amount
	kindAmountSymbol                         // group 1 amount, group 2 symbol
	kindAmountCode                           // group 1 amount, group 2 code
	kindCodeAmount                           // group 1 code, group 2 amount
	kindWritten                              // group 1 amount, group 2 written word
	kindBareAmount                           // group 1 amount, currency inferred
	kindPercentage                           // group 1 number, currency PCT
	kindScientific                           // group 1 mantissa, group 2 exponent
)

const amountRe = `\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`

// pricePatterns is evaluated in order. The bonus feeds the regex-only scoring
// path; patterns with an explicit currency marker score higher.
var pricePatterns = []struct {
	name        string
	re          *regexp.Regexp
	kind        pricePatternKind
	hasCurrency bool
	bonus       float64
}{
	{"symbol_amount", regexp.MustCompile(`(CA\$|A\$|NZ\$|HK\$|NT\$|R\$|MX\$|[$€£¥₹₩₽₪₦₫₱฿])\s*(` + amountRe + `)`), kindSymbolAmount, true, 0.3},
	{"amount_symbol", regexp.MustCompile(`\b(` + amountRe + `)\s*(€|£|¥|zł)`), kindAmountSymbol, true, 0.2},
	{"amount_code", regexp.MustCompile(`\b(` + amountRe + `)\s*([A-Z]{3})\b`), kindAmountCode, true, 0.25},
	{"code_amount", regexp.MustCompile(`\b([A-Z]{3})\s*(` + amountRe + `)\b`), kindCodeAmount, true, 0.25},
	{"written_currency", regexp.MustCompile(`(?i)\b(` + amountRe + `)\s*(dollars?|euros?|pounds?|yen|rupees?|francs?|yuan|won|pesos?|reais|real)\b`), kindWritten, true, 0.2},
	{"contextual_decimal", regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})*\.\d{2})\b`), kindBareAmount, false, 0.1},
	{"percentage", regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*%`), kindPercentage, false, 0.1},
	{"scientific", regexp.MustCompile(`\b(\d+(?:\.\d+)?)[eE]([+-]?\d+)\b`), kindScientific, false, 0.05},
}

// priceRoleTable maps price roles to their indicator keywords, checked in
// order against the window around each match. First role with a keyword hit
// wins; "subtotal" still lands on total because "total" is a substring.
var priceRoleTable = []struct {
	priceType model.PriceType
	keywords  []string
}{
	{model.PriceTypeUnitPrice, []string{"price", "cost", "rate", "each", "per unit", "unit cost"}},
	{model.PriceTypeTotal, []string{"total", "amount", "sum", "grand total", "subtotal"}},
	{model.PriceTypeTax, []string{"tax", "vat", "gst", "sales tax", "duty"}},
	{model.PriceTypeDiscount, []string{"discount", "off", "reduction", "savings", "rebate"}},
	{model.PriceTypeShipping, []string{"shipping", "delivery", "freight", "postage"}},
	{model.PriceTypeFee, []string{"fee", "charge", "service charge", "handling"}},
}

// priceContextKeywords boost candidates whose caller context is price-bearing.
var priceContextKeywords = []string{
	"price", "cost", "total", "amount", "pay", "charge", "fee", "bill",
}

const (
	priceParserBase   = 0.6
	priceRegexBase    = 0.4
	priceRegexCap     = 0.85
	priceContextBonus = 0.1
	priceRoleRadius   = 30
	priceInferRadius  = 100
	maxReasonable     = 1_000_000

	// maxScientificExp bounds scientific-notation exponents; anything past
	// it cannot be a monetary amount and the int32 shift would overflow.
	maxScientificExp = 12
)

var twoDecimalRe = regexp.MustCompile(`\d+\.\d{2}$`)

// PriceExtractor finds monetary amounts, resolves their currency, and
// classifies their role. Amounts are exact decimals end to end.
// Deduplication is by (amount, currency): the same value quoted twice in
// different notations collapses to the highest-confidence candidate.
type PriceExtractor struct {
	// enhanced selects the decimal-parser scoring path and ISO code
	// validation; when false, scoring uses the regex path capped at 0.85.
	enhanced bool
	resolver *currencyResolver
}

// NewPriceExtractor constructs an extractor with full decimal parsing and ISO
// currency validation.
func NewPriceExtractor() *PriceExtractor {
	return &PriceExtractor{enhanced: true, resolver: newCurrencyResolver()}
}

// Extract returns price candidates sorted descending by confidence, one per
// (amount, currency) pair.
func (e *PriceExtractor) Extract(text, context string) []model.ExtractedPrice {
	var prices []model.ExtractedPrice
	lowerContext := strings.ToLower(context)

	for _, pp := range pricePatterns {
		for _, m := range pp.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[0]:m[1]]
			amount, currency, ok := e.readMatch(pp.kind, text, m)
			if !ok {
				continue
			}
			if amount.Sign() <= 0 {
				continue
			}
			hasCtx := hasAnyKeyword(lowerContext, priceContextKeywords) ||
				hasAnyKeyword(window(text, m[0], priceRoleRadius), priceContextKeywords)
			if amount.LessThan(decimal.RequireFromString("0.01")) && !hasCtx && currency != PCT {
				continue
			}

			var confidence float64
			if e.enhanced {
				confidence = scorePriceParser(raw, amount, pp.hasCurrency, hasCtx)
			} else {
				confidence = scorePriceRegex(raw, amount, currency, pp.bonus, hasCtx)
			}

			prices = append(prices, model.ExtractedPrice{
				RawText:    raw,
				Amount:     amount,
				Currency:   currency,
				Confidence: confidence,
				Context:    context,
				PriceType:  classifyPrice(m[0], text, lowerContext),
			})
		}
	}

	prices = dedupePrices(prices)
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Confidence > prices[j].Confidence
	})

	zap.L().Debug("price: extraction complete", zap.Int("candidates", len(prices)))
	return prices
}

// readMatch extracts the amount and currency from one regex match according
// to the pattern kind.
func (e *PriceExtractor) readMatch(kind pricePatternKind, text string, m []int) (decimal.Decimal, string, bool) {
	group := func(n int) string {
		if m[2*n] < 0 {
			return ""
		}
		return text[m[2*n]:m[2*n+1]]
	}

	switch kind {
	case kindSymbolAmount:
		amount, err := parseAmount(group(2))
		if err != nil {
			return decimal.Zero, "", false
		}
		return amount, resolveSymbol(group(1)), true
	case kindAmountSymbol:
		amount, err := parseAmount(group(1))
		if err != nil {
			return decimal.Zero, "", false
		}
		return amount, resolveSymbol(group(2)), true
	case kindAmountCode:
		amount, err := parseAmount(group(1))
		if err != nil {
			return decimal.Zero, "", false
		}
		code := group(2)
		if !e.resolver.validCode(code) {
			return decimal.Zero, "", false
		}
		return amount, code, true
	case kindCodeAmount:
		amount, err := parseAmount(group(2))
		if err != nil {
			return decimal.Zero, "", false
		}
		code := group(1)
		if !e.resolver.validCode(code) {
			return decimal.Zero, "", false
		}
		return amount, code, true
	case kindWritten:
		amount, err := parseAmount(group(1))
		if err != nil {
			return decimal.Zero, "", false
		}
		code, ok := resolveWritten(group(2))
		if !ok {
			return decimal.Zero, "", false
		}
		return amount, code, true
	case kindBareAmount:
		amount, err := parseAmount(group(1))
		if err != nil {
			return decimal.Zero, "", false
		}
		return amount, e.resolver.inferCurrency(text, m[0]), true
	case kindPercentage:
		amount, err := parseAmount(group(1))
		if err != nil {
			return decimal.Zero, "", false
		}
		return amount, PCT, true
	case kindScientific:
		base, err := parseAmount(group(1))
		if err != nil {
			return decimal.Zero, "", false
		}
		exp, err := decimal.NewFromString(group(2))
		if err != nil || !exp.IsInteger() {
			return decimal.Zero, "", false
		}
		if exp.Abs().GreaterThan(decimal.NewFromInt(maxScientificExp)) {
			return decimal.Zero, "", false
		}
		return base.Shift(int32(exp.IntPart())), e.resolver.inferCurrency(text, m[0]), true
	}
	return decimal.Zero, "", false
}

// parseAmount parses a numeric string into an exact decimal, stripping
// thousands separators. Trailing zeros in the source are preserved.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return decimal.NewFromString(s)
}

func scorePriceParser(raw string, amount decimal.Decimal, hasCurrency, hasCtx bool) float64 {
	confidence := priceParserBase
	if hasCurrency {
		confidence += 0.2
	}
	if amountReasonable(amount) {
		confidence += 0.1
	} else if amount.GreaterThan(decimal.NewFromInt(maxReasonable)) {
		confidence -= 0.1
	}
	if twoDecimalRe.MatchString(raw) {
		confidence += 0.1
	}
	if hasCtx {
		confidence += priceContextBonus
	}
	return model.ClampConfidence(confidence)
}

func scorePriceRegex(raw string, amount decimal.Decimal, currency string, bonus float64, hasCtx bool) float64 {
	confidence := priceRegexBase + bonus
	if amountReasonable(amount) {
		confidence += 0.1
	} else if amount.GreaterThan(decimal.NewFromInt(maxReasonable)) {
		confidence -= 0.2
	}
	if len(raw) > 3 && digitsOnly(raw) != raw {
		confidence += 0.05
	}
	if majorCurrencies[currency] {
		confidence += 0.05
	}
	if hasCtx {
		confidence += priceContextBonus
	}
	if confidence > priceRegexCap {
		confidence = priceRegexCap
	}
	return model.ClampConfidence(confidence)
}

func amountReasonable(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(decimal.RequireFromString("0.01")) &&
		amount.LessThanOrEqual(decimal.NewFromInt(maxReasonable))
}

// classifyPrice returns the first role whose keywords appear in the window
// around the match or the caller context, or "" when none do.
func classifyPrice(position int, text, lowerContext string) model.PriceType {
	full := lowerContext + " " + window(text, position, priceRoleRadius)
	for _, entry := range priceRoleTable {
		if hasAnyKeyword(full, entry.keywords) {
			return entry.priceType
		}
	}
	return ""
}

// canonicalAmount renders an amount with trailing fractional zeros trimmed,
// so "25.50" and "25.5" share a dedup key.
func canonicalAmount(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// dedupePrices keeps one candidate per (amount, currency), the
// highest-confidence one, in first-seen order before the final sort.
func dedupePrices(prices []model.ExtractedPrice) []model.ExtractedPrice {
	if len(prices) == 0 {
		return prices
	}
	best := make(map[string]int)
	var order []string
	for i, p := range prices {
		key := canonicalAmount(p.Amount) + "|" + p.Currency
		if j, ok := best[key]; ok {
			if p.Confidence > prices[j].Confidence {
				best[key] = i
			}
			continue
		}
		best[key] = i
		order = append(order, key)
	}
	out := make([]model.ExtractedPrice, 0, len(order))
	for _, key := range order {
		out = append(out, prices[best[key]])
	}
	return out
}

// CalculateTotals sums candidate amounts per currency, optionally grouped by
// role first. Sums are exact decimal strings.
func (e *PriceExtractor) CalculateTotals(prices []model.ExtractedPrice, byType bool) map[string]any {
	if !byType {
		byCurrency := make(map[string]string)
		sums := make(map[string]decimal.Decimal)
		var order []string
		for _, p := range prices {
			if p.Currency == PCT {
				continue
			}
			if _, ok := sums[p.Currency]; !ok {
				order = append(order, p.Currency)
			}
			sums[p.Currency] = sums[p.Currency].Add(p.Amount)
		}
		for _, cur := range order {
			byCurrency[cur] = sums[cur].String()
		}
		return map[string]any{"by_currency": byCurrency, "count": len(prices)}
	}

	byType2 := make(map[string]map[string]string)
	sums := make(map[string]map[string]decimal.Decimal)
	for _, p := range prices {
		if p.Currency == PCT {
			continue
		}
		role := string(p.PriceType)
		if role == "" {
			role = "unknown"
		}
		if sums[role] == nil {
			sums[role] = make(map[string]decimal.Decimal)
		}
		sums[role][p.Currency] = sums[role][p.Currency].Add(p.Amount)
	}
	for role, currencies := range sums {
		byType2[role] = make(map[string]string)
		for cur, sum := range currencies {
			byType2[role][cur] = sum.String()
		}
	}
	return map[string]any{"by_type": byType2, "count": len(prices)}
}

// Validate checks a price candidate for plausibility: positive amount, sane
// magnitude, and a recognized currency.
func (e *PriceExtractor) Validate(p model.ExtractedPrice) model.ValidationResult {
	result := model.ValidationResult{Issues: []string{}}
	score := p.Confidence

	if p.Amount.Sign() <= 0 {
		result.Issues = append(result.Issues, "non-positive amount")
		score -= 0.3
	}
	if p.Amount.GreaterThan(decimal.NewFromInt(maxReasonable)) {
		result.Issues = append(result.Issues, "unusually large amount")
		score -= 0.1
	}
	if !e.resolver.validCode(p.Currency) {
		result.Issues = append(result.Issues, "unrecognized currency code")
		score -= 0.2
	}

	if score < 0 {
		score = 0
	}
	result.Score = score
	result.Valid = score >= 0.5
	return result
}

// Stats summarizes a candidate sequence for the processor's metadata map.
func (e *PriceExtractor) Stats(prices []model.ExtractedPrice) map[string]any {
	if len(prices) == 0 {
		return map[string]any{"total_prices": 0}
	}
	confidences := make([]float64, len(prices))
	currencySeen := make(map[string]bool)
	var currencies []string
	typeSeen := make(map[model.PriceType]bool)
	var typesFound []string
	for i, p := range prices {
		confidences[i] = p.Confidence
		if !currencySeen[p.Currency] {
			currencySeen[p.Currency] = true
			currencies = append(currencies, p.Currency)
		}
		if p.PriceType != "" && !typeSeen[p.PriceType] {
			typeSeen[p.PriceType] = true
			typesFound = append(typesFound, string(p.PriceType))
		}
	}
	stats := confidenceStats(confidences)
	return map[string]any{
		"total_prices":           len(prices),
		"avg_confidence":         stats.avg,
		"max_confidence":         stats.max,
		"min_confidence":         stats.min,
		"high_confidence_prices": stats.high,
		"currencies_found":       currencies,
		"price_types_found":      typesFound,
		"extraction_method":      e.method(),
	}
}

func (e *PriceExtractor) method() string {
	if e.enhanced {
		return "decimal_parser"
	}
	return "regex_fallback"
}

package extract

import (
	"strings"

	"github.com/sells-group/extract-cli/internal/model"
)

// documentCategories is the fixed evaluation order for document type
// inference; ties resolve to the earlier category.
var documentCategories = []string{"order", "invoice", "shipping", "receipt", "booking"}

const documentTypeThreshold = 0.3

// crossAnalysis relates candidates across extractors: order groupings,
// shipping signals, a financial summary, and document type inference.
func crossAnalysis(
	addresses []model.ExtractedAddress,
	dates []model.ExtractedDate,
	prices []model.ExtractedPrice,
	patterns []model.ExtractedPattern,
) map[string]any {
	analysis := make(map[string]any)

	orderPatterns := filterPatterns(patterns, model.PatternTypeOrderID)
	orderDates := filterDates(dates, model.DateTypeOrder)
	if len(orderPatterns) > 0 && len(orderDates) > 0 {
		ids := make([]string, len(orderPatterns))
		patternSum := 0.0
		for i, p := range orderPatterns {
			ids[i] = p.Value
			patternSum += p.Confidence
		}
		days := make([]string, len(orderDates))
		dateSum := 0.0
		for i, d := range orderDates {
			days[i] = d.ParsedDate.Format("2006-01-02")
			dateSum += d.Confidence
		}
		confidence := patternSum / float64(len(orderPatterns))
		if dateAvg := dateSum / float64(len(orderDates)); dateAvg < confidence {
			confidence = dateAvg
		}
		analysis["potential_orders"] = map[string]any{
			"order_ids":   ids,
			"order_dates": days,
			"confidence":  confidence,
		}
	}

	shippingAddresses := filterShippingAddresses(addresses)
	shipDates := filterDates(dates, model.DateTypeShip)
	trackingPatterns := filterPatterns(patterns, model.PatternTypeTracking)
	if len(shippingAddresses) > 0 || len(shipDates) > 0 || len(trackingPatterns) > 0 {
		trackingNumbers := make([]string, len(trackingPatterns))
		for i, p := range trackingPatterns {
			trackingNumbers[i] = p.Value
		}
		analysis["shipping_info"] = map[string]any{
			"has_shipping_address": len(shippingAddresses) > 0,
			"has_ship_date":        len(shipDates) > 0,
			"has_tracking":         len(trackingPatterns) > 0,
			"tracking_numbers":     trackingNumbers,
		}
	}

	if len(prices) > 0 {
		analysis["financial_summary"] = financialSummary(prices)
	}

	analysis["document_type"] = inferDocumentType(addresses, dates, prices, patterns)
	return analysis
}

// financialSummary lists total and tax amounts as exact strings plus the
// currency set, in first-seen order.
func financialSummary(prices []model.ExtractedPrice) map[string]any {
	totals := []map[string]string{}
	taxes := []map[string]string{}
	seen := make(map[string]bool)
	var currencies []string

	for _, p := range prices {
		entry := map[string]string{"amount": p.Amount.String(), "currency": p.Currency}
		switch p.PriceType {
		case model.PriceTypeTotal:
			totals = append(totals, entry)
		case model.PriceTypeTax:
			taxes = append(taxes, entry)
		}
		if !seen[p.Currency] {
			seen[p.Currency] = true
			currencies = append(currencies, p.Currency)
		}
	}

	return map[string]any{
		"total_amounts": totals,
		"tax_amounts":   taxes,
		"price_count":   len(prices),
		"currencies":    currencies,
	}
}

// inferDocumentType scores fixed evidence combinations per category and
// returns the best category when its score clears the threshold, otherwise
// "unknown" with zero confidence. Booking is scored but has no evidence
// rules, so it never wins.
func inferDocumentType(
	addresses []model.ExtractedAddress,
	dates []model.ExtractedDate,
	prices []model.ExtractedPrice,
	patterns []model.ExtractedPattern,
) map[string]any {
	scores := map[string]float64{
		"order": 0.0, "invoice": 0.0, "shipping": 0.0,
		"receipt": 0.0, "booking": 0.0, "unknown": 0.0,
	}

	if len(filterPatterns(patterns, model.PatternTypeOrderID)) > 0 {
		scores["order"] += 0.4
	}
	if len(filterDates(dates, model.DateTypeOrder)) > 0 {
		scores["order"] += 0.3
	}
	if len(prices) > 0 {
		scores["order"] += 0.2
	}

	if len(filterPatterns(patterns, model.PatternTypeInvoice)) > 0 {
		scores["invoice"] += 0.4
	}
	if len(filterDates(dates, model.DateTypeInvoice)) > 0 {
		scores["invoice"] += 0.3
	}
	if hasPriceType(prices, model.PriceTypeTotal) {
		scores["invoice"] += 0.3
	}

	if len(filterPatterns(patterns, model.PatternTypeTracking)) > 0 {
		scores["shipping"] += 0.4
	}
	if len(filterDates(dates, model.DateTypeShip)) > 0 {
		scores["shipping"] += 0.3
	}
	if len(filterShippingAddresses(addresses)) > 0 {
		scores["shipping"] += 0.3
	}

	if len(prices) > 2 {
		scores["receipt"] += 0.3
	}
	if hasPriceType(prices, model.PriceTypeTax) {
		scores["receipt"] += 0.2
	}

	mostLikely := "unknown"
	maxScore := 0.0
	for _, category := range documentCategories {
		if scores[category] > maxScore {
			maxScore = scores[category]
			mostLikely = category
		}
	}

	confidence := maxScore
	if maxScore < documentTypeThreshold {
		mostLikely = "unknown"
		confidence = 0.0
	}

	return map[string]any{
		"most_likely": mostLikely,
		"confidence":  confidence,
		"scores":      scores,
	}
}

func filterPatterns(patterns []model.ExtractedPattern, pt model.PatternType) []model.ExtractedPattern {
	var out []model.ExtractedPattern
	for _, p := range patterns {
		if p.PatternType == pt {
			out = append(out, p)
		}
	}
	return out
}

func filterDates(dates []model.ExtractedDate, dt model.DateType) []model.ExtractedDate {
	var out []model.ExtractedDate
	for _, d := range dates {
		if d.DateType == dt {
			out = append(out, d)
		}
	}
	return out
}

// filterShippingAddresses selects addresses whose caller context mentions
// shipping.
func filterShippingAddresses(addresses []model.ExtractedAddress) []model.ExtractedAddress {
	var out []model.ExtractedAddress
	for _, a := range addresses {
		if strings.Contains(strings.ToLower(a.Context), "ship") {
			out = append(out, a)
		}
	}
	return out
}

func hasPriceType(prices []model.ExtractedPrice, pt model.PriceType) bool {
	for _, p := range prices {
		if p.PriceType == pt {
			return true
		}
	}
	return false
}

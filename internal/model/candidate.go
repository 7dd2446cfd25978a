// Package model defines the typed extraction candidates and aggregate results
// produced by the deterministic extraction pipeline.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateType classifies the semantic role of an extracted date.
type DateType string

const (
	DateTypeOrder   DateType = "order"
	DateTypeShip    DateType = "ship"
	DateTypeDue     DateType = "due"
	DateTypeInvoice DateType = "invoice"
	DateTypeEvent   DateType = "event"
	DateTypeCreated DateType = "created"
)

// PriceType classifies the semantic role of an extracted monetary amount.
type PriceType string

const (
	PriceTypeUnitPrice PriceType = "unit_price"
	PriceTypeTotal     PriceType = "total"
	PriceTypeTax       PriceType = "tax"
	PriceTypeDiscount  PriceType = "discount"
	PriceTypeShipping  PriceType = "shipping"
	PriceTypeFee       PriceType = "fee"
)

// PatternType identifies an identifier-style pattern rule set.
type PatternType string

const (
	PatternTypeOrderID    PatternType = "order_id"
	PatternTypeSKU        PatternType = "sku"
	PatternTypeEmail      PatternType = "email"
	PatternTypePhone      PatternType = "phone"
	PatternTypeTracking   PatternType = "tracking"
	PatternTypeInvoice    PatternType = "invoice"
	PatternTypeCustomerID PatternType = "customer_id"
	PatternTypeQuantity   PatternType = "quantity"
	PatternTypeURL        PatternType = "url"
)

// AllPatternTypes returns every registered pattern type in evaluation order.
func AllPatternTypes() []PatternType {
	return []PatternType{
		PatternTypeOrderID,
		PatternTypeSKU,
		PatternTypeEmail,
		PatternTypePhone,
		PatternTypeTracking,
		PatternTypeInvoice,
		PatternTypeCustomerID,
		PatternTypeQuantity,
		PatternTypeURL,
	}
}

// ParsePatternType converts a string into a registered PatternType.
func ParsePatternType(s string) (PatternType, bool) {
	for _, pt := range AllPatternTypes() {
		if string(pt) == s {
			return pt, true
		}
	}
	return "", false
}

// ExtractedAddress is a postal-address candidate found in free text.
type ExtractedAddress struct {
	RawText    string            `json:"raw_text"`
	Confidence float64           `json:"confidence"`
	Components map[string]string `json:"components"`
	Normalized string            `json:"normalized"`
	Context    string            `json:"context,omitempty"`
}

// ExtractedDate is a date candidate resolved to a calendar date.
type ExtractedDate struct {
	RawText        string    `json:"raw_text"`
	ParsedDate     time.Time `json:"parsed_date"`
	Confidence     float64   `json:"confidence"`
	FormatDetected string    `json:"format_detected"`
	Context        string    `json:"context,omitempty"`
	DateType       DateType  `json:"date_type,omitempty"`
}

// Day returns the candidate's calendar day truncated to midnight UTC.
// Two candidates resolving to the same day are considered the same fact.
func (d ExtractedDate) Day() time.Time {
	y, m, day := d.ParsedDate.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// ExtractedPrice is a monetary amount candidate with a resolved currency.
// Amount is an exact decimal; it is never converted through binary floats.
type ExtractedPrice struct {
	RawText    string          `json:"raw_text"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Confidence float64         `json:"confidence"`
	Context    string          `json:"context,omitempty"`
	PriceType  PriceType       `json:"price_type,omitempty"`
}

// ExtractedPattern is an identifier-style token candidate (order id, SKU,
// email, phone, tracking number, ...).
type ExtractedPattern struct {
	RawText     string         `json:"raw_text"`
	PatternType PatternType    `json:"pattern_type"`
	Confidence  float64        `json:"confidence"`
	Value       string         `json:"value"`
	Context     string         `json:"context,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ValidationResult reports how well a single candidate holds up under the
// per-type validation rules.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// ClampConfidence clamps a heuristic score into the [0,1] range every
// candidate must carry.
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

package extract

import (
	"strings"

	xcurrency "golang.org/x/text/currency"
)

// PCT is the sentinel currency for percentage candidates, which carry no
// monetary unit.
const PCT = "PCT"

// currencySymbolTable maps symbols to ISO codes. Multi-character symbols come
// first so "CA$100" resolves to CAD before the bare "$" can claim it.
var currencySymbolTable = []struct {
	symbol string
	code   string
}{
	{"CA$", "CAD"},
	{"A$", "AUD"},
	{"NZ$", "NZD"},
	{"HK$", "HKD"},
	{"NT$", "TWD"},
	{"R$", "BRL"},
	{"MX$", "MXN"},
	{"zł", "PLN"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
	{"₩", "KRW"},
	{"₽", "RUB"},
	{"₪", "ILS"},
	{"₦", "NGN"},
	{"₫", "VND"},
	{"₱", "PHP"},
	{"฿", "THB"},
}

// knownCurrencyCodes is the fallback code set used when ISO validation is
// unavailable. Listed in resolution priority order.
var knownCurrencyCodes = []string{
	"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "INR", "KRW",
	"RUB", "BRL", "MXN", "SEK", "NOK", "DKK", "PLN", "TWD", "HKD", "SGD",
	"NZD", "ZAR", "THB", "PHP", "VND", "ILS", "NGN", "TRY", "CZK", "HUF",
}

// writtenCurrencyTable maps spelled-out currency words to codes.
var writtenCurrencyTable = []struct {
	word string
	code string
}{
	{"dollars", "USD"},
	{"dollar", "USD"},
	{"euros", "EUR"},
	{"euro", "EUR"},
	{"pounds", "GBP"},
	{"pound", "GBP"},
	{"yen", "JPY"},
	{"rupees", "INR"},
	{"rupee", "INR"},
	{"francs", "CHF"},
	{"franc", "CHF"},
	{"yuan", "CNY"},
	{"won", "KRW"},
	{"pesos", "MXN"},
	{"peso", "MXN"},
	{"reais", "BRL"},
	{"real", "BRL"},
}

// regionIndicatorTable maps uppercased region mentions to their currency.
// Checked as substrings of the uppercased window, lowest priority.
var regionIndicatorTable = []struct {
	region string
	code   string
}{
	{"USA", "USD"},
	{"UNITED STATES", "USD"},
	{"AMERICA", "USD"},
	{"US", "USD"},
	{"EUROPE", "EUR"},
	{"EU", "EUR"},
	{"UK", "GBP"},
	{"BRITAIN", "GBP"},
	{"ENGLAND", "GBP"},
	{"JAPAN", "JPY"},
	{"CANADA", "CAD"},
	{"AUSTRALIA", "AUD"},
	{"INDIA", "INR"},
	{"CHINA", "CNY"},
	{"KOREA", "KRW"},
	{"MEXICO", "MXN"},
	{"BRAZIL", "BRL"},
}

var majorCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
}

const defaultCurrency = "USD"

// currencyResolver validates and infers currency codes. The enhanced path
// accepts any well-formed ISO 4217 code; the fallback path only knows the
// static set above.
type currencyResolver struct {
	enhanced bool
}

func newCurrencyResolver() *currencyResolver {
	return &currencyResolver{enhanced: true}
}

// validCode reports whether code names a real currency.
func (r *currencyResolver) validCode(code string) bool {
	if code == PCT {
		return true
	}
	if r.enhanced {
		_, err := xcurrency.ParseISO(code)
		return err == nil
	}
	for _, known := range knownCurrencyCodes {
		if code == known {
			return true
		}
	}
	return false
}

// resolveWritten maps a spelled-out currency word to its code.
func resolveWritten(word string) (string, bool) {
	lower := strings.ToLower(word)
	for _, entry := range writtenCurrencyTable {
		if lower == entry.word {
			return entry.code, true
		}
	}
	return "", false
}

// inferCurrency determines the currency for a bare numeric match from its
// surroundings: explicit codes first, then symbols, then region mentions,
// then the USD default.
func (r *currencyResolver) inferCurrency(text string, position int) string {
	start := position - priceInferRadius
	if start < 0 {
		start = 0
	}
	end := position + priceInferRadius
	if end > len(text) {
		end = len(text)
	}
	surrounding := text[start:end]
	upper := strings.ToUpper(surrounding)

	for _, code := range knownCurrencyCodes {
		if containsWord(strings.ToLower(upper), strings.ToLower(code)) {
			return code
		}
	}
	for _, entry := range currencySymbolTable {
		if strings.Contains(surrounding, entry.symbol) {
			return entry.code
		}
	}
	for _, entry := range regionIndicatorTable {
		if strings.Contains(upper, entry.region) {
			return entry.code
		}
	}
	return defaultCurrency
}

// resolveSymbol maps a matched symbol to its code, falling back to USD for
// anything unrecognized.
func resolveSymbol(symbol string) string {
	for _, entry := range currencySymbolTable {
		if symbol == entry.symbol {
			return entry.code
		}
	}
	return defaultCurrency
}

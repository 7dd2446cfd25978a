package extract

import "strings"

// containsWord checks if text contains needle as a whole word (bounded by
// non-alphanumeric characters or string boundaries). Both text and needle
// should already be lowercased.
func containsWord(text, needle string) bool {
	if needle == "" || text == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		absIdx := start + idx
		endIdx := absIdx + len(needle)

		leftOK := absIdx == 0 || !isAlphaNum(text[absIdx-1])
		rightOK := endIdx == len(text) || !isAlphaNum(text[endIdx])

		if leftOK && rightOK {
			return true
		}
		start = absIdx + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// hasAnyKeyword reports whether any keyword occurs as a substring of text.
// Text should already be lowercased.
func hasAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// window returns the slice of text around position, clamped to the text
// bounds, lowercased. Used for proximity keyword checks.
func window(text string, position, radius int) string {
	start := position - radius
	if start < 0 {
		start = 0
	}
	end := position + radius
	if end > len(text) {
		end = len(text)
	}
	return strings.ToLower(text[start:end])
}

type statsSummary struct {
	avg  float64
	max  float64
	min  float64
	high int
}

// confidenceStats computes the descriptive statistics every extractor
// reports: mean, max, min, and the count of candidates above 0.8.
func confidenceStats(confidences []float64) statsSummary {
	s := statsSummary{min: confidences[0], max: confidences[0]}
	sum := 0.0
	for _, c := range confidences {
		sum += c
		if c > s.max {
			s.max = c
		}
		if c < s.min {
			s.min = c
		}
		if c > 0.8 {
			s.high++
		}
	}
	s.avg = sum / float64(len(confidences))
	return s
}

// hasDigit reports whether s contains at least one ASCII digit.
func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

// hasLetter reports whether s contains at least one ASCII letter.
func hasLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		if (s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z') {
			return true
		}
	}
	return false
}

// lettersOnly reports whether s is non-empty and made entirely of ASCII
// letters.
func lettersOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !(s[i] >= 'a' && s[i] <= 'z') && !(s[i] >= 'A' && s[i] <= 'Z') {
			return false
		}
	}
	return true
}

// digitsOnly strips every non-digit byte from s.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

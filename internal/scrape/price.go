package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceCharset   = regexp.MustCompile(`[^\d.,]`)
	decimalComma   = regexp.MustCompile(`,\d{2}$`)
	currencySymbol = regexp.MustCompile(`(Rs\.?|₹|[$€£])|\b(USD|EUR|GBP|INR|CAD|AUD|MXN|BRL|AED|SAR|SGD|SEK|PLN|JPY|CNY)\b`)
)

// ParsePrice normalizes a locale-dependent raw price string into a
// non-negative number. Rules:
//   - everything except digits, '.' and ',' is stripped;
//   - if both separators are present the right-most one is the decimal
//     separator and the other is removed as a thousands separator;
//   - a lone ',' is the decimal separator only when followed by exactly
//     two trailing digits, otherwise it is a thousands separator.
//
// The second return value is false when no usable number remains.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "NA" || raw == "N/A" {
		return 0, false
	}

	clean := priceCharset.ReplaceAllString(raw, "")
	if clean == "" {
		return 0, false
	}

	dot := strings.LastIndexByte(clean, '.')
	comma := strings.LastIndexByte(clean, ',')

	switch {
	case dot >= 0 && comma >= 0:
		if dot > comma {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.ReplaceAll(clean, ",", ".")
		}
	case comma >= 0:
		if decimalComma.MatchString(clean) {
			clean = strings.ReplaceAll(clean, ",", ".")
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// DetectCurrency pulls a currency marker (symbol, Rs prefix or one of the
// known 3-letter codes) out of raw price text, falling back to def when
// none is found.
func DetectCurrency(raw, def string) string {
	if m := currencySymbol.FindString(raw); m != "" {
		return m
	}
	return def
}

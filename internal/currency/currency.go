// Package currency formats and parses rupee amounts using the Indian
// numbering system.
//
// The Indian convention groups the last three digits together and every
// remaining pair of leading digits from the right, so 1234567 renders as
// "12,34,567". Compact formatting uses the lakh (1e5) and crore (1e7) units.
package currency

import (
	"math"
	"strconv"
	"strings"
)

// Symbol is the rupee glyph prefixed to every formatted amount.
const Symbol = "₹"

// FormatFull renders an amount with Indian digit grouping and the rupee
// glyph. The sign stays outside the glyph. Decimals are shown to two places
// with trailing zeros stripped, and omitted entirely for whole amounts.
//
// Examples:
//
//	FormatFull(0)         -> "₹0"
//	FormatFull(1234567.5) -> "₹12,34,567.5"
//	FormatFull(-500)      -> "-₹500"
func FormatFull(amount float64) string {
	neg := math.Signbit(amount) && amount != 0
	abs := math.Abs(amount)

	s := strconv.FormatFloat(abs, 'f', 2, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")

	out := groupIndian(intPart)
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart != "" {
		out += "." + fracPart
	}

	if neg {
		return "-" + Symbol + out
	}
	return Symbol + out
}

// FormatCompact renders an amount using crore/lakh/thousand suffixes at the
// 1e7/1e5/1e3 thresholds, each rounded to one decimal with a trailing ".0"
// stripped. Amounts below a thousand fall back to FormatFull.
//
// Examples:
//
//	FormatCompact(12000000) -> "₹1.2Cr"
//	FormatCompact(150000)   -> "₹1.5L"
//	FormatCompact(2500)     -> "₹2.5K"
func FormatCompact(amount float64) string {
	neg := math.Signbit(amount) && amount != 0
	abs := math.Abs(amount)

	var scaled float64
	var suffix string
	switch {
	case abs >= 1e7:
		scaled, suffix = abs/1e7, "Cr"
	case abs >= 1e5:
		scaled, suffix = abs/1e5, "L"
	case abs >= 1e3:
		scaled, suffix = abs/1e3, "K"
	default:
		return FormatFull(amount)
	}

	s := strconv.FormatFloat(scaled, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")

	if neg {
		return "-" + Symbol + s + suffix
	}
	return Symbol + s + suffix
}

// Parse reads a display string produced by FormatFull back into a number.
// It strips the rupee glyph, commas, and whitespace before parsing and
// returns 0 for anything that still fails to parse. It never fails.
func Parse(display string) float64 {
	s := strings.ReplaceAll(display, Symbol, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// groupIndian inserts commas into a bare digit string: the last three digits
// form one group, every remaining pair of leading digits another.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

// Package money provides fixed-scale decimal arithmetic and Indonesian
// number formatting shared by all services. Amounts are carried as
// shopspring decimals; binary floats never enter balance math.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round2 rounds an amount to currency scale (2 decimal places).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Sum adds a series of amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// IsNegative reports whether the amount is below zero.
func IsNegative(d decimal.Decimal) bool {
	return d.Sign() < 0
}

// IsPositive reports whether the amount is above zero.
func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// FormatIDR renders an amount as Indonesian Rupiah: "Rp 1.250.000,50".
// Thousands are separated by dots, decimals by a comma.
func FormatIDR(d decimal.Decimal) string {
	return "Rp " + FormatNumber(d)
}

// FormatNumber renders an amount with Indonesian digit grouping and two
// decimal places: "1.250.000,50".
func FormatNumber(d decimal.Decimal) string {
	s := d.Round(2).StringFixed(2)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// ParseIDR parses a formatted Rupiah string ("Rp 1.250.000,50", "1250000,5",
// "1250000.50") back into a decimal. Grouping dots and the Rp prefix are
// optional.
func ParseIDR(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rp")
	s = strings.TrimPrefix(s, "rp")
	s = strings.TrimSpace(s)

	// Indonesian notation uses ',' for decimals and '.' for grouping. A string
	// containing a comma is unambiguous; otherwise treat a single trailing dot
	// group as a decimal point only when it cannot be a thousands separator.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if dots := strings.Count(s, "."); dots == 1 {
		if idx := strings.LastIndex(s, "."); len(s)-idx-1 != 3 {
			// e.g. "1250000.50" — decimal point
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	} else if dots > 1 {
		s = strings.ReplaceAll(s, ".", "")
	}

	return decimal.NewFromString(s)
}

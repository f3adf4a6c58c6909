// Package tax implements the Indonesian tax calculations and the
// service that exposes them: PPN, the withholding PPh variants, the
// progressive annual PPh 21 with PTKP allowances, year-end PPh 29
// settlement and late-filing penalties. Calculations are pure decimal
// arithmetic; rounding to 2 places happens at the handler boundary.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// DefaultPPNRate is the statutory VAT percentage applied when the
	// company has no configured PPN rate.
	DefaultPPNRate = decimal.NewFromInt(11)

	// penaltyRate is the monthly late-payment interest percentage.
	penaltyRate = decimal.NewFromInt(2)
)

// Marital statuses recognized by the PTKP lookup. Anything else falls
// back to the single allowance.
const (
	StatusSingle  = "single"
	StatusMarried = "married"
)

// pph21Brackets holds the annual progressive brackets. A zero upper
// bound means unbounded. An income sitting exactly on a boundary is
// taxed entirely at the lower rate.
var pph21Brackets = []struct {
	upper decimal.Decimal
	rate  decimal.Decimal
}{
	{decimal.NewFromInt(60_000_000), decimal.NewFromInt(5)},
	{decimal.NewFromInt(250_000_000), decimal.NewFromInt(15)},
	{decimal.NewFromInt(500_000_000), decimal.NewFromInt(25)},
	{decimal.Decimal{}, decimal.NewFromInt(30)},
}

// PPN computes value-added tax: base × rate / 100.
func PPN(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// Withholding computes the flat-rate variants (PPh 22, 23, 25):
// amount × rate / 100.
func Withholding(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// PTKP returns the annual non-taxable income allowance for the given
// marital status and dependent count (capped at 3).
func PTKP(maritalStatus string, dependents int) decimal.Decimal {
	if !strings.EqualFold(maritalStatus, StatusMarried) {
		return decimal.NewFromInt(54_000_000)
	}
	switch {
	case dependents <= 0:
		return decimal.NewFromInt(58_500_000)
	case dependents == 1:
		return decimal.NewFromInt(63_000_000)
	case dependents == 2:
		return decimal.NewFromInt(67_500_000)
	default:
		return decimal.NewFromInt(72_000_000)
	}
}

// Progressive applies the PPh 21 bracket table to an annual taxable
// amount. Non-positive taxable yields zero.
func Progressive(taxable decimal.Decimal) decimal.Decimal {
	if taxable.Sign() <= 0 {
		return decimal.Zero
	}

	tax := decimal.Zero
	remaining := taxable
	prevUpper := decimal.Zero
	for _, bracket := range pph21Brackets {
		slice := remaining
		if !bracket.upper.IsZero() {
			width := bracket.upper.Sub(prevUpper)
			if remaining.GreaterThan(width) {
				slice = width
			}
			prevUpper = bracket.upper
		}
		tax = tax.Add(slice.Mul(bracket.rate).Div(hundred))
		remaining = remaining.Sub(slice)
		if remaining.Sign() <= 0 {
			break
		}
	}
	return tax
}

// PPh21Annual computes the annual income tax for a gross annual income:
// progressive tax on max(0, gross − PTKP).
func PPh21Annual(grossAnnual decimal.Decimal, maritalStatus string, dependents int) decimal.Decimal {
	taxable := grossAnnual.Sub(PTKP(maritalStatus, dependents))
	return Progressive(taxable)
}

// PPh29 computes the year-end settlement: annual tax due minus the
// PPh 25 installments already paid, floored at zero (overpayment is
// handled as a refund claim elsewhere, never as negative tax).
func PPh29(annualTaxDue, prepaid decimal.Decimal) decimal.Decimal {
	due := annualTaxDue.Sub(prepaid)
	if due.Sign() < 0 {
		return decimal.Zero
	}
	return due
}

// LatePenalty computes the simple-interest late payment penalty:
// tax × 2% per started 30-day month. No compounding.
func LatePenalty(tax decimal.Decimal, daysLate int) decimal.Decimal {
	if daysLate <= 0 || tax.Sign() <= 0 {
		return decimal.Zero
	}
	months := int64((daysLate + 29) / 30)
	return tax.Mul(penaltyRate).Div(hundred).Mul(decimal.NewFromInt(months))
}

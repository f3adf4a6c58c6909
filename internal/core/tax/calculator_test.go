package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestPPN(t *testing.T) {
	got := PPN(d("1000000"), DefaultPPNRate)
	assert.True(t, got.Equal(d("110000")), "got %s", got)

	zero := PPN(decimal.Zero, DefaultPPNRate)
	assert.True(t, zero.IsZero())
}

func TestWithholding(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"pph23 services", "10000000", "2", "200000"},
		{"pph22 imports", "50000000", "1.5", "750000"},
		{"pph25 installment", "120000000", "0.75", "900000"},
		{"zero amount", "0", "2", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Withholding(d(tt.amount), d(tt.rate))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestPTKP(t *testing.T) {
	tests := []struct {
		status     string
		dependents int
		want       string
	}{
		{"single", 0, "54000000"},
		{"single", 2, "54000000"},
		{"married", 0, "58500000"},
		{"married", 1, "63000000"},
		{"married", 2, "67500000"},
		{"married", 3, "72000000"},
		{"married", 5, "72000000"},
		{"", 0, "54000000"},
		{"divorced", 1, "54000000"},
		{"MARRIED", 1, "63000000"},
	}
	for _, tt := range tests {
		got := PTKP(tt.status, tt.dependents)
		assert.True(t, got.Equal(d(tt.want)),
			"PTKP(%q,%d) = %s, want %s", tt.status, tt.dependents, got, tt.want)
	}
}

func TestProgressive(t *testing.T) {
	tests := []struct {
		name    string
		taxable string
		want    string
	}{
		{"zero", "0", "0"},
		{"negative", "-1000", "0"},
		{"inside first bracket", "50000000", "2500000"},
		{"exact first boundary taxed at lower rate", "60000000", "3000000"},
		{"just over first boundary", "60000001", "3000000.15"},
		{"second bracket", "100000000", "9000000"},
		{"exact second boundary", "250000000", "31500000"},
		{"third bracket", "300000000", "44000000"},
		{"exact third boundary", "500000000", "94000000"},
		{"top bracket", "600000000", "124000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progressive(d(tt.taxable))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestPPh21Annual(t *testing.T) {
	// 120,000,000 gross, single: taxable 66,000,000 →
	// 60M at 5% + 6M at 15% = 3,000,000 + 900,000.
	got := PPh21Annual(d("120000000"), StatusSingle, 0)
	require.True(t, got.Equal(d("3900000")), "got %s", got)

	// Gross below the allowance owes nothing.
	assert.True(t, PPh21Annual(d("40000000"), StatusSingle, 0).IsZero())

	// The married allowance shrinks the taxable base.
	married := PPh21Annual(d("120000000"), StatusMarried, 2)
	require.True(t, married.Equal(d("2625000")), "got %s", married)
}

func TestPPh29ClampsAtZero(t *testing.T) {
	assert.True(t, PPh29(d("5000000"), d("3000000")).Equal(d("2000000")))
	assert.True(t, PPh29(d("3000000"), d("5000000")).IsZero())
	assert.True(t, PPh29(d("3000000"), d("3000000")).IsZero())
}

func TestLatePenalty(t *testing.T) {
	tax := d("10000000")

	tests := []struct {
		name     string
		daysLate int
		want     string
	}{
		{"not late", 0, "0"},
		{"one day counts as a month", 1, "200000"},
		{"exactly one month", 30, "200000"},
		{"one month and a day", 31, "400000"},
		{"three months", 90, "600000"},
		{"91 days rounds to four months", 91, "800000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LatePenalty(tax, tt.daysLate)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}

	assert.True(t, LatePenalty(decimal.Zero, 45).IsZero())
	assert.True(t, LatePenalty(tax, -5).IsZero())
}

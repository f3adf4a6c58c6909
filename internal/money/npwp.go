package money

import "strings"

// NormalizeNPWP strips everything except digits from a taxpayer number.
func NormalizeNPWP(npwp string) string {
	var b strings.Builder
	for _, r := range npwp {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidNPWP reports whether the input reduces to exactly 15 digits, the
// format of an Indonesian taxpayer identification number.
func ValidNPWP(npwp string) bool {
	return len(NormalizeNPWP(npwp)) == 15
}

// FormatNPWP renders a valid NPWP in the conventional grouping
// XX.XXX.XXX.X-XXX.XXX. Invalid input is returned unchanged.
func FormatNPWP(npwp string) string {
	d := NormalizeNPWP(npwp)
	if len(d) != 15 {
		return npwp
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "." + d[8:9] + "-" + d[9:12] + "." + d[12:15]
}

// ValidPhone reports whether the input is a plausible Indonesian phone
// number. Accepts +62, 62 or 0 prefixes; the remaining subscriber part must
// be 9 to 12 digits.
func ValidPhone(phone string) bool {
	d := NormalizeNPWP(strings.TrimPrefix(strings.TrimSpace(phone), "+"))
	switch {
	case strings.HasPrefix(d, "62"):
		d = d[2:]
	case strings.HasPrefix(d, "0"):
		d = d[1:]
	default:
		return false
	}
	return len(d) >= 9 && len(d) <= 12
}

package promo

import "strings"

// ConvertUOM converts qty between two unit labels using the bidirectional
// factor table. Unit comparison is case-insensitive. When source and target
// are equal, or either is absent, qty is returned unchanged. The second
// return reports whether a conversion was possible; on false the original
// quantity is returned so callers can degrade instead of failing.
func ConvertUOM(qty float64, from, to string, factors []UnitPerCase) (float64, bool) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" || strings.EqualFold(from, to) {
		return qty, true
	}
	for _, f := range factors {
		if f.Numerator <= 0 || f.Denominator <= 0 {
			continue
		}
		if strings.EqualFold(f.BUOM, from) && strings.EqualFold(f.AUOM, to) {
			return qty * f.Denominator / f.Numerator, true
		}
		if strings.EqualFold(f.AUOM, from) && strings.EqualFold(f.BUOM, to) {
			return qty * f.Numerator / f.Denominator, true
		}
	}
	return qty, false
}

package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders an amount for display: grouped integers with a won suffix
// for KRW, a dollar prefix with two decimals for USD.
func Format(a Amount) string {
	switch a.Currency {
	case USD:
		minor := a.Minor
		sign := ""
		if minor < 0 {
			sign = "-"
			minor = -minor
		}
		return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(minor/100), minor%100)
	default:
		minor := a.Minor
		sign := ""
		if minor < 0 {
			sign = "-"
			minor = -minor
		}
		return sign + groupThousands(minor) + "원"
	}
}

func groupThousands(v int64) string {
	digits := strconv.FormatInt(v, 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

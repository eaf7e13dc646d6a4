package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Currency identifies the two currencies the tool handles.
type Currency string

const (
	// KRW is Korean won; the minor unit is one won.
	KRW Currency = "KRW"
	// USD is US dollars; the minor unit is one cent.
	USD Currency = "USD"
)

// Amount is a monetary value stored in minor units of its currency.
type Amount struct {
	Minor    int64
	Currency Currency
}

// NewAmount converts a major-unit value into an Amount.
func NewAmount(value float64, currency Currency) Amount {
	if currency == USD {
		return Amount{Minor: int64(math.Round(value * 100)), Currency: USD}
	}
	return Amount{Minor: int64(math.Round(value)), Currency: KRW}
}

// LineKind names one optional price reduction.
type LineKind string

const (
	LineDiscountCode LineKind = "discount_code"
	LineStoreCoupon  LineKind = "store_coupon"
	LineCoin         LineKind = "coin"
	LineCardDiscount LineKind = "card_discount"
)

// applyOrder is the fixed order discounts are subtracted in.
var applyOrder = []LineKind{LineDiscountCode, LineStoreCoupon, LineCoin, LineCardDiscount}

// CoinMode selects how the coin line value is interpreted.
type CoinMode string

const (
	// CoinModeRate treats the coin value as a percentage of the base price.
	CoinModeRate CoinMode = "rate"
	// CoinModeAmount treats the coin value as a flat currency amount.
	CoinModeAmount CoinMode = "amount"
)

// Rounding is the granularity applied to percentage-based coin discounts.
// A single policy is configured once and used everywhere.
type Rounding int

const (
	// RoundNone rounds only to the nearest minor unit.
	RoundNone Rounding = iota
	// RoundUnit rounds to the nearest whole currency unit.
	RoundUnit
	// RoundTen rounds to the nearest ten minor units.
	RoundTen
)

// ParseRounding maps a config string onto a Rounding policy.
func ParseRounding(value string) Rounding {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "unit":
		return RoundUnit
	case "ten":
		return RoundTen
	default:
		return RoundNone
	}
}

// Line is one raw discount entry as entered by the operator.
type Line struct {
	Kind  LineKind
	Code  string
	Value float64
}

// Applied is a discount line that was actually subtracted.
type Applied struct {
	Kind       LineKind
	Code       string
	Subtracted Amount
	Display    string
}

// Result is the outcome of resolving a base price against its discounts.
type Result struct {
	Base    Amount
	Applied []Applied
	Final   Amount
}

// ParseAmount extracts a numeric value from a loosely formatted price string.
// Empty or unparseable input degrades to zero; the resolver never errors.
func ParseAmount(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	var b strings.Builder
	for _, r := range trimmed {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	parsed, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return parsed
}

// ClassifyCurrency infers a currency from a raw price string. Values without
// a currency marker fall back to a magnitude heuristic: amounts under 1000
// are assumed to be dollars. This is a compatibility shim for spreadsheet
// rows that carry no explicit currency; API inputs state theirs explicitly.
func ClassifyCurrency(raw string, parsed float64) Currency {
	if strings.Contains(raw, "원") || strings.Contains(raw, "₩") {
		return KRW
	}
	if strings.Contains(raw, "$") {
		return USD
	}
	if parsed > 0 && parsed < 1000 {
		return USD
	}
	return KRW
}

// ParseMoney combines ParseAmount and ClassifyCurrency for raw sheet strings.
func ParseMoney(raw string) Amount {
	parsed := ParseAmount(raw)
	return NewAmount(parsed, ClassifyCurrency(raw, parsed))
}

// Compute resolves the final price for a base amount and its discount lines.
// Lines are applied in a fixed order (discount code, store coupon, coin,
// card); lines with an empty code are skipped except the coin line, which has
// no code and applies whenever its value is non-zero. The final price is
// clamped at zero. Applied amounts are displayed in the base currency.
func Compute(base Amount, lines []Line, coinMode CoinMode, rounding Rounding) Result {
	final := base.Minor
	applied := make([]Applied, 0, len(lines))

	for _, kind := range applyOrder {
		for _, line := range lines {
			if line.Kind != kind {
				continue
			}
			sub, ok := resolveLine(base, line, coinMode, rounding)
			if !ok {
				continue
			}
			final -= sub.Minor
			applied = append(applied, Applied{
				Kind:       line.Kind,
				Code:       strings.TrimSpace(line.Code),
				Subtracted: sub,
				Display:    "-" + Format(sub),
			})
		}
	}

	if final < 0 {
		final = 0
	}
	return Result{
		Base:    base,
		Applied: applied,
		Final:   Amount{Minor: final, Currency: base.Currency},
	}
}

func resolveLine(base Amount, line Line, coinMode CoinMode, rounding Rounding) (Amount, bool) {
	if line.Kind == LineCoin {
		if line.Value == 0 {
			return Amount{}, false
		}
		if coinMode == CoinModeRate {
			minor := roundMinor(float64(base.Minor)*line.Value/100, base.Currency, rounding)
			return Amount{Minor: minor, Currency: base.Currency}, true
		}
		return Amount{Minor: NewAmount(line.Value, base.Currency).Minor, Currency: base.Currency}, true
	}
	if strings.TrimSpace(line.Code) == "" {
		return Amount{}, false
	}
	return Amount{Minor: NewAmount(line.Value, base.Currency).Minor, Currency: base.Currency}, true
}

func roundMinor(minor float64, currency Currency, rounding Rounding) int64 {
	switch rounding {
	case RoundUnit:
		unit := 1.0
		if currency == USD {
			unit = 100
		}
		return int64(math.Round(minor/unit) * unit)
	case RoundTen:
		return int64(math.Round(minor/10) * 10)
	default:
		return int64(math.Round(minor))
	}
}

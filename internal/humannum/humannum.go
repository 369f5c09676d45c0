// Package humannum parses budget text typed with magnitude shorthand such as
// "1.5m" or "10k".
package humannum

import (
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var pattern = regexp.MustCompile(`^([\d.]+)\s*([kmb])?$`)

var multipliers = map[string]decimal.Decimal{
	"k": decimal.NewFromInt(1_000),
	"m": decimal.NewFromInt(1_000_000),
	"b": decimal.NewFromInt(1_000_000_000),
}

// Result is the display text to keep in the input box and its numeric value.
type Result struct {
	Display string
	Value   decimal.Decimal
}

// Float returns Value as a float64.
func (r Result) Float() float64 {
	return r.Value.InexactFloat64()
}

// Parse interprets one keystroke worth of input. Input without a suffix is
// echoed back as typed so in-progress numbers are not reformatted; input that
// does not match at all is returned verbatim with a zero value.
func Parse(input string) Result {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(input), ",", ""))

	m := pattern.FindStringSubmatch(cleaned)
	if m == nil {
		return Result{Display: input, Value: decimal.Zero}
	}

	number, err := decimal.NewFromString(m[1])
	if err != nil {
		return Result{Display: input, Value: decimal.Zero}
	}

	suffix := m[2]
	if suffix == "" {
		return Result{Display: m[1], Value: number}
	}

	value := number.Mul(multipliers[suffix])
	return Result{Display: Format(value), Value: value}
}

// Format renders v with thousands separators and at most three fraction
// digits, e.g. 1500000 -> "1,500,000", 1234.5 -> "1,234.5".
func Format(v decimal.Decimal) string {
	rounded := v.Round(3)
	whole := rounded.Truncate(0)

	out := humanize.BigComma(whole.BigInt())
	if rounded.IsNegative() && whole.IsZero() {
		out = "-" + out
	}

	frac := rounded.Sub(whole).Abs()
	if !frac.IsZero() {
		// frac.String() is "0.xyz"
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

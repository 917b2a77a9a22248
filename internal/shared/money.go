package shared

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary value kept at full precision.
type Money = decimal.Decimal

// currencyTokens are stripped before a loose amount is parsed.
var currencyTokens = []string{"R$", "BRL", "US$", "USD", "EUR", "€", "$"}

// Round2 rounds half away from zero to cents.
func Round2(m Money) Money {
	return m.Round(2)
}

// AddMoney adds and rounds to cents.
func AddMoney(a, b Money) Money {
	return Round2(a.Add(b))
}

// SubMoney subtracts and rounds to cents.
func SubMoney(a, b Money) Money {
	return Round2(a.Sub(b))
}

// ClampZero returns zero for negative amounts.
func ClampZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// ParseAmount converts a loosely typed value into Money.
//
// Strings may carry currency symbols, whitespace and thousands separators in
// either convention. When both '.' and ',' appear, whichever comes last is the
// decimal separator; a lone ',' is always a decimal separator. Anything else
// that is not a number reports false.
func ParseAmount(v any) (Money, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		return ParseAmount(float64(val))
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case uint32:
		return decimal.NewFromInt(int64(val)), true
	case json.Number:
		return parseAmountString(val.String())
	case string:
		return parseAmountString(val)
	case driver.Valuer:
		// pgtype.Numeric and friends as returned by pgx.RowToMap.
		inner, err := val.Value()
		if err != nil {
			return decimal.Zero, false
		}
		if _, again := inner.(driver.Valuer); again {
			return decimal.Zero, false
		}
		return ParseAmount(inner)
	case fmt.Stringer:
		return parseAmountString(val.String())
	default:
		return decimal.Zero, false
	}
}

// AmountOrZero is ParseAmount with failures folded into zero.
func AmountOrZero(v any) Money {
	m, ok := ParseAmount(v)
	if !ok {
		return decimal.Zero
	}
	return m
}

func parseAmountString(raw string) (Money, bool) {
	s := raw
	for _, token := range currencyTokens {
		s = strings.ReplaceAll(s, token, "")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastDot >= 0 && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	m, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return m, true
}

// FormatMoney renders a value with two decimals and a dot separator.
func FormatMoney(m Money) string {
	return Round2(m).StringFixed(2)
}

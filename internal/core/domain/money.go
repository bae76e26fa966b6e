package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const minorUnitsExp = 2

// MaxPriceMinor caps a unit price at 100,000,000.00 so that no cart
// within [MaxQuantity] and [MaxLineItems] can overflow its total.
const MaxPriceMinor int64 = 100_000_000_00

var maxPrice = decimal.New(MaxPriceMinor, -minorUnitsExp)

// A Currency is fixed for the whole storefront.
type Currency struct {
	Code   string
	Symbol string
}

var PHP = Currency{Code: "PHP", Symbol: "₱"}

// A Money is an amount in minor units (centavos for PHP).
type Money struct {
	Minor    int64
	Currency Currency
}

func Zero(c Currency) Money {
	return Money{Currency: c}
}

// ParseMoney parses a storefront price like "₱1,234.56".
//
// The currency symbol and all grouping separators are stripped,
// the rest is read as a decimal and rounded half-up to minor units.
func ParseMoney(s string, c Currency) (Money, error) {
	const op = "domain.ParseMoney"

	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, c.Symbol)
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Money{}, fmt.Errorf("%s: %q: %w", op, s, ErrInvalidPrice)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, fmt.Errorf("%s: %q: %w", op, s, ErrInvalidPrice)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%s: %q is negative: %w", op, s, ErrInvalidPrice)
	}
	if d.GreaterThan(maxPrice) {
		return Money{}, fmt.Errorf("%s: %q is above the limit: %w", op, s, ErrInvalidPrice)
	}

	minor := d.Round(minorUnitsExp).Shift(minorUnitsExp).IntPart()
	return Money{Minor: minor, Currency: c}, nil
}

func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor, Currency: m.Currency}
}

func (m Money) Mul(n int) Money {
	return Money{Minor: m.Minor * int64(n), Currency: m.Currency}
}

// Valid reports whether m is a price a cart accepts.
func (m Money) Valid() bool {
	return m.Minor >= 0 && m.Minor <= MaxPriceMinor
}

func (m Money) IsZero() bool {
	return m.Minor == 0
}

// Decimal returns the amount without symbol and grouping, e.g. "1234.56".
func (m Money) Decimal() string {
	return decimal.New(m.Minor, -minorUnitsExp).StringFixed(minorUnitsExp)
}

// String formats the amount the way the storefront prints prices: "₱1,234.56".
func (m Money) String() string {
	minor := m.Minor
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := strconv.FormatInt(minor/100, 10)
	frac := minor % 100
	return fmt.Sprintf("%s%s%s.%02d", sign, m.Currency.Symbol, group(whole), frac)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

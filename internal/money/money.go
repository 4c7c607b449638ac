package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units (e.g. cents).
type Money = int64

// ErrInvalidAmount is returned when a payload carries a malformed amount.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// ParseDecimal converts a decimal string ("10.00") into minor units using
// round-half-even at two decimal places.
func ParseDecimal(value string) (Money, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.RoundBank(2).Shift(2).IntPart(), nil
}

// Format renders minor units as a fixed two-decimal string.
func Format(m Money) string {
	return decimal.New(m, -2).StringFixed(2)
}

// FormatPtr renders an optional amount, returning nil for nil input.
func FormatPtr(m *Money) *string {
	if m == nil {
		return nil
	}
	s := Format(*m)
	return &s
}

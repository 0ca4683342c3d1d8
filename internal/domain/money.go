package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in cents. The backend sends prices either as JSON
// numbers or as decimal strings ("19.99"); both decode to the same value.
type Money int64

// ParseMoney parses a decimal amount such as "19.99", "20" or "-3.5".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse money: empty amount")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse money %q: not a finite number", s)
	}
	return Money(math.Round(f * 100)), nil
}

// Cents returns the raw amount in cents.
func (m Money) Cents() int64 { return int64(m) }

// Mul multiplies a unit price by a quantity.
func (m Money) Mul(qty int) Money { return m * Money(qty) }

// String formats the amount with two decimals, e.g. "19.99".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a number, a decimal string or null (zero).
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode money: %w", err)
		}
		v, err := ParseMoney(s)
		if err != nil {
			return err
		}
		*m = v
		return nil
	}
	v, err := ParseMoney(string(data))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UnmarshalText lets configuration loaders read amounts like "10.00".
func (m *Money) UnmarshalText(text []byte) error {
	v, err := ParseMoney(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

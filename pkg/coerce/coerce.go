// Package coerce turns loosely typed numeric input from spreadsheets and
// client payloads into decimals. Values that cannot be read as a number
// become zero instead of failing the surrounding batch.
package coerce

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a JSON value that may arrive as a number, a numeric string,
// an empty string, null or garbage.
type Number struct {
	value decimal.Decimal
	valid bool
}

// NewNumber wraps an already parsed decimal.
func NewNumber(d decimal.Decimal) Number {
	return Number{value: d, valid: true}
}

// Decimal returns the parsed value, or zero when the input was not numeric.
func (n Number) Decimal() decimal.Decimal {
	if !n.valid {
		return decimal.Zero
	}
	return n.value
}

// Int truncates toward zero.
func (n Number) Int() int {
	return int(n.Decimal().IntPart())
}

// Valid reports whether a numeric value was read.
func (n Number) Valid() bool {
	return n.valid
}

// Supplied reports whether the value should overwrite an existing one during
// a merge: it must be numeric and non-zero.
func (n Number) Supplied() bool {
	return n.valid && !n.value.IsZero()
}

// Or returns the parsed value when supplied, otherwise fallback.
func (n Number) Or(fallback decimal.Decimal) decimal.Decimal {
	if n.Supplied() {
		return n.value
	}
	return fallback
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = Number{}
			return nil
		}
		*n = Parse(s)
		return nil
	}
	*n = Parse(string(data))
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal().String()), nil
}

// Parse reads the longest numeric prefix of s, so "12.5 BDT" yields 12.5 and
// "abc" yields an invalid Number. Thousands separators are dropped first.
func Parse(s string) Number {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	prefix := numericPrefix(s)
	if prefix == "" {
		return Number{}
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return Number{}
	}
	return Number{value: d, valid: true}
}

// Decimal is shorthand for Parse(s).Decimal().
func Decimal(s string) decimal.Decimal {
	return Parse(s).Decimal()
}

func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if frac > 0 {
			i = j
			digits += frac
		} else if digits > 0 {
			// "12." reads as 12
			return strings.TrimPrefix(s[:i], "+")
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return strings.TrimPrefix(s[:i], "+")
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Package money provides exact currency arithmetic on minor-unit integers.
// Amounts never pass through binary floating point: values cross the API
// boundary either as a minor-unit integer or as a fixed-point decimal string.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a currency value in minor units (e.g. cents). Arithmetic on
// Amount is plain int64 arithmetic and therefore exact.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// MinorUnitsPerMajor is the scale between major and minor units.
const MinorUnitsPerMajor = 100

// Parse converts a wire representation into an Amount. Accepted forms are a
// minor-unit integer ("700000") and a fixed-point decimal with at most two
// fraction digits ("7000.00", "7000.5"). Anything else is rejected.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		if len(fracPart) == 0 || len(fracPart) > 2 {
			return 0, fmt.Errorf("invalid amount %q: at most two fraction digits", s)
		}
	}

	major, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var v int64
	if fracPart == "" {
		// No decimal point: the value is already in minor units.
		v = major
	} else {
		for len(fracPart) < 2 {
			fracPart += "0"
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		v = major*MinorUnitsPerMajor + frac
	}

	if neg {
		v = -v
	}
	return Amount(v), nil
}

// String renders the amount as a fixed-point decimal in major units.
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/MinorUnitsPerMajor, v%MinorUnitsPerMajor)
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

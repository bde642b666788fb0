// Common money value object and decimal-amount parsing used across modules.
package types

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Money struct {
	Amount   int64 // cents
	Currency string
}

var ErrBadAmount = errors.New("amount is not a valid decimal number")

// ParseAmount converts a decimal string such as "15", "15.5" or "15.50"
// into cents, rounding half-up at the third fractional digit. Empty or
// non-numeric input returns ErrBadAmount.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, ErrBadAmount
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	// Accumulation must leave room for the *100 below; anything larger
	// is garbage input, not a price.
	const maxParseCents = math.MaxInt64/100 - 1

	var cents int64
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return 0, ErrBadAmount
		}
		cents = cents*10 + int64(c-'0')
		if cents > maxParseCents {
			return 0, ErrBadAmount
		}
	}
	cents *= 100

	frac := int64(0)
	for i, c := range fracPart {
		if c < '0' || c > '9' {
			return 0, ErrBadAmount
		}
		switch i {
		case 0:
			frac += int64(c-'0') * 10
		case 1:
			frac += int64(c - '0')
		case 2:
			// half-up on the third digit, everything past it is dropped
			if c >= '5' {
				frac++
			}
		}
	}
	cents += frac
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatAmount renders cents as a two-digit decimal string ("1500" -> "15.00").
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

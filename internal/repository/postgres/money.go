package postgres

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Amounts are stored as NUMERIC(12,2) in Postgres and as integer cents in the
// domain. Conversion is done on strings to keep float rounding out of money.

func numericStringToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty numeric value")
	}

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}

	frac, err := parseFraction(fracPart)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}

	cents := whole*100 + frac
	if neg {
		cents = -cents
	}
	return cents, nil
}

// parseFraction turns the digits after the decimal point into cents, rounding
// half away from zero on the third digit.
func parseFraction(fracPart string) (int64, error) {
	if fracPart == "" {
		return 0, nil
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid fraction %q", fracPart)
		}
	}

	padded := fracPart
	for len(padded) < 3 {
		padded += "0"
	}

	frac, err := strconv.ParseInt(padded[:2], 10, 64)
	if err != nil {
		return 0, err
	}
	if padded[2] >= '5' {
		frac++
	}
	return frac, nil
}

func centsToNumericString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Package quantity parses user-supplied decimal quantities. Household users
// type amounts both ways ("0.5" and "0,5"), so the comma is accepted as a
// fractional separator and normalized before parsing.
package quantity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a decimal string to a decimal.Decimal. Both "." and "," are
// accepted as the fractional separator and parse identically.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("quantity is required")
	}
	normalized := strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q", s)
	}
	return d, nil
}

// ParsePositive parses like Parse and additionally rejects values <= 0.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("quantity must be positive, got %s", d)
	}
	return d, nil
}

// ParseOptional parses a nullable quantity field. Empty input yields (nil, nil).
func ParseOptional(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

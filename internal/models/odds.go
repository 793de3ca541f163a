package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// ParseOdds parses decimal ("6.5") or fractional ("11/2") odds into decimal odds.
func ParseOdds(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty price", ErrInvalidOdds)
	}

	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidOdds, raw, err)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil || !d.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: %q has bad denominator", ErrInvalidOdds, raw)
		}
		if !n.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: %q has bad numerator", ErrInvalidOdds, raw)
		}
		return n.Div(d).Add(one), nil
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidOdds, raw, err)
	}
	if price.LessThanOrEqual(one) {
		return decimal.Zero, fmt.Errorf("%w: decimal odds %s must exceed 1", ErrInvalidOdds, price)
	}
	return price, nil
}

// ImpliedProbability returns 1/price for decimal odds, or 0 for invalid prices.
func ImpliedProbability(price decimal.Decimal) float64 {
	if price.LessThanOrEqual(one) {
		return 0
	}
	p, _ := one.Div(price).Float64()
	return p
}

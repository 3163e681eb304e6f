package estoque

import (
	"math"
	"strconv"
	"strings"
)

// Leftover is what remains after the dispatched quantity left the stock.
// Negative values are not clamped: a negative leftover is itself a
// low-stock signal.
func Leftover(stock, dispatched float64) float64 {
	return stock - dispatched
}

// FinalPosition is the authoritative current-stock figure.
func FinalPosition(leftover, lineQty float64) float64 {
	return leftover + lineQty
}

// Round2 rounds to two decimal places, the precision every persisted
// quantity carries.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsLowStock classifies a quantity against the configured tiers.
func (c Config) IsLowStock(v float64) bool {
	return v <= c.CriticalThreshold || v <= c.LowThreshold
}

// Normalize maps any user-entered quantity onto the persisted range:
// NaN and infinities become 0, the value is clamped to [0, MaxQuantity]
// and rounded to two decimals.
func (c Config) Normalize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		v = 0
	}
	if c.MaxQuantity > 0 && v > c.MaxQuantity {
		v = c.MaxQuantity
	}
	return Round2(v)
}

// ParseQuantity parses a form-style numeric field. Empty or unparseable
// input counts as zero.
func (c Config) ParseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return c.Normalize(v)
}

// NewDetail normalizes one counted line and derives its dependent fields.
func (c Config) NewDetail(name string, line CountLine) CountDetail {
	stock := c.Normalize(line.Stock)
	dispatched := c.Normalize(line.Dispatched)
	lineQty := c.Normalize(line.LineQty)
	leftover := Round2(Leftover(stock, dispatched))
	return CountDetail{
		Name:          name,
		Stock:         stock,
		Dispatched:    dispatched,
		LineQty:       lineQty,
		Leftover:      leftover,
		FinalPosition: Round2(FinalPosition(leftover, lineQty)),
	}
}

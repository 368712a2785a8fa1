package tvl

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Multipliers weights every valued day by a factor keyed by its calendar year.
// Years absent from the table weight 1.
type Multipliers map[int]int64

// DefaultMultipliers is the decaying weighting favoring earlier-held value.
var DefaultMultipliers = Multipliers{
	2018: 5,
	2019: 4,
	2020: 3,
	2021: 2,
}

// Factor returns the multiplier for the given year.
func (m Multipliers) Factor(year int) decimal.Decimal {
	if f, ok := m[year]; ok {
		return decimal.NewFromInt(f)
	}
	return decimal.NewFromInt(1)
}

func (m Multipliers) String() string {
	var b strings.Builder
	for i, y := range slices.Sorted(maps.Keys(m)) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: x%d", y, m[y])
	}
	return b.String()
}

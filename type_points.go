package tvl

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Points is an amount of TVL points: USD-days or NFT-days, weighted by year.
type Points struct {
	value decimal.Decimal
}

// P is a convenient factory for Points.
func P[T float64 | int | int64 | decimal.Decimal](value T) Points {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return Points{value: v}
	case float64:
		return Points{value: decimal.NewFromFloat(v)}
	case int:
		return Points{value: decimal.NewFromInt(int64(v))}
	case int64:
		return Points{value: decimal.NewFromInt(v)}
	default:
		panic("unsupported type")
	}
}

func (p Points) Add(q Points) Points       { return Points{value: p.value.Add(q.value)} }
func (p Points) Sub(q Points) Points       { return Points{value: p.value.Sub(q.value)} }
func (p Points) Equal(q Points) bool       { return p.value.Equal(q.value) }
func (p Points) GreaterThan(q Points) bool { return p.value.GreaterThan(q.value) }
func (p Points) IsPositive() bool          { return p.value.IsPositive() }
func (p Points) IsZero() bool              { return p.value.IsZero() }
func (p Points) Decimal() decimal.Decimal  { return p.value }
func (p Points) String() string            { return p.value.String() }

// USD formats points as USD-days, rounded to the cent.
func (p Points) USD() string {
	cur := money.GetCurrency(money.USD)
	cents := p.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(cents.IntPart())
}

// Fixed formats points rounded to places decimal places.
func (p Points) Fixed(places int32) string { return p.value.StringFixed(places) }

// MarshalJSON implements the json.Marshaler interface.
func (p Points) MarshalJSON() ([]byte, error) { return p.value.MarshalJSON() }

func (p *Points) UnmarshalJSON(decimalBytes []byte) error { return p.value.UnmarshalJSON(decimalBytes) }

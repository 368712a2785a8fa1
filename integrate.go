package tvl

import (
	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// Integrator values a constant balance held over a range of days.
type Integrator struct {
	class       AssetClass
	prices      PriceTable // nil for unpriced classes.
	multipliers Multipliers
}

// NewIntegrator returns an Integrator for class. NFT held units are counted as
// is and prices is ignored. For the priced classes a nil prices has no price
// on any day.
func NewIntegrator(class AssetClass, prices PriceTable, multipliers Multipliers) Integrator {
	if multipliers == nil {
		multipliers = DefaultMultipliers
	}
	return Integrator{class: class, prices: prices, multipliers: multipliers}
}

// Integrate returns the points earned by holding balance base units of asset
// (with decimals) every day of r.
//
// A missing native price is a *MissingPriceError; a missing token price values
// that day at zero. Without a price table, native and token both fail on their
// first valued day.
func (in Integrator) Integrate(balance decimal.Decimal, decimals int32, r date.Range, asset string) (Points, error) {
	total := decimal.Zero
	units := balance.Shift(-decimals)
	for d := range r.Days() {
		value := units
		if in.class != NFT {
			price, err := in.price(asset, d)
			if err != nil {
				return Points{}, err
			}
			value = units.Mul(price)
		}
		total = total.Add(value.Mul(in.multipliers.Factor(d.Year())))
	}
	return Points{value: total}, nil
}

func (in Integrator) price(asset string, on date.Date) (decimal.Decimal, error) {
	if in.prices == nil {
		return decimal.Zero, &MissingPriceError{Asset: asset, On: on}
	}
	if in.class == Native {
		price, ok := in.prices.Price(NativeAsset, on)
		if !ok {
			return decimal.Zero, &MissingPriceError{Asset: NativeAsset, On: on}
		}
		return price, nil
	}
	// no quoted market value that day.
	price, _ := in.prices.Price(asset, on)
	return price, nil
}

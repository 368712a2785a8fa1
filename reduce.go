package tvl

import (
	"iter"

	"github.com/etnz/tvl/date"
)

// DecimalsSource returns the decimals of an entry's base unit.
type DecimalsSource func(Entry) int32

// FixedDecimals ignores the row and always returns n.
func FixedDecimals(n int32) DecimalsSource { return func(Entry) int32 { return n } }

// RowDecimals reads decimals from the row itself.
func RowDecimals(e Entry) int32 { return e.Decimals }

// Options configures a Reducer.
type Options struct {
	Cutoff      date.Date   // end of the observation window (excluded).
	Prices      PriceTable  // required for native and token, ignored for NFT.
	Multipliers Multipliers // defaults to DefaultMultipliers.
	Rebasing    []string    // defaults to DefaultRebasing.
	Decimals    DecimalsSource
}

// Reducer turns one sorted ledger stream into integrated points per
// (account, asset) group.
//
// A Reducer holds no state between rows, the state lives in the Segment passed
// to Step. It is safe for concurrent use.
type Reducer struct {
	class      AssetClass
	cutoff     date.Date
	decimals   DecimalsSource
	sanitizer  Sanitizer
	integrator Integrator
}

// NewReducer returns a Reducer for class.
func NewReducer(class AssetClass, opts Options) *Reducer {
	decimals := opts.Decimals
	if decimals == nil {
		if n, fixed := class.Decimals(); fixed {
			decimals = FixedDecimals(n)
		} else {
			decimals = RowDecimals
		}
	}
	rebasing := opts.Rebasing
	if rebasing == nil {
		rebasing = DefaultRebasing
	}
	prices := opts.Prices
	if class == NFT {
		prices = nil
	}
	return &Reducer{
		class:      class,
		cutoff:     opts.Cutoff,
		decimals:   decimals,
		sanitizer:  NewSanitizer(class, rebasing),
		integrator: NewIntegrator(class, prices, opts.Multipliers),
	}
}

// Class returns the asset class reduced.
func (r *Reducer) Class() AssetClass { return r.class }

// Reduce consumes entries, sorted by account, asset and date, and returns the
// points of every group.
//
// The first error, from the stream or from the integrity checks, aborts the
// run and no partial result is returned.
func (r *Reducer) Reduce(entries iter.Seq2[Entry, error]) (ResultMap, error) {
	result := make(ResultMap)
	var seg Segment
	for e, err := range entries {
		if err != nil {
			return nil, err
		}
		next, flush, err := r.Step(seg, e)
		if err != nil {
			return nil, err
		}
		if flush != nil {
			result.put(*flush)
		}
		seg = next
	}
	flush, err := r.Finish(seg)
	if err != nil {
		return nil, err
	}
	if flush != nil {
		result.put(*flush)
	}
	return result, nil
}

// Entries adapts a slice of entries to the stream consumed by Reduce.
func Entries(entries ...Entry) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

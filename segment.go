package tvl

import (
	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// Segment is the aggregation state of one (account, asset) group while its
// rows are being consumed.
//
// The zero Segment is closed: no group has been seen yet.
type Segment struct {
	Key
	Balance  decimal.Decimal // running balance in base units.
	Decimals int32
	Since    date.Date // date of the last applied row.
	Value    Points    // points accumulated up to Since.

	last Entry // last applied row, for order checks.
	open bool
}

// IsOpen reports whether the segment tracks a group.
func (s Segment) IsOpen() bool { return s.open }

// Flush is the final value of a completed group.
type Flush struct {
	Key
	Value Points
}

// Step applies e to seg and returns the next segment state.
//
// When e starts a new group, the previous one is completed up to the cutoff
// and returned as a Flush. A row breaking the sort order is an *OutOfOrderError.
func (r *Reducer) Step(seg Segment, e Entry) (next Segment, flush *Flush, err error) {
	if !seg.open {
		seg = r.openSegment(e)
	} else {
		switch c := e.Key().compare(seg.Key); {
		case c < 0:
			return seg, nil, &OutOfOrderError{Class: r.class, Previous: seg.last, Current: e}
		case c > 0:
			if flush, err = r.Finish(seg); err != nil {
				return seg, nil, err
			}
			seg = r.openSegment(e)
		default:
			switch e.On.Compare(seg.Since) {
			case -1:
				return seg, nil, &OutOfOrderError{Class: r.class, Previous: seg.last, Current: e}
			case 1:
				if seg, err = r.advance(seg, e); err != nil {
					return seg, nil, err
				}
			}
		}
	}
	seg.Balance = seg.Balance.Add(e.Delta)
	seg.Since = e.On
	seg.last = e
	return seg, flush, nil
}

// Finish completes seg: its balance is held from its last row up to the cutoff.
// The group is valued with its own decimals, never with those of the row that
// follows it. It returns nil for a closed segment.
func (r *Reducer) Finish(seg Segment) (*Flush, error) {
	if !seg.open {
		return nil, nil
	}
	seg, err := r.integrate(seg, seg.Decimals, r.cutoff)
	if err != nil {
		return nil, err
	}
	return &Flush{Key: seg.Key, Value: seg.Value}, nil
}

func (r *Reducer) openSegment(e Entry) Segment {
	return Segment{
		Key:      e.Key(),
		Balance:  decimal.Zero,
		Decimals: r.decimals(e),
		Since:    e.On,
		last:     e,
		open:     true,
	}
}

// advance integrates the balance held from seg.Since to e.On.
func (r *Reducer) advance(seg Segment, e Entry) (Segment, error) {
	seg.Decimals = r.decimals(e)
	return r.integrate(seg, seg.Decimals, e.On)
}

// integrate sanitizes the running balance and accumulates its value until to.
// The sanitized balance replaces the running one.
func (r *Reducer) integrate(seg Segment, decimals int32, to date.Date) (Segment, error) {
	balance, err := r.sanitizer.Sanitize(seg.Account, seg.Balance, seg.Asset, seg.Since)
	if err != nil {
		return seg, err
	}
	value, err := r.integrator.Integrate(balance, decimals, date.Range{From: seg.Since, To: to}, seg.Asset)
	if err != nil {
		return seg, err
	}
	seg.Balance = balance
	seg.Value = seg.Value.Add(value)
	return seg, nil
}

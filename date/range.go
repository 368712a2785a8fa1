package date

import (
	"fmt"
	"iter"
)

// Range represents the half-open range of days [From, To).
//
// A Range whose To is not after From is empty.
type Range struct{ From, To Date }

// Len returns the number of days in the range.
func (r Range) Len() int {
	n := r.To.Sub(r.From)
	if n < 0 {
		return 0
	}
	return n
}

// Contains return true if date is in the range (To excluded).
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && date.Before(r.To) }

// Days returns an iterator over every day of the range in chronological order.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		n := r.Len()
		for i := 0; i < n; i++ {
			if !yield(r.From.Add(i)) {
				return
			}
		}
	}
}

func (r Range) String() string { return fmt.Sprintf("[%s, %s)", r.From, r.To) }

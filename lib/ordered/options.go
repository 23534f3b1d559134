package ordered

import (
	"github.com/ValentinKolb/oKV/lib/ordered/internal"
)

// DefaultPrefetchSize is the number of keys an iterator resolves per round trip
const DefaultPrefetchSize = 16

// Options configures a DB
type Options struct {
	// PrefetchSize is the default number of keys an iterator resolves per round trip
	PrefetchSize int
}

// DefaultOptions returns the default DB options
func DefaultOptions() *Options {
	return &Options{
		PrefetchSize: DefaultPrefetchSize,
	}
}

// IteratorOptions selects the keys an Iterator yields.
//
// Start and End are relative to the direction: ascending they are the lower and the
// upper bound, with Reverse they are the upper and the lower bound. Both are inclusive,
// ExclusiveStart excludes Start.
//
// Gt/Gte and Lt/Lte are absolute bounds. Gt wins over Gte and Lt over Lte. All given
// bounds are intersected, the tighter one wins and on equal keys the exclusive one wins.
// A nil bound is unset, an empty slice is a bound at the empty key.
type IteratorOptions struct {
	Reverse        bool
	Start          []byte
	End            []byte
	ExclusiveStart bool
	Gt             []byte
	Gte            []byte
	Lt             []byte
	Lte            []byte

	// Limit caps the number of yielded keys, values <= 0 mean no limit
	Limit int

	// KeysOnly skips reading values, Iterator.Value returns the zero Value
	KeysOnly bool

	// PrefetchSize overrides Options.PrefetchSize for this iterator when > 0
	PrefetchSize int
}

// tighterLower returns the stricter of two lower bounds
func tighterLower(a, b internal.Bound) internal.Bound {
	switch {
	case !a.Set:
		return b
	case !b.Set:
		return a
	case a.Key > b.Key:
		return a
	case b.Key > a.Key:
		return b
	default:
		return internal.Bound{Key: a.Key, Set: true, Inclusive: a.Inclusive && b.Inclusive}
	}
}

// tighterUpper returns the stricter of two upper bounds
func tighterUpper(a, b internal.Bound) internal.Bound {
	switch {
	case !a.Set:
		return b
	case !b.Set:
		return a
	case a.Key < b.Key:
		return a
	case b.Key < a.Key:
		return b
	default:
		return internal.Bound{Key: a.Key, Set: true, Inclusive: a.Inclusive && b.Inclusive}
	}
}

// bound converts an optional key into a Bound
func bound(key []byte, inclusive bool) internal.Bound {
	if key == nil {
		return internal.Bound{}
	}
	return internal.Bound{Key: string(key), Set: true, Inclusive: inclusive}
}

// keyRange intersects all bounds of the options into one range
func (o IteratorOptions) keyRange() internal.Range {
	start := bound(o.Start, !o.ExclusiveStart)
	end := bound(o.End, true)

	var rng internal.Range
	if o.Reverse {
		rng = internal.Range{Lower: end, Upper: start}
	} else {
		rng = internal.Range{Lower: start, Upper: end}
	}

	// Gt beats Gte, Lt beats Lte
	lower := bound(o.Gte, true)
	if o.Gt != nil {
		lower = bound(o.Gt, false)
	}
	upper := bound(o.Lte, true)
	if o.Lt != nil {
		upper = bound(o.Lt, false)
	}

	rng.Lower = tighterLower(rng.Lower, lower)
	rng.Upper = tighterUpper(rng.Upper, upper)
	return rng
}

package ring

import (
	"fmt"
	"math"
	"math/bits"
)

// RingRanges is the (at most two) id ranges a HashRing currently matches.
// When a single logical range crosses the top of the id space, A is the
// part starting at 0 and B the part ending at MaxID; otherwise A holds the
// whole range and B is EmptyIdRange().
type RingRanges struct {
	A IdRange
	B IdRange
}

// EmptyRingRanges returns a RingRanges matching nothing, the default state
// of a freshly constructed HashRing and of a no-op RangeDiff.
func EmptyRingRanges() RingRanges {
	return RingRanges{A: EmptyIdRange(), B: EmptyIdRange()}
}

// Contains reports whether id falls in either range.
func (r RingRanges) Contains(id uint64) bool {
	return r.A.Contains(id) || r.B.Contains(id)
}

func (r RingRanges) String() string {
	return fmt.Sprintf("{ a = %s, b = %s }", r.A, r.B)
}

// RangeDiffType distinguishes ranges gained (kAdd) from ranges lost (kDel)
// across a HashRing fraction update.
type RangeDiffType int

const (
	RangeDiffAdd RangeDiffType = iota
	RangeDiffDel
)

func (t RangeDiffType) String() string {
	switch t {
	case RangeDiffAdd:
		return "kAdd"
	case RangeDiffDel:
		return "kDel"
	default:
		return "unknown"
	}
}

// RangeDiff is the set of ids that changed membership (gained if Type is
// RangeDiffAdd, lost if RangeDiffDel) across one HashRing update.
type RangeDiff struct {
	Diff RingRanges
	Type RangeDiffType
}

// NoRangeDiff is the diff reported when a fraction update doesn't change
// the matched range at all.
func NoRangeDiff() RangeDiff {
	return RangeDiff{Diff: EmptyRingRanges(), Type: RangeDiffAdd}
}

func (d RangeDiff) String() string {
	return fmt.Sprintf("{ diff = %s, type = %s }", d.Diff, d.Type)
}

// uint128 is a minimal, wraparound (mod 2^128) unsigned integer built out
// of two uint64 limbs, used only for the ring-fraction arithmetic below
// where a plain uint64 would overflow or round.
type uint128 struct {
	hi, lo uint64
}

func u128FromU64(v uint64) uint128 { return uint128{lo: v} }

func (u uint128) add(v uint128) uint128 {
	lo, c := bits.Add64(u.lo, v.lo, 0)
	hi, _ := bits.Add64(u.hi, v.hi, c)
	return uint128{hi: hi, lo: lo}
}

func (u uint128) addU64(v uint64) uint128 { return u.add(u128FromU64(v)) }

func (u uint128) sub(v uint128) uint128 {
	lo, b := bits.Sub64(u.lo, v.lo, 0)
	hi, _ := bits.Sub64(u.hi, v.hi, b)
	return uint128{hi: hi, lo: lo}
}

func (u uint128) subU64(v uint64) uint128 { return u.sub(u128FromU64(v)) }

func mulU64(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{hi: hi, lo: lo}
}

func (u uint128) equal(v uint128) bool { return u.hi == v.hi && u.lo == v.lo }

// kNumChunks divides the id space into 2^32 equal chunks so that fractions
// land on exact chunk boundaries and FracToRing(1.0) lands exactly on the
// top of the space instead of rounding short of it.
const kNumChunks = uint64(1) << 32

// ChunkSize is the number of ids per chunk (also 2^32, since the id space
// is 2^64 wide and split into 2^32 chunks).
const ChunkSize = kNumChunks

// FracToRing returns how many ids frac (clamped conceptually to [0, 1])
// of the ring corresponds to, rounded to the nearest chunk boundary. The
// result can be as large as 2^64 (when frac rounds up to 1.0), so it is
// returned as a 128-bit value.
//
// Exposed for testing.
func FracToRing(frac float64) (hi, lo uint64) {
	matchedChunks := uint64(math.Round(frac * float64(kNumChunks)))
	if matchedChunks == 0 {
		return 0, 0
	}
	r := mulU64(matchedChunks, ChunkSize)
	return r.hi, r.lo
}

func fracToRing128(frac float64) uint128 {
	hi, lo := FracToRing(frac)
	return uint128{hi: hi, lo: lo}
}

// IdSpaceSizeHi and IdSpaceSizeLo are the high and low 64-bit halves of
// the number of distinct ids (2^64), one more than MaxID.
var IdSpaceSizeHi, IdSpaceSizeLo = uint64(1), uint64(0)

// ComputeRangeDiff returns the ids that changed membership when a ring's
// matched range moved from [old_start, old_start+FracToRing(old_frac)) to
// [new_start, new_start+FracToRing(new_frac)).
//
// Exposed for testing.
func ComputeRangeDiff(oldStart uint64, oldFrac float64, newStart uint64, newFrac float64) RangeDiff {
	if oldFrac == newFrac {
		return NoRangeDiff()
	}

	oldEnd := u128FromU64(oldStart).add(fracToRing128(oldFrac)).subU64(1)
	newEnd := u128FromU64(newStart).add(fracToRing128(newFrac)).subU64(1)

	if oldFrac < newFrac {
		newEndLo := newEnd.lo
		oldEndP1 := oldEnd.addU64(1)
		oldEndP1Lo := oldEndP1.lo

		if newEnd.hi != 0 && oldEndP1.hi == 0 {
			// oldEndP1 does not wrap around.
			return RangeDiff{
				Diff: RingRanges{
					A: NewIdRange(0, newEndLo),
					B: NewIdRange(oldEndP1Lo, MaxID),
				},
				Type: RangeDiffAdd,
			}
		}
		// Either both wrap around, or neither does. In either case, use the
		// straightforward diff.
		return RangeDiff{
			Diff: RingRanges{A: NewIdRange(oldEndP1Lo, newEndLo), B: EmptyIdRange()},
			Type: RangeDiffAdd,
		}
	}

	// Shrink the matched space.
	if oldStart < newStart {
		return RangeDiff{
			Diff: RingRanges{A: NewIdRange(oldStart, newStart-1), B: EmptyIdRange()},
			Type: RangeDiffDel,
		}
	} else if newStart == 0 {
		return RangeDiff{
			Diff: RingRanges{A: NewIdRange(oldStart, MaxID), B: EmptyIdRange()},
			Type: RangeDiffDel,
		}
	}
	return RangeDiff{
		Diff: RingRanges{
			A: NewIdRange(0, newStart-1),
			B: NewIdRange(oldStart, MaxID),
		},
		Type: RangeDiffDel,
	}
}

// HashRing tracks a single, moving window of the id space: a start point
// and a fraction of the space beginning at that point. Growing the
// fraction (Add) appends newly matched ids at the end of the window;
// shrinking it (Sub) drops ids from the start, so ids leave in the same
// order they arrived (FIFO) and a drained-then-regrown window never
// re-matches an id it just gave up.
type HashRing struct {
	start uint64
	frac  float64
}

// Add grows the matched fraction by fracDiff (clamped to [0, 1] overall)
// and returns what changed.
func (h *HashRing) Add(fracDiff float64) RangeDiff {
	return h.UpdateFrac(h.frac + fracDiff)
}

// Sub shrinks the matched fraction by fracDiff (clamped to [0, 1] overall)
// and returns what changed.
func (h *HashRing) Sub(fracDiff float64) RangeDiff {
	return h.UpdateFrac(h.frac - fracDiff)
}

// UpdateFrac sets the matched fraction directly (clamped to [0, 1]) and
// returns what changed.
func (h *HashRing) UpdateFrac(frac float64) RangeDiff {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}

	oldStart := h.start
	oldFrac := h.frac

	if h.frac > frac {
		_, lo := FracToRing(h.frac - frac)
		h.start += lo
	}
	h.frac = frac

	return ComputeRangeDiff(oldStart, oldFrac, h.start, h.frac)
}

// MatchingRanges returns the ids currently matched by the ring.
func (h *HashRing) MatchingRanges() RingRanges {
	if h.frac == 0 {
		return EmptyRingRanges()
	}
	end := u128FromU64(h.start).add(fracToRing128(h.frac)).subU64(1)
	if end.hi != 0 {
		return RingRanges{A: NewIdRange(0, end.lo), B: NewIdRange(h.start, MaxID)}
	}
	return RingRanges{A: NewIdRange(h.start, end.lo), B: EmptyIdRange()}
}

func (h *HashRing) String() string {
	return fmt.Sprintf("{ start = %d, frac = %g }", h.start, h.frac)
}

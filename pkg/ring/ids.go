// Package ring implements the consistent-hash ring used to pick a stable
// subset of child flows for LOPRI downgrade, plus the small id-range
// vocabulary it is built from.
package ring

import (
	"fmt"
	"strings"
)

// MaxID is the largest representable id; ids occupy the full uint64 space.
const MaxID = ^uint64(0)

// IdRange is an inclusive [Lo, Hi] range over the id space. The zero value
// is NOT empty (it is the single point [0, 0]); use EmptyIdRange for an
// empty range, matching the default-constructed range upstream.
type IdRange struct {
	Lo uint64 // inclusive
	Hi uint64 // inclusive
}

// NewIdRange returns the inclusive range [lo, hi].
func NewIdRange(lo, hi uint64) IdRange {
	return IdRange{Lo: lo, Hi: hi}
}

// EmptyIdRange returns a range that contains no ids.
func EmptyIdRange() IdRange {
	return IdRange{Lo: 1, Hi: 0}
}

// Contains reports whether id falls within the range.
func (r IdRange) Contains(id uint64) bool {
	return r.Lo <= id && id <= r.Hi
}

// Empty reports whether the range contains no ids (Lo > Hi).
func (r IdRange) Empty() bool {
	return r.Lo > r.Hi
}

func (r IdRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Lo, r.Hi)
}

// UnorderedIds names an unordered set of ids as a union of ranges and
// individual points. It carries no order or dedup guarantee; callers fold
// duplicates as needed.
type UnorderedIds struct {
	Ranges []IdRange
	Points []uint64
}

func (s UnorderedIds) String() string {
	var ranges []string
	for _, r := range s.Ranges {
		ranges = append(ranges, r.String())
	}
	var points []string
	for _, p := range s.Points {
		points = append(points, fmt.Sprintf("%d", p))
	}
	return fmt.Sprintf("{\n  ranges = (%s),\n  points = (%s),\n}",
		strings.Join(ranges, ", "), strings.Join(points, ", "))
}

// Contains reports whether id is named by any range or point in s.
func (s UnorderedIds) Contains(id uint64) bool {
	for _, r := range s.Ranges {
		if r.Contains(id) {
			return true
		}
	}
	for _, p := range s.Points {
		if p == id {
			return true
		}
	}
	return false
}

package proximity

import "sort"

// ViolationSet holds the indices of detections involved in at least one
// proximity violation. Indices refer to positions in the analysed frame.
type ViolationSet map[int]struct{}

// NewViolationSet returns a set containing indices.
func NewViolationSet(indices ...int) ViolationSet {
	s := make(ViolationSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// Contains reports whether index i is flagged. A nil set contains nothing.
func (s ViolationSet) Contains(i int) bool {
	_, ok := s[i]
	return ok
}

// Len returns the number of flagged detections.
func (s ViolationSet) Len() int { return len(s) }

// Sorted returns the flagged indices in ascending order.
func (s ViolationSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Pair is one violating pair with I < J.
type Pair struct {
	I, J     int
	Distance float64
}

func setFromPairs(pairs []Pair) ViolationSet {
	set := make(ViolationSet, 2*len(pairs))
	for _, p := range pairs {
		set[p.I] = struct{}{}
		set[p.J] = struct{}{}
	}
	return set
}

package review

import (
	"fmt"

	"github.com/verte-zerg/rfpick/internal/model"
)

// Selection holds the kept/rejected flag of every trace. All traces start
// kept; Toggle is the only mutator.
type Selection struct {
	kept []bool
}

// NewSelection returns a selection of n kept traces.
func NewSelection(n int) *Selection {
	kept := make([]bool, n)
	for i := range kept {
		kept[i] = true
	}
	return &Selection{kept: kept}
}

// Toggle flips the state of trace index and returns whether it is now kept.
func (s *Selection) Toggle(index int) (bool, error) {
	if index < 0 || index >= len(s.kept) {
		return false, fmt.Errorf("%w: trace %d of %d", model.ErrOutOfRange, index, len(s.kept))
	}
	s.kept[index] = !s.kept[index]
	return s.kept[index], nil
}

// Kept reports whether trace index is kept. Indices outside the selection
// report false.
func (s *Selection) Kept(index int) bool {
	if index < 0 || index >= len(s.kept) {
		return false
	}
	return s.kept[index]
}

// KeptCount returns the number of kept traces.
func (s *Selection) KeptCount() int {
	count := 0
	for _, k := range s.kept {
		if k {
			count++
		}
	}
	return count
}

// Rejected returns the rejected indices in ascending order.
func (s *Selection) Rejected() []int {
	var out []int
	for i, k := range s.kept {
		if !k {
			out = append(out, i)
		}
	}
	return out
}

// Package review implements the trace review session: pagination, the
// kept/rejected selection and the controller that binds user events to them.
package review

import (
	"fmt"

	"github.com/verte-zerg/rfpick/internal/model"
)

// Range is a half-open range of trace indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Pages is the immutable page partition of a trace set.
type Pages struct {
	ranges []Range
}

// Paginate splits n traces into pages holding at most capacity traces each.
func Paginate(n, capacity int) (Pages, error) {
	if n < 1 {
		return Pages{}, fmt.Errorf("%w: trace count %d", model.ErrInvalidInput, n)
	}
	if capacity < 1 {
		return Pages{}, fmt.Errorf("%w: page capacity %d", model.ErrInvalidInput, capacity)
	}
	count := (n + capacity - 1) / capacity
	ranges := make([]Range, count)
	for p := range ranges {
		end := (p + 1) * capacity
		if end > n {
			end = n
		}
		ranges[p] = Range{Start: p * capacity, End: end}
	}
	return Pages{ranges: ranges}, nil
}

// Count returns the number of pages.
func (p Pages) Count() int {
	return len(p.ranges)
}

// Range returns the index range of page.
func (p Pages) Range(page int) (Range, error) {
	if page < 0 || page >= len(p.ranges) {
		return Range{}, fmt.Errorf("%w: page %d of %d", model.ErrOutOfRange, page, len(p.ranges))
	}
	return p.ranges[page], nil
}

// Next returns the cursor after moving forward, clamped to the last page.
func (p Pages) Next(cursor int) int {
	return p.clamp(cursor + 1)
}

// Previous returns the cursor after moving back, clamped to the first page.
func (p Pages) Previous(cursor int) int {
	return p.clamp(cursor - 1)
}

func (p Pages) clamp(cursor int) int {
	if cursor < 0 {
		return 0
	}
	if last := len(p.ranges) - 1; cursor > last {
		return last
	}
	return cursor
}

package traceset

import (
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/rfpick/internal/model"
)

// SortByBackazimuth returns a copy of records in ascending backazimuth order.
// The sort is stable, so ties keep their input order.
func SortByBackazimuth(records []model.Record) ([]model.Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty trace set", model.ErrInvalidInput)
	}
	for _, rec := range records {
		if math.IsNaN(rec.Trace.Backazimuth) {
			return nil, fmt.Errorf("%w: %s has no backazimuth", model.ErrInvalidInput, rec.Identifier)
		}
	}
	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Trace.Backazimuth < sorted[j].Trace.Backazimuth
	})
	return sorted, nil
}

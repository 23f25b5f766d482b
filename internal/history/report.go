// Package history summarizes finalized reviews read from the store.
package history

import (
	"context"

	"github.com/verte-zerg/rfpick/internal/model"
)

// SectorWidth is the backazimuth bin width in degrees.
const SectorWidth = 30

// Report contains precomputed data for history rendering.
type Report struct {
	Reviews []model.ReviewAggregate
	Sectors []model.SectorAggregate
}

// Source reads finalized reviews. *store.Store implements it.
type Source interface {
	ListReviews(ctx context.Context, filter model.HistoryFilter) ([]model.ReviewAggregate, error)
	ListSectorAggregates(ctx context.Context, reviewIDs []int64, width int) ([]model.SectorAggregate, error)
	ListDecisions(ctx context.Context, id int64) ([]model.Decision, error)
}

// BuildReport loads the reviews matching filter and their decisions per
// backazimuth sector.
func BuildReport(ctx context.Context, src Source, filter model.HistoryFilter) (Report, error) {
	reviews, err := src.ListReviews(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	sectors, err := src.ListSectorAggregates(ctx, ReviewIDs(reviews), SectorWidth)
	if err != nil {
		return Report{}, err
	}
	return Report{Reviews: reviews, Sectors: sectors}, nil
}

// Detail is one review with its per-trace decisions in display order.
type Detail struct {
	Review    model.ReviewAggregate
	Decisions []model.Decision
}

// LoadDetail reads the decisions of review.
func LoadDetail(ctx context.Context, src Source, review model.ReviewAggregate) (Detail, error) {
	decisions, err := src.ListDecisions(ctx, review.ID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Review: review, Decisions: decisions}, nil
}

// ReviewIDs returns the store ids of reviews.
func ReviewIDs(reviews []model.ReviewAggregate) []int64 {
	ids := make([]int64, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	return ids
}

// Totals sums trace counts over reviews.
type Totals struct {
	Reviews  int
	Stations int
	Traces   int
	Kept     int
	Rejected int
}

// Summarize returns the totals of reviews.
func Summarize(reviews []model.ReviewAggregate) Totals {
	stations := map[string]struct{}{}
	var t Totals
	for _, r := range reviews {
		stations[r.Station] = struct{}{}
		t.Traces += r.Total
		t.Kept += r.Kept
		t.Rejected += r.Rejected
	}
	t.Reviews = len(reviews)
	t.Stations = len(stations)
	return t
}

// AcceptanceRate returns kept/total in percent, or 0 for an empty review.
func AcceptanceRate(kept, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(kept) / float64(total) * 100
}

// AcceptanceSeries returns the acceptance rate of each review in order.
func AcceptanceSeries(reviews []model.ReviewAggregate) []float64 {
	out := make([]float64, len(reviews))
	for i, r := range reviews {
		out[i] = AcceptanceRate(r.Kept, r.Total)
	}
	return out
}

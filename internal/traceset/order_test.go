package traceset

import (
	"errors"
	"math"
	"testing"

	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/testsupport"
)

func TestSortByBackazimuthScenario(t *testing.T) {
	records := testsupport.Records([]string{"E", "A", "D", "B", "C"}, []float64{300, 10, 200, 10, 50})
	sorted, err := SortByBackazimuth(records)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	wantIDs := []string{"A", "B", "C", "D", "E"}
	wantBaz := []float64{10, 10, 50, 200, 300}
	for i, rec := range sorted {
		if rec.Identifier != wantIDs[i] {
			t.Fatalf("position %d: expected %s, got %s", i, wantIDs[i], rec.Identifier)
		}
		if rec.Trace.Backazimuth != wantBaz[i] {
			t.Fatalf("position %d: expected baz %v, got %v", i, wantBaz[i], rec.Trace.Backazimuth)
		}
	}
	if records[0].Identifier != "E" {
		t.Fatalf("expected input slice to be left untouched")
	}
}

func TestSortByBackazimuthIsStable(t *testing.T) {
	ids := []string{"t0", "t1", "t2", "t3", "t4", "t5"}
	records := testsupport.Records(ids, []float64{90, 45, 90, 45, 90, 45})
	sorted, err := SortByBackazimuth(records)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	want := []string{"t1", "t3", "t5", "t0", "t2", "t4"}
	for i, rec := range sorted {
		if rec.Identifier != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], rec.Identifier)
		}
		if i > 0 && sorted[i-1].Trace.Backazimuth == rec.Trace.Backazimuth &&
			!sorted[i-1].Trace.StartTime.Before(rec.Trace.StartTime) {
			t.Fatalf("tie at %d lost start-time order", i)
		}
	}
}

func TestSortByBackazimuthKeepsPairs(t *testing.T) {
	ids := []string{"2020.001.00.00.00", "2020.002.00.00.00", "2020.003.00.00.00", "2020.004.00.00.00"}
	records := testsupport.Records(ids, []float64{270, 15, 180, 90})
	for i := range records {
		records[i].Trace.EventDepth = float64(i)
	}
	sorted, err := SortByBackazimuth(records)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	for _, rec := range sorted {
		orig := indexOf(ids, rec.Identifier)
		if rec.Filename != ids[orig]+"_R.sac" {
			t.Fatalf("filename %q drifted from identifier %q", rec.Filename, rec.Identifier)
		}
		if rec.Trace.EventDepth != float64(orig) {
			t.Fatalf("trace for %s drifted: depth %v", rec.Identifier, rec.Trace.EventDepth)
		}
	}
}

func TestSortByBackazimuthSingle(t *testing.T) {
	sorted, err := SortByBackazimuth(testsupport.Records([]string{"only"}, []float64{123}))
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if len(sorted) != 1 || sorted[0].Identifier != "only" {
		t.Fatalf("unexpected result %+v", sorted)
	}
}

func TestSortByBackazimuthInvalidInput(t *testing.T) {
	if _, err := SortByBackazimuth(nil); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty set, got %v", err)
	}
	records := testsupport.Records([]string{"a", "b"}, []float64{10, math.NaN()})
	if _, err := SortByBackazimuth(records); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing baz, got %v", err)
	}
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}

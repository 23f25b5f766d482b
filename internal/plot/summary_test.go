package plot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/testsupport"
)

func TestRenderSummaryWritesPostScript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	r := NewSummaryRenderer(model.ReviewConfig{ImagePath: dir, Scale: 7, TimeMin: -2, TimeMax: 80}, nil)
	records := testsupport.Records([]string{"2019.064.04.05.06", "2019.100.01.02.03"}, []float64{45, 270})
	path, err := r.RenderSummary(context.Background(), model.Station{Name: "TST", Lat: 30.5, Lon: 104.25}, records)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if path != filepath.Join(dir, "TST_R.ps") {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%!PS-Adobe")) {
		t.Fatalf("expected PostScript output, got %q", data[:min(len(data), 16)])
	}
}

func TestRenderSummaryRequiresImagePath(t *testing.T) {
	r := NewSummaryRenderer(model.ReviewConfig{Scale: 7, TimeMin: -2, TimeMax: 80}, nil)
	_, err := r.RenderSummary(context.Background(), model.Station{Name: "TST"}, nil)
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWindowedScalesAndClips(t *testing.T) {
	tr := model.Trace{Samples: []float64{0.1, 0.2, -0.1, 0.3}, Begin: -1, Delta: 1}
	pts := windowed(tr, 0, 1, 10, 3)
	if len(pts) != 2 {
		t.Fatalf("expected 2 points in window, got %d", len(pts))
	}
	if pts[0].X != 0 || pts[0].Y != 5 || pts[1].X != 1 || pts[1].Y != 2 {
		t.Fatalf("unexpected points %+v", pts)
	}
}

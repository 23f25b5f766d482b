// Package testsupport provides fixtures shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/sac"
)

// RF describes a synthetic receiver function fixture.
type RF struct {
	Identifier  string
	Start       time.Time
	Backazimuth float64
	Samples     []float32
}

// WriteRF writes <dir>/<Identifier>_R.sac with plausible header values and
// returns its path.
func WriteRF(t testing.TB, dir string, rf RF) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	samples := rf.Samples
	if len(samples) == 0 {
		samples = []float32{0, 0.1, 0.2, 0.05, -0.1, 0}
	}
	h := sac.NewHeader()
	h.SetStation("TST")
	h.SetFloat(sac.Delta, 0.1)
	h.SetFloat(sac.B, -2)
	h.SetFloat(sac.Stla, 30.5)
	h.SetFloat(sac.Stlo, 104.25)
	h.SetFloat(sac.Evla, -5.125)
	h.SetFloat(sac.Evlo, 150.5)
	h.SetFloat(sac.Evdp, 35)
	h.SetFloat(sac.Mag, 6.1)
	h.SetFloat(sac.Gcarc, 62.5)
	h.SetFloat(sac.Baz, rf.Backazimuth)
	h.SetFloat(sac.User0, 0.0654321)
	h.SetFloat(sac.User1, 2.5)
	start := rf.Start
	if start.IsZero() {
		start = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	h.SetReferenceTime(start.Add(2 * time.Second))

	path := filepath.Join(dir, rf.Identifier+"_R.sac")
	if err := sac.WriteFile(path, &sac.File{Header: h, Data: samples}); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteFile creates an empty file, creating parent directories as needed.
func WriteFile(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte{0x42}, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Records builds in-memory records with the given identifiers and
// backazimuths, one second apart in start time.
func Records(ids []string, bazs []float64) []model.Record {
	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	records := make([]model.Record, len(ids))
	for i, id := range ids {
		records[i] = model.Record{
			Identifier: id,
			Filename:   id + "_R.sac",
			Trace: model.Trace{
				Station:     "TST",
				Samples:     []float64{0, 0.1, -0.1, 0},
				Delta:       0.1,
				Begin:       -2,
				End:         -1.7,
				StartTime:   base.Add(time.Duration(i) * time.Second),
				StationLat:  30.5,
				StationLon:  104.25,
				EventLat:    -5.125,
				EventLon:    150.5,
				EventDepth:  35,
				Magnitude:   6.1,
				Distance:    62.5,
				Backazimuth: bazs[i],
				RayParam:    0.0654321,
				GaussWidth:  2.5,
			},
		}
	}
	return records
}

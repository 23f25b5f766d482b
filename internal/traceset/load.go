// Package traceset loads a station's receiver functions and orders them.
package traceset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/sac"
)

// DefaultComponent is the file suffix of radial receiver functions.
const DefaultComponent = "_R.sac"

var identifierPattern = regexp.MustCompile(`\d{4}\D\d{3}\D\d{2}\D\d{2}\D\d{2}`)

// Identifier extracts the event identifier (YYYY.DDD.HH.MM.SS with any
// non-digit delimiters) from a file name.
func Identifier(filename string) (string, bool) {
	id := identifierPattern.FindString(filepath.Base(filename))
	return id, id != ""
}

// Load reads every file in dir ending in component, pairs each trace with its
// identifier and returns them sorted by start time.
func Load(dir, component string) ([]model.Record, error) {
	if component == "" {
		component = DefaultComponent
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrInvalidInput, dir, err)
	}
	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), component) {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	if len(filenames) == 0 {
		return nil, fmt.Errorf("%w: no *%s files in %s", model.ErrInvalidInput, component, dir)
	}
	sort.Strings(filenames)

	traces := make([]model.Trace, 0, len(filenames))
	for _, name := range filenames {
		file, err := sac.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
		traces = append(traces, file.Trace())
	}
	records, err := Pair(traces, filenames)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Trace.StartTime.Before(records[j].Trace.StartTime)
	})
	return records, nil
}

// Pair joins traces with the file names they were read from.
func Pair(traces []model.Trace, filenames []string) ([]model.Record, error) {
	if len(traces) != len(filenames) {
		return nil, fmt.Errorf("%w: %d traces but %d filenames", model.ErrInvalidInput, len(traces), len(filenames))
	}
	records := make([]model.Record, len(traces))
	for i, tr := range traces {
		id, ok := Identifier(filenames[i])
		if !ok {
			return nil, fmt.Errorf("%w: no event identifier in %q", model.ErrInvalidInput, filenames[i])
		}
		records[i] = model.Record{Identifier: id, Filename: filenames[i], Trace: tr}
	}
	return records, nil
}

// StationOf returns the station name and coordinates from the first record.
func StationOf(name string, records []model.Record) model.Station {
	st := model.Station{Name: name}
	if len(records) > 0 {
		st.Lat = records[0].Trace.StationLat
		st.Lon = records[0].Trace.StationLon
	}
	return st
}

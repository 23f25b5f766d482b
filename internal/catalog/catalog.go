// Package catalog writes the accepted-trace catalog and removes the files of
// rejected traces.
package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/rfpick/internal/logging"
	"github.com/verte-zerg/rfpick/internal/model"
)

// PhaseP tags records of the incident P phase.
const PhaseP = "P"

const (
	rfExt  = ".sac"
	cutExt = ".SAC"
)

// Entry is one catalog line.
type Entry struct {
	Identifier  string
	Phase       string
	EventLat    float64
	EventLon    float64
	EventDepth  float64
	Distance    float64
	Backazimuth float64
	RayParam    float64
	Magnitude   float64
	GaussWidth  float64
}

// NewEntry builds the catalog entry of a kept record.
func NewEntry(rec model.Record) Entry {
	tr := rec.Trace
	return Entry{
		Identifier:  rec.Identifier,
		Phase:       PhaseP,
		EventLat:    tr.EventLat,
		EventLon:    tr.EventLon,
		EventDepth:  tr.EventDepth,
		Distance:    tr.Distance,
		Backazimuth: tr.Backazimuth,
		RayParam:    tr.RayParam,
		Magnitude:   tr.Magnitude,
		GaussWidth:  tr.GaussWidth,
	}
}

// Line formats the entry without a trailing newline.
func (e Entry) Line() string {
	return fmt.Sprintf("%s %s %6.3f %6.3f %6.3f %6.3f %6.3f %8.7f %6.3f %6.3f",
		e.Identifier, e.Phase, e.EventLat, e.EventLon, e.EventDepth,
		e.Distance, e.Backazimuth, e.RayParam, e.Magnitude, e.GaussWidth)
}

// FileName returns the catalog file name of station.
func FileName(station string) string {
	return station + "finallist.dat"
}

// Result reports where the catalog was written.
type Result struct {
	CatalogPath string
	CopyPath    string
	Lines       int
}

// Writer removes rejected traces from the RF and cut-waveform station
// directories and writes the catalog into both.
type Writer struct {
	station string
	rfDir   string
	cutDir  string
	logger  *slog.Logger
}

// NewWriter returns a writer for the station directories of cfg.
func NewWriter(cfg model.ReviewConfig, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{
		station: cfg.Station,
		rfDir:   cfg.StationDir(),
		cutDir:  cfg.OutStationDir(),
		logger:  logger,
	}
}

// Remove deletes <identifier>*.sac from the RF directory and
// <identifier>*.SAC from the cut-waveform directory. Missing directories or
// files are not errors.
func (w *Writer) Remove(ctx context.Context, identifier string) error {
	if identifier == "" {
		return fmt.Errorf("%w: empty identifier", model.ErrInvalidInput)
	}
	var errs []error
	for _, target := range []struct{ dir, ext string }{{w.rfDir, rfExt}, {w.cutDir, cutExt}} {
		if target.dir == "" {
			continue
		}
		removed, err := removeMatching(target.dir, identifier, target.ext)
		for _, path := range removed {
			w.logger.Debug("removed file", slog.String("path", path))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	w.logger.Info("rejected trace", slog.String("identifier", identifier))
	return nil
}

func removeMatching(dir, prefix, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var removed []string
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, path)
	}
	return removed, errors.Join(errs...)
}

// Commit writes entries to the station catalog in the RF directory and copies
// it byte-for-byte into the cut-waveform directory.
func (w *Writer) Commit(ctx context.Context, entries []Entry) (Result, error) {
	name := FileName(w.station)
	res := Result{CatalogPath: filepath.Join(w.rfDir, name), Lines: len(entries)}
	if err := writeCatalog(res.CatalogPath, entries); err != nil {
		return Result{}, err
	}
	w.logger.Info("catalog written", slog.String("path", res.CatalogPath), slog.Int("lines", len(entries)))
	if w.cutDir == "" {
		return res, nil
	}
	res.CopyPath = filepath.Join(w.cutDir, name)
	if err := copyFile(res.CatalogPath, res.CopyPath); err != nil {
		return Result{CatalogPath: res.CatalogPath}, err
	}
	w.logger.Info("catalog copied", slog.String("path", res.CopyPath))
	return res, nil
}

func writeCatalog(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	if err := WriteEntries(f, entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}
	return nil
}

// WriteEntries writes one line per entry.
func WriteEntries(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintln(bw, e.Line()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create catalog copy dir: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			// Best-effort close for read-only catalog.
			_ = cerr
		}
	}()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create catalog copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy catalog: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close catalog copy: %w", err)
	}
	return nil
}

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/verte-zerg/rfpick/internal/catalog"
	"github.com/verte-zerg/rfpick/internal/logging"
	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/traceset"
)

// ErrSessionClosed is returned for events received after the session ended.
var ErrSessionClosed = errors.New("review session closed")

// State is the lifecycle state of a session.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFinalized
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFinalized:
		return "finalized"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Renderer produces the summary artifact for the kept traces and returns its
// path.
type Renderer interface {
	RenderSummary(ctx context.Context, station model.Station, records []model.Record) (string, error)
}

// Viewer opens a rendered artifact.
type Viewer interface {
	Open(path string) error
}

// Sink receives the side effects of finalizing a review.
type Sink interface {
	Remove(ctx context.Context, identifier string) error
	Commit(ctx context.Context, entries []catalog.Entry) (catalog.Result, error)
}

// Collaborators are the external components a session drives.
type Collaborators struct {
	Renderer Renderer
	Viewer   Viewer
	Sink     Sink
	Logger   *slog.Logger
}

// Row is one display row of the current page.
type Row struct {
	Position         int
	Index            int
	Identifier       string
	BackazimuthLabel string
	Kept             bool
}

// PageView is the display data of the current page.
type PageView struct {
	Page      int
	PageCount int
	Range     Range
	Rows      []Row
}

// Toggle describes a selection change.
type Toggle struct {
	Index      int
	Identifier string
	Kept       bool
}

// SummaryResult describes a rendered summary. ViewerErr is set when the
// artifact was written but could not be opened.
type SummaryResult struct {
	Path      string
	Traces    int
	Opened    bool
	ViewerErr error
}

// FinalizeReport summarizes a finalized review.
type FinalizeReport struct {
	Total       int
	Kept        int
	Rejected    int
	RejectedIDs []string
	CatalogPath string
	CopyPath    string
}

// Session is one review of a station's trace set. It is not safe for
// concurrent use; a single event loop owns it.
type Session struct {
	cfg       model.ReviewConfig
	station   model.Station
	records   []model.Record
	selection *Selection
	pages     Pages
	cursor    int
	state     State
	view      PageView

	renderer Renderer
	viewer   Viewer
	sink     Sink
	logger   *slog.Logger
}

// New orders records by backazimuth and starts a session on the first page.
// Records are expected in start-time order; the station coordinates are taken
// from the first one.
func New(records []model.Record, cfg model.ReviewConfig, deps Collaborators) (*Session, error) {
	s := &Session{
		cfg:      cfg,
		state:    StateLoading,
		renderer: deps.Renderer,
		viewer:   deps.Viewer,
		sink:     deps.Sink,
		logger:   deps.Logger,
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	sorted, err := traceset.SortByBackazimuth(records)
	if err != nil {
		return nil, err
	}
	pages, err := Paginate(len(sorted), cfg.PageSize)
	if err != nil {
		return nil, err
	}
	s.station = traceset.StationOf(cfg.Station, records)
	s.records = sorted
	s.selection = NewSelection(len(sorted))
	s.pages = pages
	s.state = StateReady
	s.refreshView()
	s.logger.Info("review session ready",
		slog.String("station", cfg.Station),
		slog.Int("traces", len(sorted)),
		slog.Int("pages", pages.Count()),
	)
	return s, nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Station returns the station under review.
func (s *Session) Station() model.Station {
	return s.station
}

// Config returns the session configuration.
func (s *Session) Config() model.ReviewConfig {
	return s.cfg
}

// Len returns the number of traces.
func (s *Session) Len() int {
	return len(s.records)
}

// Record returns the trace at index in display order.
func (s *Session) Record(index int) (model.Record, bool) {
	if index < 0 || index >= len(s.records) {
		return model.Record{}, false
	}
	return s.records[index], true
}

// Kept reports whether trace index is kept.
func (s *Session) Kept(index int) bool {
	return s.selection.Kept(index)
}

// KeptCount returns the number of kept traces.
func (s *Session) KeptCount() int {
	return s.selection.KeptCount()
}

// View returns the display data of the current page.
func (s *Session) View() PageView {
	return s.view
}

// Decisions returns the kept flag of every trace in display order.
func (s *Session) Decisions() []model.Decision {
	out := make([]model.Decision, len(s.records))
	for i, rec := range s.records {
		out[i] = model.Decision{
			Identifier:  rec.Identifier,
			Backazimuth: rec.Trace.Backazimuth,
			Kept:        s.selection.Kept(i),
		}
	}
	return out
}

// SelectAt toggles the trace shown at row position of the current page.
func (s *Session) SelectAt(position int) (Toggle, error) {
	if err := s.requireReady(); err != nil {
		return Toggle{}, err
	}
	r := s.view.Range
	if position < 0 || position >= r.Len() {
		err := fmt.Errorf("%w: row %d on page %d", model.ErrOutOfRange, position, s.cursor)
		s.logger.Debug("ignored selection", logging.Error(err))
		return Toggle{}, err
	}
	index := r.Start + position
	kept, err := s.selection.Toggle(index)
	if err != nil {
		return Toggle{}, err
	}
	rec := s.records[index]
	if kept {
		s.logger.Info("trace restored", slog.String("identifier", rec.Identifier), slog.Int("index", index))
	} else {
		s.logger.Info("trace rejected", slog.String("identifier", rec.Identifier), slog.Int("index", index))
	}
	s.refreshView()
	return Toggle{Index: index, Identifier: rec.Identifier, Kept: kept}, nil
}

// NextPage moves to the next page; on the last page it is a no-op.
func (s *Session) NextPage() (PageView, error) {
	if err := s.requireReady(); err != nil {
		return PageView{}, err
	}
	s.moveTo(s.pages.Next(s.cursor))
	return s.view, nil
}

// PreviousPage moves to the previous page; on the first page it is a no-op.
func (s *Session) PreviousPage() (PageView, error) {
	if err := s.requireReady(); err != nil {
		return PageView{}, err
	}
	s.moveTo(s.pages.Previous(s.cursor))
	return s.view, nil
}

func (s *Session) moveTo(cursor int) {
	if cursor == s.cursor {
		return
	}
	s.cursor = cursor
	s.refreshView()
	s.logger.Debug("page changed", slog.Int("page", cursor+1), slog.Int("pages", s.pages.Count()))
}

// RenderSummary renders the kept traces and tries to open the artifact. A
// missing viewer is reported in the result rather than returned.
func (s *Session) RenderSummary(ctx context.Context) (SummaryResult, error) {
	if err := s.requireReady(); err != nil {
		return SummaryResult{}, err
	}
	if s.renderer == nil {
		return SummaryResult{}, errors.New("no summary renderer configured")
	}
	kept := s.keptRecords()
	s.logger.Info("rendering summary", slog.String("station", s.station.Name), slog.Int("traces", len(kept)))
	path, err := s.renderer.RenderSummary(ctx, s.station, kept)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("render summary: %w", err)
	}
	result := SummaryResult{Path: path, Traces: len(kept)}
	if s.viewer == nil {
		result.ViewerErr = model.ErrMissingViewer
	} else if err := s.viewer.Open(path); err != nil {
		result.ViewerErr = err
	}
	result.Opened = result.ViewerErr == nil
	if result.ViewerErr != nil {
		s.logger.Warn("summary not opened", slog.String("path", path), logging.Error(result.ViewerErr))
	} else {
		s.logger.Info("summary opened", slog.String("path", path))
	}
	return result, nil
}

func (s *Session) keptRecords() []model.Record {
	kept := make([]model.Record, 0, s.selection.KeptCount())
	for i, rec := range s.records {
		if s.selection.Kept(i) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Finalize removes the rejected traces' files, writes the catalog of kept
// traces and ends the session. Nothing happens when ctx is already done; once
// started, finalize runs to completion regardless of cancellation. Deletion
// failures are collected and returned joined with any write failure after all
// traces are processed.
func (s *Session) Finalize(ctx context.Context) (FinalizeReport, error) {
	if err := s.requireReady(); err != nil {
		return FinalizeReport{}, err
	}
	if s.sink == nil {
		return FinalizeReport{}, errors.New("no catalog sink configured")
	}
	if err := ctx.Err(); err != nil {
		return FinalizeReport{}, err
	}
	ctx = context.WithoutCancel(ctx)
	s.state = StateFinalized

	report := FinalizeReport{Total: len(s.records)}
	entries := make([]catalog.Entry, 0, s.selection.KeptCount())
	var errs []error
	for i, rec := range s.records {
		if s.selection.Kept(i) {
			entries = append(entries, catalog.NewEntry(rec))
			continue
		}
		report.Rejected++
		report.RejectedIDs = append(report.RejectedIDs, rec.Identifier)
		if err := s.sink.Remove(ctx, rec.Identifier); err != nil {
			err = fmt.Errorf("%w: %s: %w", model.ErrDeletionFailure, rec.Identifier, err)
			s.logger.Warn("failed to remove rejected trace", slog.String("identifier", rec.Identifier), logging.Error(err))
			errs = append(errs, err)
			continue
		}
		s.logger.Info("removed rejected trace", slog.String("identifier", rec.Identifier))
	}
	report.Kept = len(entries)

	result, err := s.sink.Commit(ctx, entries)
	if err != nil {
		err = fmt.Errorf("%w: %w", model.ErrWriteFailure, err)
		s.logger.Error("failed to write catalog", logging.Error(err))
		errs = append(errs, err)
	} else {
		report.CatalogPath = result.CatalogPath
		report.CopyPath = result.CopyPath
	}
	s.logger.Info("review finalized",
		slog.String("station", s.station.Name),
		slog.Int("kept", report.Kept),
		slog.Int("rejected", report.Rejected),
	)
	return report, errors.Join(errs...)
}

// Abort ends the session without side effects.
func (s *Session) Abort() error {
	if err := s.requireReady(); err != nil {
		return err
	}
	s.state = StateAborted
	s.logger.Info("review aborted", slog.String("station", s.station.Name))
	return nil
}

func (s *Session) requireReady() error {
	if s.state != StateReady {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.state)
	}
	return nil
}

func (s *Session) refreshView() {
	r, err := s.pages.Range(s.cursor)
	if err != nil {
		s.view = PageView{}
		return
	}
	rows := make([]Row, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		rec := s.records[i]
		rows = append(rows, Row{
			Position:         i - r.Start,
			Index:            i,
			Identifier:       rec.Identifier,
			BackazimuthLabel: fmt.Sprintf("%5.2f", rec.Trace.Backazimuth),
			Kept:             s.selection.Kept(i),
		})
	}
	s.view = PageView{
		Page:      s.cursor,
		PageCount: s.pages.Count(),
		Range:     r,
		Rows:      rows,
	}
}

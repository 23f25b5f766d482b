package review

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/verte-zerg/rfpick/internal/catalog"
	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/testsupport"
)

type fakeSink struct {
	removed   []string
	committed []catalog.Entry
	commits   int
	removeErr map[string]error
	commitErr error
}

func (f *fakeSink) Remove(_ context.Context, identifier string) error {
	f.removed = append(f.removed, identifier)
	return f.removeErr[identifier]
}

func (f *fakeSink) Commit(_ context.Context, entries []catalog.Entry) (catalog.Result, error) {
	f.commits++
	if f.commitErr != nil {
		return catalog.Result{}, f.commitErr
	}
	f.committed = append([]catalog.Entry(nil), entries...)
	return catalog.Result{CatalogPath: "rf/TSTfinallist.dat", CopyPath: "cut/TSTfinallist.dat", Lines: len(entries)}, nil
}

type fakeRenderer struct {
	station model.Station
	records []model.Record
}

func (f *fakeRenderer) RenderSummary(_ context.Context, station model.Station, records []model.Record) (string, error) {
	f.station = station
	f.records = records
	return "/images/" + station.Name + "_R.ps", nil
}

type fakeViewer struct {
	opened []string
	err    error
}

func (f *fakeViewer) Open(path string) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, path)
	return nil
}

func newTestSession(t *testing.T, n, pageSize int, deps Collaborators) *Session {
	t.Helper()
	ids := make([]string, n)
	bazs := make([]float64, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("2020.%03d.00.00.00", i+1)
		bazs[i] = float64(i)
	}
	s, err := New(testsupport.Records(ids, bazs), model.ReviewConfig{Station: "TST", PageSize: pageSize}, deps)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestNewSessionOrdersAndPaginates(t *testing.T) {
	records := testsupport.Records([]string{"E", "A", "D", "B", "C"}, []float64{300, 10, 200, 10, 50})
	s, err := New(records, model.ReviewConfig{Station: "TST", PageSize: 2}, Collaborators{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if s.State() != StateReady {
		t.Fatalf("expected ready, got %s", s.State())
	}
	view := s.View()
	if view.PageCount != 3 || view.Page != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(view.Rows) != 2 || view.Rows[0].Identifier != "A" || view.Rows[1].Identifier != "B" {
		t.Fatalf("unexpected rows %+v", view.Rows)
	}
	if view.Rows[0].BackazimuthLabel != "10.00" {
		t.Fatalf("unexpected baz label %q", view.Rows[0].BackazimuthLabel)
	}
	if st := s.Station(); st.Name != "TST" || st.Lat != 30.5 || st.Lon != 104.25 {
		t.Fatalf("unexpected station %+v", st)
	}
}

func TestNewSessionInvalidInput(t *testing.T) {
	if _, err := New(nil, model.ReviewConfig{PageSize: 20}, Collaborators{}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	records := testsupport.Records([]string{"a"}, []float64{1})
	if _, err := New(records, model.ReviewConfig{PageSize: 0}, Collaborators{}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for page size, got %v", err)
	}
}

func TestSelectAtMapsRowsOnLaterPages(t *testing.T) {
	s := newTestSession(t, 45, 20, Collaborators{})
	if _, err := s.NextPage(); err != nil {
		t.Fatalf("next page: %v", err)
	}
	toggle, err := s.SelectAt(0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if toggle.Index != 20 || toggle.Kept {
		t.Fatalf("unexpected toggle %+v", toggle)
	}
	if _, err := s.NextPage(); err != nil {
		t.Fatalf("next page: %v", err)
	}
	toggle, err = s.SelectAt(4)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if toggle.Index != 44 || toggle.Identifier != "2020.045.00.00.00" {
		t.Fatalf("unexpected toggle %+v", toggle)
	}
	if s.Kept(20) || s.Kept(44) || !s.Kept(19) || !s.Kept(21) || !s.Kept(43) {
		t.Fatalf("toggle hit the wrong traces")
	}
}

func TestSelectAtOutsidePageIsNoop(t *testing.T) {
	s := newTestSession(t, 22, 20, Collaborators{})
	if _, err := s.NextPage(); err != nil {
		t.Fatalf("next page: %v", err)
	}
	for _, pos := range []int{-1, 2, 20} {
		if _, err := s.SelectAt(pos); !errors.Is(err, model.ErrOutOfRange) {
			t.Fatalf("SelectAt(%d): expected ErrOutOfRange, got %v", pos, err)
		}
	}
	if s.KeptCount() != 22 {
		t.Fatalf("expected no state change, got %d kept", s.KeptCount())
	}
}

func TestNavigationBoundaries(t *testing.T) {
	s := newTestSession(t, 22, 20, Collaborators{})
	view, err := s.PreviousPage()
	if err != nil {
		t.Fatalf("previous page: %v", err)
	}
	if view.Page != 0 {
		t.Fatalf("expected page 0, got %d", view.Page)
	}
	if _, err := s.NextPage(); err != nil {
		t.Fatalf("next page: %v", err)
	}
	view, err = s.NextPage()
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if view.Page != 1 {
		t.Fatalf("expected to stay on last page, got %d", view.Page)
	}
	if view.Range != (Range{Start: 20, End: 22}) || len(view.Rows) != 2 {
		t.Fatalf("unexpected last page view %+v", view)
	}
	if view.Rows[1].Identifier != "2020.022.00.00.00" || view.Rows[1].Position != 1 {
		t.Fatalf("row labels not recomputed: %+v", view.Rows[1])
	}
}

func TestNavigationKeepsSelection(t *testing.T) {
	s := newTestSession(t, 30, 10, Collaborators{})
	if _, err := s.SelectAt(3); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.NextPage(); err != nil {
			t.Fatalf("next page: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := s.PreviousPage(); err != nil {
			t.Fatalf("previous page: %v", err)
		}
	}
	if s.Kept(3) {
		t.Fatalf("navigation reset the selection")
	}
	if s.View().Rows[3].Kept {
		t.Fatalf("expected page view to show trace 3 rejected")
	}
}

func TestFinalizeWritesKeptAndRemovesRejected(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, 8, 5, Collaborators{Sink: sink})
	if _, err := s.SelectAt(3); err != nil {
		t.Fatalf("select: %v", err)
	}
	report, err := s.Finalize(context.Background())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(sink.committed) != 7 || report.Kept != 7 {
		t.Fatalf("expected 7 catalog lines, got %d (report %d)", len(sink.committed), report.Kept)
	}
	if len(sink.removed) != 1 || sink.removed[0] != "2020.004.00.00.00" {
		t.Fatalf("unexpected delete requests %v", sink.removed)
	}
	if report.Rejected != 1 || report.RejectedIDs[0] != "2020.004.00.00.00" {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, entry := range sink.committed {
		if entry.Identifier == "2020.004.00.00.00" {
			t.Fatalf("rejected trace written to catalog")
		}
		if entry.Phase != catalog.PhaseP {
			t.Fatalf("unexpected phase %q", entry.Phase)
		}
	}
	if report.CatalogPath == "" || report.CopyPath == "" {
		t.Fatalf("expected catalog paths in report")
	}
	if s.State() != StateFinalized {
		t.Fatalf("expected finalized, got %s", s.State())
	}
}

func TestFinalizeDeleteRequestsMatchSelection(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, 12, 4, Collaborators{Sink: sink})
	rejected := map[string]bool{}
	for page := 0; page < 3; page++ {
		toggle, err := s.SelectAt(page)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		rejected[toggle.Identifier] = true
		if _, err := s.NextPage(); err != nil {
			t.Fatalf("next page: %v", err)
		}
	}
	if _, err := s.Finalize(context.Background()); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(sink.removed) != len(rejected) {
		t.Fatalf("expected %d delete requests, got %v", len(rejected), sink.removed)
	}
	for _, id := range sink.removed {
		if !rejected[id] {
			t.Fatalf("delete request for kept trace %s", id)
		}
	}
	if len(sink.committed) != 12-len(rejected) {
		t.Fatalf("expected %d catalog lines, got %d", 12-len(rejected), len(sink.committed))
	}
}

func TestFinalizeAccumulatesDeletionFailures(t *testing.T) {
	sink := &fakeSink{removeErr: map[string]error{"2020.001.00.00.00": errors.New("permission denied")}}
	s := newTestSession(t, 3, 20, Collaborators{Sink: sink})
	for _, pos := range []int{0, 1} {
		if _, err := s.SelectAt(pos); err != nil {
			t.Fatalf("select: %v", err)
		}
	}
	report, err := s.Finalize(context.Background())
	if !errors.Is(err, model.ErrDeletionFailure) {
		t.Fatalf("expected ErrDeletionFailure, got %v", err)
	}
	if errors.Is(err, model.ErrWriteFailure) {
		t.Fatalf("unexpected write failure")
	}
	if len(sink.removed) != 2 || sink.commits != 1 {
		t.Fatalf("finalize stopped early: removed %v, commits %d", sink.removed, sink.commits)
	}
	if report.Rejected != 2 || report.Kept != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestFinalizeWriteFailure(t *testing.T) {
	sink := &fakeSink{commitErr: errors.New("disk full")}
	s := newTestSession(t, 3, 20, Collaborators{Sink: sink})
	_, err := s.Finalize(context.Background())
	if !errors.Is(err, model.ErrWriteFailure) {
		t.Fatalf("expected ErrWriteFailure, got %v", err)
	}
	if s.State() != StateFinalized {
		t.Fatalf("expected session to end, got %s", s.State())
	}
}

func TestFinalizeCanceledBeforeStart(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, 3, 20, Collaborators{Sink: sink})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Finalize(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.State() != StateReady || sink.commits != 0 {
		t.Fatalf("expected no side effects, state %s commits %d", s.State(), sink.commits)
	}
}

func TestClosedSessionRejectsEvents(t *testing.T) {
	s := newTestSession(t, 3, 20, Collaborators{Sink: &fakeSink{}})
	if _, err := s.Finalize(context.Background()); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := s.SelectAt(0); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.NextPage(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.Finalize(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}

	aborted := newTestSession(t, 3, 20, Collaborators{})
	if err := aborted.Abort(); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if aborted.State() != StateAborted {
		t.Fatalf("expected aborted, got %s", aborted.State())
	}
	if _, err := aborted.RenderSummary(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestRenderSummaryUsesKeptTraces(t *testing.T) {
	renderer := &fakeRenderer{}
	viewer := &fakeViewer{}
	s := newTestSession(t, 5, 20, Collaborators{Renderer: renderer, Viewer: viewer})
	if _, err := s.SelectAt(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	result, err := s.RenderSummary(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Traces != 4 || len(renderer.records) != 4 {
		t.Fatalf("expected 4 kept traces, got %d", len(renderer.records))
	}
	want := []string{"2020.001.00.00.00", "2020.003.00.00.00", "2020.004.00.00.00", "2020.005.00.00.00"}
	for i, rec := range renderer.records {
		if rec.Identifier != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], rec.Identifier)
		}
	}
	if renderer.station.Name != "TST" {
		t.Fatalf("unexpected station %+v", renderer.station)
	}
	if !result.Opened || len(viewer.opened) != 1 || viewer.opened[0] != "/images/TST_R.ps" {
		t.Fatalf("expected summary to be opened, got %+v", result)
	}
	if s.KeptCount() != 4 {
		t.Fatalf("render changed the selection")
	}
}

func TestRenderSummaryMissingViewerIsReported(t *testing.T) {
	viewer := &fakeViewer{err: fmt.Errorf("plan9: %w", model.ErrMissingViewer)}
	s := newTestSession(t, 2, 20, Collaborators{Renderer: &fakeRenderer{}, Viewer: viewer})
	result, err := s.RenderSummary(context.Background())
	if err != nil {
		t.Fatalf("expected missing viewer to be non-fatal, got %v", err)
	}
	if result.Opened || !errors.Is(result.ViewerErr, model.ErrMissingViewer) {
		t.Fatalf("expected missing viewer in result, got %+v", result)
	}
	if s.State() != StateReady {
		t.Fatalf("expected session to stay ready")
	}
}

func TestDecisionsFollowDisplayOrder(t *testing.T) {
	records := testsupport.Records([]string{"late", "early"}, []float64{200, 100})
	s, err := New(records, model.ReviewConfig{Station: "TST", PageSize: 20}, Collaborators{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := s.SelectAt(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	decisions := s.Decisions()
	if len(decisions) != 2 || decisions[0].Identifier != "early" || !decisions[0].Kept || decisions[1].Kept {
		t.Fatalf("unexpected decisions %+v", decisions)
	}
}

package review

import (
	"context"
	"errors"
	"testing"

	"github.com/verte-zerg/rfpick/internal/model"
)

func TestDispatchDrivesSession(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, 22, 20, Collaborators{Sink: sink, Renderer: &fakeRenderer{}, Viewer: &fakeViewer{}})
	ctx := context.Background()

	out, err := s.Dispatch(ctx, Event{Type: EventNextPage})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if out.View.Page != 1 {
		t.Fatalf("expected page 1, got %d", out.View.Page)
	}
	out, err = s.Dispatch(ctx, Event{Type: EventSelect, Position: 1})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if out.Toggle == nil || out.Toggle.Index != 21 || out.Toggle.Kept {
		t.Fatalf("unexpected toggle %+v", out.Toggle)
	}
	if out.View.Rows[1].Kept {
		t.Fatalf("expected view to reflect the toggle")
	}
	out, err = s.Dispatch(ctx, Event{Type: EventSelect, Position: 7})
	if !errors.Is(err, model.ErrOutOfRange) || out.Toggle != nil {
		t.Fatalf("expected out of range select to be absorbed, got %v", err)
	}
	out, err = s.Dispatch(ctx, Event{Type: EventRenderSummary})
	if err != nil || out.Summary == nil || out.Summary.Traces != 21 {
		t.Fatalf("unexpected summary %+v, err %v", out.Summary, err)
	}
	out, err = s.Dispatch(ctx, Event{Type: EventPreviousPage})
	if err != nil || out.View.Page != 0 {
		t.Fatalf("unexpected previous page outcome %+v, err %v", out.View, err)
	}
	out, err = s.Dispatch(ctx, Event{Type: EventFinalize})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out.Report == nil || out.Report.Rejected != 1 || out.Report.Kept != 21 {
		t.Fatalf("unexpected report %+v", out.Report)
	}
	if _, err := s.Dispatch(ctx, Event{Type: EventAbort}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	s := newTestSession(t, 2, 20, Collaborators{})
	if _, err := s.Dispatch(context.Background(), Event{Type: EventType(99)}); err == nil {
		t.Fatalf("expected error for unknown event")
	}
}

package review

import (
	"context"
	"fmt"
)

// EventType names a user action.
type EventType int

const (
	EventSelect EventType = iota + 1
	EventNextPage
	EventPreviousPage
	EventRenderSummary
	EventFinalize
	EventAbort
)

func (t EventType) String() string {
	switch t {
	case EventSelect:
		return "select"
	case EventNextPage:
		return "next-page"
	case EventPreviousPage:
		return "previous-page"
	case EventRenderSummary:
		return "render-summary"
	case EventFinalize:
		return "finalize"
	case EventAbort:
		return "abort"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is a user action with its payload. Position is the row within the
// current page for EventSelect.
type Event struct {
	Type     EventType
	Position int
}

// Outcome carries the result of a dispatched event. View is always the page
// view after the event; the other fields are set by the matching event type.
type Outcome struct {
	View    PageView
	Toggle  *Toggle
	Summary *SummaryResult
	Report  *FinalizeReport
}

// Dispatch applies ev to the session. Errors leave the selection and page
// cursor unchanged, except for finalize errors, which are reported after the
// session has ended.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	var out Outcome
	var err error
	switch ev.Type {
	case EventSelect:
		var toggle Toggle
		if toggle, err = s.SelectAt(ev.Position); err == nil {
			out.Toggle = &toggle
		}
	case EventNextPage:
		_, err = s.NextPage()
	case EventPreviousPage:
		_, err = s.PreviousPage()
	case EventRenderSummary:
		var summary SummaryResult
		if summary, err = s.RenderSummary(ctx); err == nil {
			out.Summary = &summary
		}
	case EventFinalize:
		var report FinalizeReport
		report, err = s.Finalize(ctx)
		if s.state == StateFinalized {
			out.Report = &report
		}
	case EventAbort:
		err = s.Abort()
	default:
		err = fmt.Errorf("unknown event %s", ev.Type)
	}
	out.View = s.view
	return out, err
}

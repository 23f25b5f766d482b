package history

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/plot"
	"github.com/verte-zerg/rfpick/internal/texttable"
)

const (
	timeLayout = "2006-01-02 15:04"
	plotHeight = 6
)

// ReviewRows returns the table headers and rows of reviews, newest first.
func ReviewRows(reviews []model.ReviewAggregate) ([]string, [][]string) {
	headers := []string{"Ended", "Station", "Total", "Kept", "Rejected", "Accepted", "Catalog"}
	rows := make([][]string, 0, len(reviews))
	for i := len(reviews) - 1; i >= 0; i-- {
		r := reviews[i]
		rows = append(rows, []string{
			r.EndedAt.Local().Format(timeLayout),
			r.Station,
			fmt.Sprintf("%d", r.Total),
			fmt.Sprintf("%d", r.Kept),
			fmt.Sprintf("%d", r.Rejected),
			fmt.Sprintf("%.1f%%", AcceptanceRate(r.Kept, r.Total)),
			r.CatalogPath,
		})
	}
	return headers, rows
}

// SectorRows returns the table headers and rows of sector aggregates.
func SectorRows(sectors []model.SectorAggregate) ([]string, [][]string) {
	headers := []string{"Backazimuth", "Kept", "Rejected", "Accepted"}
	rows := make([][]string, 0, len(sectors))
	for _, s := range sectors {
		rows = append(rows, []string{
			fmt.Sprintf("%3d-%3d°", s.Start, s.Start+s.Width),
			fmt.Sprintf("%d", s.Kept),
			fmt.Sprintf("%d", s.Rejected),
			fmt.Sprintf("%.1f%%", AcceptanceRate(s.Kept, s.Kept+s.Rejected)),
		})
	}
	return headers, rows
}

// DecisionRows returns the table headers and rows of a review's decisions.
func DecisionRows(decisions []model.Decision) ([]string, [][]string) {
	headers := []string{"#", "Event", "BAZ", "Decision"}
	rows := make([][]string, 0, len(decisions))
	for i, d := range decisions {
		state := "kept"
		if !d.Kept {
			state = "rejected"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			d.Identifier,
			fmt.Sprintf("%6.2f", d.Backazimuth),
			state,
		})
	}
	return headers, rows
}

var rightAligned = map[int]bool{2: true, 3: true, 4: true, 5: true}

// WritePlain writes the report as text tables followed by the acceptance
// curve.
func WritePlain(w io.Writer, report Report, width int) error {
	if len(report.Reviews) == 0 {
		_, err := fmt.Fprintln(w, "No reviews found.")
		return err
	}
	t := Summarize(report.Reviews)
	if _, err := fmt.Fprintf(w, "Reviews: %d  Stations: %d  Traces: %d  Kept: %d  Rejected: %d  Accepted: %.1f%%\n\n",
		t.Reviews, t.Stations, t.Traces, t.Kept, t.Rejected, AcceptanceRate(t.Kept, t.Traces)); err != nil {
		return err
	}
	headers, rows := ReviewRows(report.Reviews)
	if _, err := fmt.Fprintln(w, texttable.Render(headers, rows, rightAligned)); err != nil {
		return err
	}
	if len(report.Sectors) > 0 {
		headers, rows = SectorRows(report.Sectors)
		if _, err := fmt.Fprintln(w, texttable.Render(headers, rows, map[int]bool{1: true, 2: true, 3: true})); err != nil {
			return err
		}
	}
	if len(report.Reviews) < 2 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return plot.PlotSeries(w, "Acceptance rate per review (%)", []plot.Series{
		{Name: "accepted", Values: AcceptanceSeries(report.Reviews)},
	}, 0, 100, plot.PlotWidthFor(width), plotHeight)
}

// RenderCurve returns the colored acceptance curve for the terminal UI.
func RenderCurve(reviews []model.ReviewAggregate, width int) string {
	if len(reviews) < 2 {
		return ""
	}
	var buf bytes.Buffer
	err := plot.PlotSeriesWithColor(&buf, "Acceptance rate per review (%)", []plot.Series{
		{Name: "accepted", Values: AcceptanceSeries(reviews)},
	}, 0, 100, plot.PlotWidthFor(width), plotHeight)
	if err != nil {
		return fmt.Sprintf("Failed to render acceptance curve: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

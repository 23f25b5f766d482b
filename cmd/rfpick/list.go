package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/rfpick/internal/plot"
	"github.com/verte-zerg/rfpick/internal/texttable"
	"github.com/verte-zerg/rfpick/internal/traceset"
)

// listFixedWidth is the table width taken by every column but the waveform.
const listFixedWidth = 78

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [config]",
		Short: "Print a station's traces in review order",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runListCmd,
	}
	addReviewFlags(cmd, &listOpts)
	return cmd
}

func runListCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveReviewConfig(cmd, args, &listOpts)
	if err != nil {
		return err
	}
	records, err := traceset.Load(cfg.StationDir(), cfg.Component)
	if err != nil {
		return err
	}
	sorted, err := traceset.SortByBackazimuth(records)
	if err != nil {
		return err
	}
	st := traceset.StationOf(cfg.Station, records)
	waveWidth := plot.TerminalWidth() - listFixedWidth
	if waveWidth < 10 {
		waveWidth = 10
	}

	headers := []string{"#", "Page", "Event", "BAZ", "GCARC", "Depth", "Mag", "p", "R component"}
	rows := make([][]string, 0, len(sorted))
	for i, rec := range sorted {
		tr := rec.Trace
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", i/cfg.PageSize+1),
			rec.Identifier,
			fmt.Sprintf("%5.2f", tr.Backazimuth),
			fmt.Sprintf("%6.3f", tr.Distance),
			fmt.Sprintf("%6.3f", tr.EventDepth),
			fmt.Sprintf("%4.2f", tr.Magnitude),
			fmt.Sprintf("%8.7f", tr.RayParam),
			plot.Waveform(tr.Samples, tr.Begin, tr.Delta, cfg.TimeMin, cfg.TimeMax, waveWidth, cfg.Scale),
		})
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s (Latitude: %.2f°, Longitude: %.2f°)  %d traces\n", st.Name, st.Lat, st.Lon, len(sorted)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	table := texttable.Render(headers, rows, map[int]bool{0: true, 1: true, 3: true, 4: true, 5: true, 6: true, 7: true})
	if _, err := fmt.Fprintln(out, table); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

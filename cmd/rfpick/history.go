package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/rfpick/internal/config"
	"github.com/verte-zerg/rfpick/internal/history"
	"github.com/verte-zerg/rfpick/internal/historyui"
	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/plot"
	"github.com/verte-zerg/rfpick/internal/store"
)

var (
	historyStation string
	historySince   string
	historyLast    int
	historyPlain   bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished reviews",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVarP(&historyStation, "station", "S", "", "station filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N reviews")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print tables instead of the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{
		Station: historyStation,
		Since:   sinceTime,
		Last:    historyLast,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if historyPlain || !isInteractive(os.Stdout) {
		report, err := history.BuildReport(cmd.Context(), st, filter)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		return history.WritePlain(cmd.OutOrStdout(), report, plot.TerminalWidth())
	}

	m := historyui.NewModel(st, filter)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func isInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

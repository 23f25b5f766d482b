// Package main provides the CLI entrypoint for rfpick.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/rfpick/internal/catalog"
	"github.com/verte-zerg/rfpick/internal/config"
	"github.com/verte-zerg/rfpick/internal/logging"
	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/plot"
	"github.com/verte-zerg/rfpick/internal/review"
	"github.com/verte-zerg/rfpick/internal/store"
	"github.com/verte-zerg/rfpick/internal/traceset"
	"github.com/verte-zerg/rfpick/internal/tui"
)

const (
	defaultPageSize = 20
	defaultScale    = 7.0
	defaultTimeMin  = -2.0
	defaultTimeMax  = 80.0
	defaultLogLevel = "info"
)

// reviewFlags holds the values shared by the review and list commands.
type reviewFlags struct {
	station   string
	pageSize  int
	scale     float64
	timeMin   float64
	timeMax   float64
	component string
	rfPath    string
	outPath   string
	imagePath string
	logLevel  string
	logDir    string
}

var (
	reviewOpts reviewFlags
	listOpts   reviewFlags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rfpick [config]",
		Short: "Review receiver functions of a station and keep the good ones",
		Long: `rfpick pages through the radial receiver functions of one station, ordered
by backazimuth. Rejected traces are deleted on finish and the kept ones are
written to <station>finallist.dat in the RF and cut-waveform directories.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runReviewCmd,
	}
	addReviewFlags(rootCmd, &reviewOpts)

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newHistoryCmd())
	return rootCmd
}

func addReviewFlags(cmd *cobra.Command, f *reviewFlags) {
	cmd.Flags().StringVarP(&f.station, "station", "S", "", "station name")
	cmd.Flags().IntVar(&f.pageSize, "page-size", defaultPageSize, "traces per page")
	cmd.Flags().Float64Var(&f.scale, "scale", defaultScale, "amplitude enlargement factor")
	cmd.Flags().Float64Var(&f.timeMin, "time-min", defaultTimeMin, "start of the display window (s)")
	cmd.Flags().Float64Var(&f.timeMax, "time-max", defaultTimeMax, "end of the display window (s)")
	cmd.Flags().StringVar(&f.component, "component", traceset.DefaultComponent, "file name suffix of the traces to review")
	cmd.Flags().StringVar(&f.rfPath, "rf-path", "", "receiver function root directory")
	cmd.Flags().StringVar(&f.outPath, "out-path", "", "cut waveform root directory")
	cmd.Flags().StringVar(&f.imagePath, "image-path", "", "directory for summary figures")
	cmd.Flags().StringVar(&f.logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logDir, "log-dir", "", "log directory (default: $XDG_STATE_HOME/rfpick)")
	if err := cmd.MarkFlagRequired("station"); err != nil {
		panic(err)
	}
}

// resolveReviewConfig merges the config file into unset flags and validates
// the result.
func resolveReviewConfig(cmd *cobra.Command, args []string, f *reviewFlags) (model.ReviewConfig, error) {
	var fileCfg config.FileConfig
	var err error
	if len(args) > 0 {
		fileCfg, err = config.LoadExplicitConfig(args[0])
	} else {
		fileCfg, err = config.LoadConfig(config.DefaultConfigPath())
	}
	if err != nil {
		return model.ReviewConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "rf-path", &f.rfPath, fileCfg.Path.RFPath)
	applyStringConfig(cmd, "out-path", &f.outPath, fileCfg.Path.OutPath)
	applyStringConfig(cmd, "image-path", &f.imagePath, fileCfg.Path.ImagePath)
	applyIntConfig(cmd, "page-size", &f.pageSize, fileCfg.Review.PageSize)
	applyFloatConfig(cmd, "scale", &f.scale, fileCfg.Review.Scale)
	applyFloatConfig(cmd, "time-min", &f.timeMin, fileCfg.Review.TimeMin)
	applyFloatConfig(cmd, "time-max", &f.timeMax, fileCfg.Review.TimeMax)
	applyStringConfig(cmd, "component", &f.component, fileCfg.Review.Component)
	applyStringConfig(cmd, "log-level", &f.logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-dir", &f.logDir, fileCfg.Log.Dir)

	cfg := model.ReviewConfig{
		Station:   strings.TrimSpace(f.station),
		PageSize:  f.pageSize,
		Scale:     f.scale,
		TimeMin:   f.timeMin,
		TimeMax:   f.timeMax,
		Component: f.component,
		RFPath:    expandHome(f.rfPath),
		OutPath:   expandHome(f.outPath),
		ImagePath: expandHome(f.imagePath),
	}
	if err := validateConfig(cfg); err != nil {
		return model.ReviewConfig{}, err
	}
	return cfg, nil
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveReviewConfig(cmd, args, &reviewOpts)
	if err != nil {
		return err
	}
	if cfg.OutPath == "" {
		return fmt.Errorf("out_path is not set (use --out-path or [path] out_path)")
	}
	if cfg.ImagePath == "" {
		return fmt.Errorf("image_path is not set (use --image-path or [path] image_path)")
	}

	logger, err := openLogger(reviewOpts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logger.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()
	reviewID := uuid.NewString()
	log := logger.With(slog.String("review_id", reviewID), slog.String("station", cfg.Station))

	lock, err := catalog.Lock(cfg.StationDir(), config.DefaultLockDir())
	if err != nil {
		return err
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			logErrf("failed to release lock: %v\n", uerr)
		}
	}()

	records, err := traceset.Load(cfg.StationDir(), cfg.Component)
	if err != nil {
		log.Error("failed to load traces", logging.Error(err))
		return err
	}
	session, err := review.New(records, cfg, review.Collaborators{
		Renderer: plot.NewSummaryRenderer(cfg, log),
		Viewer:   plot.NewViewer(),
		Sink:     catalog.NewWriter(cfg, log),
		Logger:   log,
	})
	if err != nil {
		return err
	}

	var recorder tui.Recorder
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		log.Warn("review history disabled", logging.Error(err))
	} else {
		recorder = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	m := tui.NewModel(tui.Options{
		Context:  cmd.Context(),
		Session:  session,
		Recorder: recorder,
		Logger:   log,
		ReviewID: reviewID,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return reportResult(m.Result(), cfg.Station)
}

func reportResult(res tui.Result, station string) error {
	if !res.Finalized {
		logErrf("Review of %s canceled; no files were changed.\n", station)
		return nil
	}
	r := res.Report
	logErrf("%d RFs are rejected, %d kept.\n", r.Rejected, r.Kept)
	if r.CatalogPath != "" {
		logErrf("Wrote %s\n", r.CatalogPath)
	}
	if r.CopyPath != "" {
		logErrf("Copied to %s\n", r.CopyPath)
	}
	if res.Err == nil {
		return nil
	}
	logErrln(res.Err)
	if errors.Is(res.Err, model.ErrWriteFailure) {
		return fmt.Errorf("catalog for %s was not written", station)
	}
	return nil
}

func openLogger(f reviewFlags) (*logging.Logger, error) {
	dir := expandHome(f.logDir)
	if dir == "" {
		dir = config.DefaultLogDir()
	}
	logger, err := logging.New(logging.Options{Level: f.logLevel, Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# rfpick configuration
# Uncomment a value to enable it. CLI flags override config values.

[path]
# image_path = "/data/rf/images"   # Summary figures (<station>_R.ps)
# RF_path = "/data/rf/RFresult"    # Receiver functions, one directory per station
# out_path = "/data/rf/cut"        # Cut waveforms, one directory per station

[review]
# page-size = %d          # Traces per page
# scale = %.1f             # Amplitude enlargement factor
# time-min = %.1f         # Display window start (s)
# time-max = %.1f         # Display window end (s)
# component = %q    # File name suffix of the traces to review

[log]
# level = %q          # debug, info, warn or error
# dir = ""                # Default: $XDG_STATE_HOME/rfpick
`,
		defaultPageSize,
		defaultScale,
		defaultTimeMin,
		defaultTimeMax,
		traceset.DefaultComponent,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.ReviewConfig) error {
	if cfg.Station == "" {
		return fmt.Errorf("--station must not be empty")
	}
	if strings.ContainsRune(cfg.Station, os.PathSeparator) {
		return fmt.Errorf("--station must be a plain station name")
	}
	if cfg.RFPath == "" {
		return fmt.Errorf("RF_path is not set (use --rf-path or [path] RF_path)")
	}
	if cfg.PageSize <= 0 {
		return fmt.Errorf("--page-size must be > 0")
	}
	if cfg.Scale <= 0 {
		return fmt.Errorf("--scale must be > 0")
	}
	if cfg.TimeMax <= cfg.TimeMin {
		return fmt.Errorf("--time-max must be greater than --time-min")
	}
	if cfg.Component == "" {
		return fmt.Errorf("--component must not be empty")
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

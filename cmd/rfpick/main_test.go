package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/rfpick/internal/config"
	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/review"
	"github.com/verte-zerg/rfpick/internal/tui"
)

func newFlagCmd(t *testing.T, f *reviewFlags, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addReviewFlags(cmd, f)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestResolveReviewConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfpick.toml")
	content := `[path]
RF_path = "/data/RFresult"
out_path = "/data/cut"
image_path = "/data/images"

[review]
page-size = 10
scale = 5.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var f reviewFlags
	cmd := newFlagCmd(t, &f, "-S", "TST", "--scale", "9")
	cfg, err := resolveReviewConfig(cmd, []string{path}, &f)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.Station != "TST" || cfg.RFPath != "/data/RFresult" || cfg.OutPath != "/data/cut" || cfg.ImagePath != "/data/images" {
		t.Fatalf("unexpected paths %+v", cfg)
	}
	if cfg.PageSize != 10 || cfg.Scale != 9 || cfg.TimeMin != defaultTimeMin || cfg.TimeMax != defaultTimeMax {
		t.Fatalf("unexpected review settings %+v", cfg)
	}
	if cfg.StationDir() != filepath.Join("/data/RFresult", "TST") {
		t.Fatalf("unexpected station dir %q", cfg.StationDir())
	}
}

func TestResolveReviewConfigMissingExplicitFile(t *testing.T) {
	var f reviewFlags
	cmd := newFlagCmd(t, &f, "-S", "TST", "--rf-path", "/data")
	if _, err := resolveReviewConfig(cmd, []string{filepath.Join(t.TempDir(), "missing.toml")}, &f); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.ReviewConfig{Station: "TST", RFPath: "/rf", PageSize: 20, Scale: 7, TimeMin: -2, TimeMax: 80, Component: "_R.sac"}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	cases := map[string]func(*model.ReviewConfig){
		"station":   func(c *model.ReviewConfig) { c.Station = "" },
		"separator": func(c *model.ReviewConfig) { c.Station = "A" + string(os.PathSeparator) + "B" },
		"rf path":   func(c *model.ReviewConfig) { c.RFPath = "" },
		"page size": func(c *model.ReviewConfig) { c.PageSize = 0 },
		"scale":     func(c *model.ReviewConfig) { c.Scale = 0 },
		"window":    func(c *model.ReviewConfig) { c.TimeMax = c.TimeMin },
		"component": func(c *model.ReviewConfig) { c.Component = "" },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	meta, err := toml.Decode(defaultConfigTemplate(), &cfg)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if len(meta.Undecoded()) != 0 {
		t.Fatalf("unexpected keys %v", meta.Undecoded())
	}
	if !strings.Contains(defaultConfigTemplate(), "# RF_path") {
		t.Fatalf("expected RF_path in template")
	}
}

func TestReportResult(t *testing.T) {
	if err := reportResult(tui.Result{Aborted: true}, "TST"); err != nil {
		t.Fatalf("abort should succeed, got %v", err)
	}
	deletion := tui.Result{
		Finalized: true,
		Report:    review.FinalizeReport{Total: 3, Kept: 2, Rejected: 1},
		Err:       fmt.Errorf("%w: x", model.ErrDeletionFailure),
	}
	if err := reportResult(deletion, "TST"); err != nil {
		t.Fatalf("deletion failures should not fail the command, got %v", err)
	}
	write := tui.Result{
		Finalized: true,
		Err:       errors.Join(fmt.Errorf("%w: disk full", model.ErrWriteFailure)),
	}
	if err := reportResult(write, "TST"); err == nil {
		t.Fatalf("expected write failure to fail the command")
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/seis")
	if got := expandHome("~/rf"); got != "/home/seis/rf" {
		t.Fatalf("unexpected expansion %q", got)
	}
	if got := expandHome("/abs/~/x"); got != "/abs/~/x" {
		t.Fatalf("unexpected expansion %q", got)
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/rfpick/internal/testsupport"
)

func TestListPrintsTracesInBackazimuthOrder(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	stationDir := filepath.Join(root, "rf", "TST")
	testsupport.WriteRF(t, stationDir, testsupport.RF{Identifier: "2020.001.00.00.00", Backazimuth: 250})
	testsupport.WriteRF(t, stationDir, testsupport.RF{Identifier: "2020.002.00.00.00", Backazimuth: 15.5})
	testsupport.WriteRF(t, stationDir, testsupport.RF{Identifier: "2020.003.00.00.00", Backazimuth: 120})

	listOpts = reviewFlags{}
	cmd := newListCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-S", "TST", "--rf-path", filepath.Join(root, "rf"), "--page-size", "2"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "TST (Latitude: 30.50°, Longitude: 104.25°)  3 traces") {
		t.Fatalf("missing station line:\n%s", text)
	}
	first := strings.Index(text, "2020.002.00.00.00")
	second := strings.Index(text, "2020.003.00.00.00")
	third := strings.Index(text, "2020.001.00.00.00")
	if first < 0 || !(first < second && second < third) {
		t.Fatalf("expected backazimuth order:\n%s", text)
	}
	if !strings.Contains(text, "15.50") {
		t.Fatalf("expected formatted backazimuth:\n%s", text)
	}
	entries, err := os.ReadDir(stationDir)
	if err != nil {
		t.Fatalf("read station dir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("list must not touch the station directory, found %d entries", len(entries))
	}
}

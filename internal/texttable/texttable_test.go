package texttable

import (
	"strings"
	"testing"
)

func TestRenderAlignsColumns(t *testing.T) {
	out := Render([]string{"Event", "BAZ"}, [][]string{
		{"2019.064.04.05.06", "5.00"},
		{"2019.100.01.02.03", "270.25"},
		{"short"},
	}, map[int]bool{1: true})
	lines := strings.Split(out, "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "╭") {
		t.Fatalf("expected rounded border, got %q", lines[0])
	}
	if !strings.Contains(lines[3], "   5.00 │") {
		t.Fatalf("expected right aligned value, got %q", lines[3])
	}
	if !strings.Contains(out, "short") {
		t.Fatalf("expected short row to render")
	}
}

func TestRenderNoHeaders(t *testing.T) {
	if Render(nil, [][]string{{"a"}}, nil) != "" {
		t.Fatalf("expected empty output without headers")
	}
}

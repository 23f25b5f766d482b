package plot

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"

	"github.com/pkg/browser"

	"github.com/verte-zerg/rfpick/internal/model"
)

var quietBrowser sync.Once

// Viewer opens rendered summaries with the platform's default application.
type Viewer struct {
	goos     string
	lookPath func(string) (string, error)
	open     func(string) error
}

// NewViewer returns a viewer for the running platform.
func NewViewer() *Viewer {
	return &Viewer{goos: runtime.GOOS, lookPath: exec.LookPath, open: browser.OpenFile}
}

// Open hands path to the platform opener. The opener's own output is
// discarded so it cannot draw over the terminal UI.
func (v *Viewer) Open(path string) error {
	if err := v.available(); err != nil {
		return err
	}
	quietBrowser.Do(func() {
		browser.Stdout = io.Discard
		browser.Stderr = io.Discard
	})
	if err := v.open(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

func (v *Viewer) available() error {
	switch v.goos {
	case "darwin", "windows":
		return nil
	case "linux", "freebsd", "openbsd", "netbsd":
		if _, err := v.lookPath("xdg-open"); err != nil {
			return fmt.Errorf("%w: xdg-open not found on PATH", model.ErrMissingViewer)
		}
		return nil
	default:
		return fmt.Errorf("%w: no opener for %s", model.ErrMissingViewer, v.goos)
	}
}

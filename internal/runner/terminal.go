package runner

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/hupe1980/rewatch/internal/config"
)

// ClearSequence homes the cursor, erases the screen and drops the
// scrollback, which is what `tput reset` amounts to on modern terminals.
const ClearSequence = "\033[H\033[2J\033[3J"

// Terminal clears the visible output between builds.
type Terminal struct {
	w       io.Writer
	enabled bool
}

// NewTerminal resolves a clear mode against w. In auto mode clearing only
// happens when w is an interactive terminal.
func NewTerminal(w io.Writer, mode string) *Terminal {
	enabled := false

	switch mode {
	case config.ClearAlways:
		enabled = true
	case config.ClearAuto:
		enabled = IsTerminal(w)
	}

	return &Terminal{w: w, enabled: enabled}
}

// Enabled reports whether Clear writes anything.
func (t *Terminal) Enabled() bool { return t != nil && t.enabled }

// Clear erases the terminal when enabled.
func (t *Terminal) Clear() error {
	if !t.Enabled() {
		return nil
	}

	if _, err := io.WriteString(t.w, ClearSequence); err != nil {
		return fmt.Errorf("clearing terminal: %w", err)
	}

	return nil
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

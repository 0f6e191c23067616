package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Status prints the short human-facing lines around each build.
type Status struct {
	w     io.Writer
	now   func() time.Time
	info  *color.Color
	ok    *color.Color
	fail  *color.Color
	faint *color.Color
}

// NewStatus writes to w. Colour is used only when enabled is true.
func NewStatus(w io.Writer, enabled bool) *Status {
	s := &Status{
		w:     w,
		now:   time.Now,
		info:  color.New(color.FgCyan, color.Bold),
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed, color.Bold),
		faint: color.New(color.Faint),
	}

	for _, c := range []*color.Color{s.info, s.ok, s.fail, s.faint} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

func (s *Status) stamp() string {
	return s.faint.Sprintf("[%s]", s.now().Format("15:04:05"))
}

// Watching announces the start of watch mode.
func (s *Status) Watching(root, ext string, inv Invocation) {
	fmt.Fprintf(s.w, "%s watching %s for *%s changes → %s\n",
		s.stamp(), root, ext, s.info.Sprint(inv.String()))
}

// Started marks the beginning of a build triggered by path.
func (s *Status) Started(path string) {
	fmt.Fprintf(s.w, "%s %s %s\n", s.stamp(), s.info.Sprint("▶"), path)
}

// Finished reports the outcome of a build.
func (s *Status) Finished(res Result) {
	d := res.Duration.Round(time.Millisecond)

	if res.Success() {
		fmt.Fprintf(s.w, "%s %s (%s)\n", s.stamp(), s.ok.Sprint("✓ ok"), d)
		return
	}

	fmt.Fprintf(s.w, "%s %s (%s)\n", s.stamp(), s.fail.Sprintf("✗ exit %d", res.ExitCode), d)
}

// Failed reports a command that could not run at all.
func (s *Status) Failed(err error) {
	fmt.Fprintf(s.w, "%s %s %v\n", s.stamp(), s.fail.Sprint("✗"), err)
}

// Skipped reports a change dropped because a build was already running.
func (s *Status) Skipped(path string) {
	fmt.Fprintf(s.w, "%s %s %s\n", s.stamp(), s.faint.Sprint("… busy, skipped"), path)
}

// Stopped announces shutdown along with the number of builds started.
func (s *Status) Stopped(runs int64) {
	noun := "builds"
	if runs == 1 {
		noun = "build"
	}

	fmt.Fprintf(s.w, "\n%s shutting down watcher %s\n", s.stamp(), s.faint.Sprintf("(%d %s)", runs, noun))
}

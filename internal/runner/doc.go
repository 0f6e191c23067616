// Package runner executes the build command for a qualifying change:
// it clears the terminal, applies the busy policy and streams the
// command's output straight through to the invoking terminal.
package runner

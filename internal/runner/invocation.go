package runner

import (
	"errors"
	"fmt"

	"github.com/kballard/go-shellquote"
)

// ErrEmptyCommand is returned when a command line holds no words.
var ErrEmptyCommand = errors.New("empty command")

// Invocation is a fixed argument vector for the build command.
type Invocation struct {
	Args []string
}

// ParseInvocation splits line with POSIX shell quoting rules. No shell is
// involved at execution time, so operators such as && are passed as
// literal arguments.
func ParseInvocation(line string) (Invocation, error) {
	args, err := shellquote.Split(line)
	if err != nil {
		return Invocation{}, fmt.Errorf("parsing command %q: %w", line, err)
	}

	if len(args) == 0 {
		return Invocation{}, ErrEmptyCommand
	}

	return Invocation{Args: args}, nil
}

// Name is the program to run.
func (i Invocation) Name() string {
	if len(i.Args) == 0 {
		return ""
	}

	return i.Args[0]
}

// String renders the invocation back into a shell-safe command line.
func (i Invocation) String() string {
	return shellquote.Join(i.Args...)
}

// Package command classifies the positional command a user passed to
// rewatch into a closed set of variants.
package command

// Kind enumerates the recognised invocation shapes.
type Kind int

const (
	// Missing means no positional command was given.
	Missing Kind = iota
	// Run starts watch mode.
	Run
	// Unknown is any other positional command.
	Unknown
)

// RunName is the literal that selects watch mode.
const RunName = "run"

// Messages printed for the non-run variants.
const (
	MissingMessage = "No command provided"
	UnknownMessage = "Unknown command"
)

// Command is the parsed result of the positional arguments.
type Command struct {
	Kind Kind
	// Name is the raw first argument; empty for Missing.
	Name string
}

// Parse classifies args (without the program name). Only the first
// argument is consulted.
func Parse(args []string) Command {
	if len(args) == 0 {
		return Command{Kind: Missing}
	}

	if args[0] == RunName {
		return Command{Kind: Run, Name: args[0]}
	}

	return Command{Kind: Unknown, Name: args[0]}
}

// String returns a short name for the variant.
func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Run:
		return "run"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

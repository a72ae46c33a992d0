package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
)

// Errors in the command line: bad or missing options and arguments, unknown plots.  The program
// exits with status 2 for these.
var ErrUsage = errors.New("Bad arguments")

type SetRestArgumentsAPI interface {
	// Install any left-over arguments into the arguments object
	SetRestArguments(args []string)

	// For the usage line, eg "batch-id ..."
	RestArgumentsHelp() string
}

// Any command must be able to define and validate command line args, and handle some developer
// arguments.

type Command interface {
	// Return the name of the cpu profile file, if requested
	CpuProfileFile() string

	// Documentation, with formatting and line breaks
	Summary(out io.Writer)

	// Add all arguments including shared arguments
	Add(fs *CLI)

	// Validate all arguments including shared arguments
	Validate() error

	// The -v flag
	VerboseFlag() bool

	// Run the command.  The context is cancelled when the program is interrupted.
	Perform(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error
}

// Set up argument parsing for the command, perform it, and validate the result.  Errors wrap
// ErrUsage, except that flag.ErrHelp is returned as is if help was requested.

func ParseArgs(verb string, args []string, command Command, fs *CLI) error {
	command.Add(fs)
	err := fs.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	rest := fs.Args()
	if ra, ok := command.(SetRestArgumentsAPI); ok {
		ra.SetRestArguments(rest)
	} else if len(rest) > 0 {
		return fmt.Errorf("%w: Rest arguments not accepted by `%s`", ErrUsage, verb)
	}

	if err := command.Validate(); err != nil {
		return fmt.Errorf("%w\n%w", ErrUsage, err)
	}
	return nil
}

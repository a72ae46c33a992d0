// `hjta` -- pull job timing records from a batch scheduler and plot them
//
// Run `hjta help` for brief help, and `hjta <verb> -h` for the options of each verb.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"hjta/cmd"
	"hjta/cmd/plot"
	"hjta/cmd/pull"
	"hjta/cmd/serve"
	"hjta/cmd/version"
	. "hjta/common"
	"hjta/plots"
	"hjta/scheduler"
	"hjta/util/process"
)

func main() {
	os.Exit(hjta(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func commandHelp(out io.Writer, name string) {
	fmt.Fprintf(out, "Usage: %s command [options] [argument ...]\n", name)
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  pull     - pull job records for batches from the scheduler into a CSV file\n")
	fmt.Fprintf(out, "  plot     - render plots from a CSV file of job records\n")
	fmt.Fprintf(out, "  serve    - serve job records and plots over HTTP\n")
	fmt.Fprintf(out, "  version  - print information about the program\n")
	fmt.Fprintf(out, "  help     - print this message\n")
	fmt.Fprintf(out, "Each command accepts -h to further explain options.\n")
}

func constructCommand(verb string) cmd.Command {
	switch verb {
	case "pull":
		return new(pull.PullCommand)
	case "plot":
		return new(plot.PlotCommand)
	case "serve":
		return new(serve.ServeCommand)
	case "version":
		return new(version.VersionCommand)
	}
	return nil
}

// Returns the exit code: 0 for success, 2 for usage errors, 1 for anything else.

func hjta(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	Log.SetStderr(stderr)
	name := args[0]

	if len(args) < 2 {
		fmt.Fprintf(stderr, "Required operation missing, try `%s help`\n", name)
		return 2
	}
	verb := args[1]
	switch verb {
	case "help", "-h", "--help":
		commandHelp(stdout, name)
		return 0
	}
	command := constructCommand(verb)
	if command == nil {
		fmt.Fprintf(stderr, "Unknown operation %s, try `%s help`\n", verb, name)
		return 2
	}

	if err := LoadDefaults(); err != nil {
		fmt.Fprintf(stderr, "Bad defaults file: %v\n", err)
		return 2
	}

	fs := cmd.NewCLI(verb, command, name, stderr)
	if err := cmd.ParseArgs(verb, args[2:], command, fs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%v\nTry -h\n", err)
		return 2
	}

	if command.CpuProfileFile() != "" {
		f, err := os.Create(command.CpuProfileFile())
		if err != nil {
			fmt.Fprintf(stderr, "Failed to create profile: %v\n", err)
			return 1
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := process.InterruptContext()
	defer cancel()
	if err := command.Perform(ctx, stdin, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, cmd.ErrUsage),
		errors.Is(err, scheduler.ErrBadBatch),
		errors.Is(err, plots.ErrUnknownPlot):
		return 2
	default:
		return 1
	}
}

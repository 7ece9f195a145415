package main

import (
	"context"
	"fmt"
	"os"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// run dispatches a command and returns the process exit code.
// Arguments that do not name a command are treated as convert arguments,
// so "mdmermaid docs/" and "mdmermaid convert docs/" are the same.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch args[0] {
	case "convert":
		return runConvertCmd(ctx, args[1:], env)
	case "doctor":
		return runDoctorCmd(ctx, args[1:], env)
	case "completion":
		if err := runCompletion(args[1:], env); err != nil {
			fmt.Fprintln(env.Stderr, err)
			return exitCodeFor(err)
		}
		return ExitSuccess
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mdmermaid %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(args[1:], env)
		return ExitSuccess
	default:
		return runConvertCmd(ctx, args, env)
	}
}

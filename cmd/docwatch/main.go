// Command docwatch watches analysis results for uploaded documents from the
// terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docwatch/internal/config"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *cliEnv, args []string) error
}

// cliEnv carries what every sub-command needs.
type cliEnv struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
}

var commands = []command{
	{"watch", "watch <objectKey> [--out file] [--format html|pdf|xlsx|csv] [--interval 5s] [--max-attempts 60]", runWatch},
	{"upload", "upload <file> [--key objectKey] [--out file] [--format ...]", runUpload},
	{"evaluate", "evaluate <envelope.json>", runEvaluate},
	{"links", "links <objectKey>", runLinks},
	{"token", "token <subject> [--email addr] [--ttl 24h]", runToken},
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches args to a sub-command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	env := &cliEnv{cfg: cfg, stdout: stdout, stderr: stderr}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		if err := cmd.run(ctx, env, args[1:]); err != nil {
			fmt.Fprintf(stderr, "docwatch %s: %v\n", cmd.name, err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
	printUsage(stderr)
	return 2
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docwatch <command> [flags]")
	fmt.Fprintln(w)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  docwatch %s\n", cmd.usage)
	}
}

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"benchkeep/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	exitCode := run(ctx, os.Args[1:], os.Environ(), ".", os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode)
}

// run executes one benchmark command and returns the process exit code.
// It is separated from main() to enable testing.
func run(ctx context.Context, args, environ []string, dir string, stdout, stderr io.Writer) int {
	return cli.Run(ctx, args, cli.Env{
		Environ: environ,
		Dir:     dir,
		Stdout:  stdout,
		Stderr:  stderr,
	})
}

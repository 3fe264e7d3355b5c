// internal/appshell/shell.go
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

// Main is the shared process shell: it loads a .env file if present, wires
// SIGINT/SIGTERM into the context, runs the task, and exits. A run cut short
// by a signal exits 130 even when the task body returned 0.
func Main(run func(ctx context.Context, argv []string, getenv func(string) string, stdout, stderr io.Writer) int) {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}

	stop()
	os.Exit(code)
}

// Package main implements the vocab command, a terminal front end to the
// spaced-repetition vocabulary store: add words, review what is due, inspect
// statistics, import word lists and run the due-review reminder.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// Command caseobserver is the operator front end of the case observer
// dashboard: it logs in, keeps the session per session id and lists the
// user's court cases and notifications.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(os.Stdin, os.Stdout, os.Stderr)
	if err := run(ctx, rt, os.Args[1:]); err != nil {
		rt.printError(err)
		stop()
		os.Exit(1)
	}
}

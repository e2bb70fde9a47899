package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := newEnvApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	_ = a.close()
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

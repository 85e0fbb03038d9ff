package main

import (
	"context"
	"os"
	"time"

	"todoui/cmd/todoui/cmd"
	"todoui/internal/shutdown"
)

func main() {
	mgr := shutdown.NewManager(context.Background())
	stop := mgr.Listen()

	code := cmd.ExecuteContext(mgr.Context(), os.Args[1:], os.Stdout, os.Stderr, &cmd.Config{Shutdown: mgr})

	stop()
	mgr.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = mgr.Wait(ctx)
	cancel()

	if mgr.Signal() != nil && code == 0 {
		code = 130
	}
	os.Exit(code)
}

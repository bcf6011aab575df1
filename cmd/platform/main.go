// Command platform runs the multi-site HTTP server. One process serves
// every brand; the request host decides which site answers.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/webatelier/platform/internal/runtime"
)

func main() {
	app, err := runtime.NewApplication()
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
}

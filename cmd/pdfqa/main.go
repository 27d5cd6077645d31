// Command pdfqa answers questions about PDF documents.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/pdfqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/pdfqa/internal/app"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = ""

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(app.Bootstrap)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

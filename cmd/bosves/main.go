// BosVes API - incoming wagon weighing records
//
// This is the main entry point for the BosVes API. The default command
// serves the HTTP API; the other commands help operate it:
//
//	bosves serve        run the API server (default)
//	bosves migrate      apply, roll back or list schema migrations
//	bosves token        issue an access token from the configured secret
//	bosves hash-secret  hash an API client secret for security.clients
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/bosves/bosves-api/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Cancel on Ctrl+C and SIGTERM for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

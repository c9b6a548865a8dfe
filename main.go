// Package main provides the entry point for AnyConnect AutoLogin.
// AutoLogin opens the Cisco AnyConnect Secure Mobility Client, connects to
// the configured domain and fills in the login window, handling the
// certificate, group and terms popups along the way.
//
// Usage:
//
//	autologin [command] [flags]
//
// Environment:
//
//	The Cisco AnyConnect client must be installed (Windows only).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yllada/anyconnect-autologin/cli"
	"github.com/yllada/anyconnect-autologin/common"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	code := cli.Execute(ctx, cli.BuildInfo{
		Version:   appVersion,
		BuildTime: buildTime,
		Commit:    commitSHA,
	}, os.Args[1:])

	cancel()
	os.Exit(code)
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM so the login
// stops at its next wait.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, stopping...", sig)
		cancel()
	}()
}

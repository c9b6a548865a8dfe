// Package common provides shared constants, types, and utilities
// used throughout the AnyConnect AutoLogin application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like timeouts and file names
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Logger: zap-backed logging with console and rotated file output
//   - Utils: Config, data and log directory helpers
//
// # Usage
//
//	// Use constants
//	timeout := common.WindowTimeout
//
//	// Use logger
//	common.LogInfo("Waiting for window %q", title)
//
//	// Check errors
//	if errors.Is(err, common.ErrWindowNotFound) {
//	    // Handle missing window
//	}
package common

// Package common provides shared constants, types, and utilities
// used across the AnyConnect AutoLogin application.
package common

import "errors"

// Sentinel errors for automation and login operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// UI element errors.
	ErrElementNotFound   = errors.New("ui element not found")
	ErrWindowNotFound    = errors.New("window not found")
	ErrControlNotFound   = errors.New("control not found")
	ErrControlNotVisible = errors.New("control not visible")
	ErrInvalidSelector   = errors.New("invalid control selector")

	// Login flow errors.
	ErrClientNotInstalled     = errors.New("vpn client not installed")
	ErrUntrustedServerBlocked = errors.New("untrusted server blocked")
	ErrGroupNotFound          = errors.New("group not found")
	ErrGroupNotConfigured     = errors.New("group not configured")
	ErrAlreadyConnected       = errors.New("vpn already connected")
	ErrNotConnected           = errors.New("no active connection")
	ErrTimeout                = errors.New("operation timed out")
	ErrCancelled              = errors.New("operation cancelled")

	// Platform errors.
	ErrUnsupportedPlatform = errors.New("desktop automation is only supported on windows")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")

	// Configuration errors.
	ErrConfigMissing = errors.New("configuration file missing")
	ErrConfigLoad    = errors.New("failed to load configuration")
	ErrConfigSave    = errors.New("failed to save configuration")
	ErrConfigInvalid = errors.New("invalid configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}

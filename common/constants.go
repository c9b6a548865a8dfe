// Package common provides shared constants, types, and utilities
// used across the AnyConnect AutoLogin application.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.anyconnect.autologin"
	// AppName is the display name of the application.
	AppName = "AnyConnect AutoLogin"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "anyconnect-autologin"
	// DialogTitle is the caption of the modal error dialog.
	DialogTitle = "CiscoVPN_AutoLogin"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	EnvFileName         = ".env"
	HistoryFileName     = "history.db"
	CredentialsFileName = ".credentials"
	LogFileName         = "autologin.log"
)

// Default timeouts and intervals.
const (
	// WindowTimeout is how long to wait for a required window to become active.
	WindowTimeout = 10 * time.Second
	// CertificateTimeout is how long to wait for the untrusted certificate popup.
	CertificateTimeout = 8 * time.Second
	// TermsTimeout is how long to wait for the terms and conditions popup.
	TermsTimeout = 4 * time.Second
	// PollInterval is how often a control's enabled state is re-checked.
	PollInterval = 100 * time.Millisecond
	// SettleDelay is slept after a control becomes enabled again.
	SettleDelay = 500 * time.Millisecond
)

// DefaultClientPath is where the AnyConnect installer puts the GUI client.
const DefaultClientPath = `C:\Program Files (x86)\Cisco\Cisco AnyConnect Secure Mobility Client\vpnui.exe`

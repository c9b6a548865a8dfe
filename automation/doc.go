// Package automation drives the windows and controls of another desktop
// application.
//
// It provides the small set of operations the AnyConnect login sequence
// needs, modelled on AutoIt's window and control commands:
//
//   - Windows are named by title (matched per MatchMode) and optional text
//   - Controls are named by Selector, e.g. "[CLASS:Button; TEXT:OK; INSTANCE:1]"
//   - Desktop waits for windows, reads and writes control text, clicks
//     buttons and drives combo boxes
//   - Notifier shows the blocking error dialog
//
// The Win32 backend lives in desktop_windows.go. On other platforms
// NewDesktop returns common.ErrUnsupportedPlatform.
package automation

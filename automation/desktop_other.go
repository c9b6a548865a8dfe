//go:build !windows

package automation

import (
	"os"

	"github.com/yllada/anyconnect-autologin/common"
)

// NewDesktop is only implemented on Windows.
func NewDesktop(opts Options) (Desktop, error) {
	return nil, common.ErrUnsupportedPlatform
}

// NewNotifier returns a notifier writing to stderr.
func NewNotifier() Notifier {
	return ConsoleNotifier{W: os.Stderr}
}

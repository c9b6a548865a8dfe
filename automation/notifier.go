package automation

import (
	"fmt"
	"io"
)

// Notifier shows a blocking error message to the user.
type Notifier interface {
	// ShowError blocks until the user acknowledges the message.
	ShowError(title, message string) error
}

// ConsoleNotifier writes the error to W instead of opening a dialog.
type ConsoleNotifier struct {
	W io.Writer
}

// ShowError implements Notifier.
func (n ConsoleNotifier) ShowError(title, message string) error {
	_, err := fmt.Fprintf(n.W, "%s: %s\n", title, message)
	return err
}

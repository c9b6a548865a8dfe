package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusMarker = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	successText  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningText  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// styledReporter prints login status lines with a colored marker.
type styledReporter struct {
	w io.Writer
}

func newStyledReporter(w io.Writer) styledReporter {
	return styledReporter{w: w}
}

// Status implements login.Reporter.
func (r styledReporter) Status(msg string) {
	style := lipgloss.NewStyle()
	switch msg {
	case "Auto login script completed successfully", "Disconnected":
		style = successText
	case "VPN is already connected, disconnecting", "Accepted untrusted server certificate":
		style = warningText
	}
	fmt.Fprintf(r.w, "%s %s\n", statusMarker.Render("--"), style.Render(msg))
}

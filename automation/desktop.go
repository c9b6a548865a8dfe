package automation

import (
	"context"
	"time"
)

// Desktop is the GUI automation capability consumed by the login flow.
//
// Control queries on a control that does not exist report false rather than
// an error, the way AutoIt's ControlCommand returns 0. Text and click
// operations return common.ErrControlNotFound.
type Desktop interface {
	// Launch starts the executable at path without waiting for it.
	Launch(path string) error
	// WaitActive waits until w is the foreground window or timeout elapses.
	WaitActive(ctx context.Context, w Window, timeout time.Duration) (bool, error)
	// Exists reports whether a window matching w is open.
	Exists(w Window) (bool, error)
	// Close asks the window to close.
	Close(w Window) error

	ControlText(w Window, sel Selector) (string, error)
	SetControlText(w Window, sel Selector, text string) error
	Click(w Window, sel Selector) error
	IsVisible(w Window, sel Selector) (bool, error)
	IsEnabled(w Window, sel Selector) (bool, error)

	ComboAddString(w Window, sel Selector, item string) error
	ComboSelectString(w Window, sel Selector, item string) error
	ComboSelection(w Window, sel Selector) (string, error)
}

// Options configures a Desktop backend.
type Options struct {
	// MatchMode is used for every window title comparison.
	MatchMode MatchMode
	// PollInterval is how often WaitActive re-checks the foreground window.
	PollInterval time.Duration
	// MessageTimeout bounds each message sent to another process.
	MessageTimeout time.Duration
}

// DefaultOptions returns exact title matching with AutoIt's 250ms poll.
func DefaultOptions() Options {
	return Options{
		MatchMode:      MatchExact,
		PollInterval:   250 * time.Millisecond,
		MessageTimeout: 5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MatchMode == 0 {
		o.MatchMode = d.MatchMode
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.MessageTimeout <= 0 {
		o.MessageTimeout = d.MessageTimeout
	}
	return o
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

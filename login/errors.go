package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/yllada/anyconnect-autologin/automation"
	"github.com/yllada/anyconnect-autologin/common"
)

// Step names a stage of the login sequence.
type Step string

const (
	StepOpenClient       Step = "open-client"
	StepConnectDomain    Step = "connect-domain"
	StepCertificateCheck Step = "certificate-check"
	StepCredentials      Step = "credentials"
	StepGroupSelect      Step = "group-select"
	StepTerms            Step = "terms"
	StepDisconnect       Step = "disconnect"
)

// stopNotice is appended to every message shown in the error dialog.
const stopNotice = "\n\nScript will STOP now. Verify the error and restart the script."

// StepError reports a UI element that was missing or in the wrong state.
// Message is the text shown to the user; Err is one of the common sentinels.
type StepError struct {
	Step    Step
	Window  string
	Control string
	Message string
	Err     error
}

func (e *StepError) Error() string {
	return e.Message
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// DialogMessage returns the text for the modal error dialog.
func DialogMessage(err error) string {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Message + stopNotice
	}
	return err.Error() + stopNotice
}

// FailedStep returns the step a login error happened in, or "".
func FailedStep(err error) Step {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}

func (r *Runner) fail(sentinel error, w automation.Window, sel *automation.Selector, format string, args ...interface{}) *StepError {
	e := &StepError{
		Step:    r.step,
		Window:  w.Title,
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
	if sel != nil {
		e.Control = sel.String()
	}
	common.LogError("[%s] %s", r.step, e.Message)
	return e
}

// wrapDesktop turns a backend failure into a StepError. Context errors
// become common.ErrCancelled so the caller can tell an interrupt from a
// missing element.
func (r *Runner) wrapDesktop(err error, w automation.Window, sel *automation.Selector, action string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s during %s", common.ErrCancelled, action, r.step)
	}
	target := w.Title
	if sel != nil {
		target = fmt.Sprintf("%s in '%s'", sel, w.Title)
	}
	return r.fail(fmt.Errorf("%w: %v", common.ErrElementNotFound, err), w, sel,
		"Unable to %s %s: %v", action, target, err)
}

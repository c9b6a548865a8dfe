package login

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/yllada/anyconnect-autologin/automation"
	"github.com/yllada/anyconnect-autologin/common"
	"github.com/yllada/anyconnect-autologin/config"
)

// Reporter receives the console status lines of a run.
type Reporter interface {
	Status(msg string)
}

// WriterReporter prints status lines prefixed with "-- ".
type WriterReporter struct {
	W io.Writer
}

// Status implements Reporter.
func (r WriterReporter) Status(msg string) {
	fmt.Fprintf(r.W, "-- %s\n", msg)
}

// Runner drives the AnyConnect windows through one login.
type Runner struct {
	desktop  automation.Desktop
	cfg      *config.Config
	password string
	reporter Reporter

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	step Step
}

// Option configures a Runner.
type Option func(*Runner)

// WithReporter sets where status lines go.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) {
		r.reporter = rep
	}
}

// NewRunner creates a runner for cfg. password is the already resolved
// login password.
func NewRunner(desktop automation.Desktop, cfg *config.Config, password string, opts ...Option) *Runner {
	r := &Runner{
		desktop:  desktop,
		cfg:      cfg,
		password: password,
		reporter: WriterReporter{W: io.Discard},
		sleep:    automation.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) status(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	common.LogDebug("status: %s", msg)
	r.reporter.Status(msg)
}

func (r *Runner) begin(step Step) {
	r.step = step
	common.LogDebug("Starting step %s", step)
}

// Run performs the whole login sequence. It returns common.ErrAlreadyConnected
// when an existing session was found and disconnected instead.
func (r *Runner) Run(ctx context.Context) error {
	r.status("Auto login script started")

	if err := r.OpenClient(); err != nil {
		return err
	}
	if err := r.ConnectToDomain(ctx); err != nil {
		return err
	}
	if r.cfg.CheckCertificate.Bool() {
		if err := r.CheckCertificateWarning(ctx); err != nil {
			return err
		}
	}
	if err := r.LoginWithCredentials(ctx); err != nil {
		return err
	}
	if r.cfg.AcceptTerms.Bool() {
		if err := r.AcceptTerms(ctx); err != nil {
			return err
		}
	}

	r.status("Auto login script completed successfully")
	return nil
}

// OpenClient launches the AnyConnect GUI.
func (r *Runner) OpenClient() error {
	r.begin(StepOpenClient)

	if !common.FileExists(r.cfg.ClientPath) {
		return r.fail(common.ErrClientNotInstalled, automation.Window{}, nil,
			"'INSTALL CiscoVPN' or 'Enter the correct path in CONFIG file'.")
	}

	r.status("Opening AnyConnect")
	if err := r.desktop.Launch(r.cfg.ClientPath); err != nil {
		return r.fail(fmt.Errorf("%w: %v", common.ErrClientNotInstalled, err), automation.Window{}, nil,
			"Unable to start '%s': %v", r.cfg.ClientPath, err)
	}
	return nil
}

// ConnectToDomain fills in the domain in the main window and clicks Connect.
// An already connected client is disconnected instead and
// common.ErrAlreadyConnected is returned.
func (r *Runner) ConnectToDomain(ctx context.Context) error {
	r.begin(StepConnectDomain)
	w := MainWindow

	if err := r.WaitForWindow(ctx, w, r.cfg.Timeouts.Window, false); err != nil {
		return err
	}

	connected, err := r.desktop.IsVisible(w, DisconnectButton)
	if err != nil {
		return r.wrapDesktop(err, w, &DisconnectButton, "query")
	}
	if connected {
		if err := r.disconnectSession(ctx); err != nil {
			return err
		}
		return common.ErrAlreadyConnected
	}

	if err := r.CheckVisible(w, DomainTextbox); err != nil {
		return err
	}
	if err := r.CheckVisible(w, DomainDropdown); err != nil {
		return err
	}

	current, err := r.desktop.ControlText(w, DomainTextbox)
	if err != nil {
		return r.wrapDesktop(err, w, &DomainTextbox, "read")
	}

	if current != r.cfg.Domain {
		common.LogInfo("Domain is %q, switching to %q", current, r.cfg.Domain)
		if err := r.selectDomain(w); err != nil {
			return err
		}
	}

	if err := r.desktop.Click(w, ConnectButton); err != nil {
		return r.wrapDesktop(err, w, &ConnectButton, "click")
	}
	r.status("Connecting to domain")
	return nil
}

// selectDomain adds the domain to the dropdown history and selects it. When
// the selection does not reach the edit box the text is typed in directly.
func (r *Runner) selectDomain(w automation.Window) error {
	domain := r.cfg.Domain

	if err := r.desktop.ComboAddString(w, DomainDropdown, domain); err != nil {
		return r.wrapDesktop(err, w, &DomainDropdown, "add domain to")
	}
	if err := r.desktop.ComboSelectString(w, DomainDropdown, domain); err != nil {
		common.LogWarn("Selecting %q failed: %v", domain, err)
	}

	text, err := r.desktop.ControlText(w, DomainTextbox)
	if err != nil {
		return r.wrapDesktop(err, w, &DomainTextbox, "read")
	}
	if text == domain {
		return nil
	}
	if err := r.desktop.SetControlText(w, DomainTextbox, domain); err != nil {
		return r.wrapDesktop(err, w, &DomainTextbox, "set")
	}
	return nil
}

// disconnectSession clicks Disconnect, waits for the client to report it is
// ready again and closes the main window.
func (r *Runner) disconnectSession(ctx context.Context) error {
	r.status("VPN is already connected, disconnecting")
	w := MainWindow

	if err := r.desktop.Click(w, DisconnectButton); err != nil {
		return r.wrapDesktop(err, w, &DisconnectButton, "click")
	}
	if err := r.WaitForWindow(ctx, ReadyWindow, r.cfg.Timeouts.Window, false); err != nil {
		return err
	}
	if err := r.desktop.Close(ReadyWindow); err != nil {
		return r.wrapDesktop(err, ReadyWindow, nil, "close")
	}
	r.status("Disconnected")
	return nil
}

// Disconnect ends an active session. It returns common.ErrNotConnected when
// the client shows no Disconnect button.
func (r *Runner) Disconnect(ctx context.Context) error {
	r.begin(StepDisconnect)
	w := MainWindow

	if err := r.WaitForWindow(ctx, w, r.cfg.Timeouts.Window, false); err != nil {
		return err
	}
	connected, err := r.desktop.IsVisible(w, DisconnectButton)
	if err != nil {
		return r.wrapDesktop(err, w, &DisconnectButton, "query")
	}
	if !connected {
		return common.ErrNotConnected
	}
	return r.disconnectSession(ctx)
}

// CheckCertificateWarning handles the untrusted server certificate popup.
// The popup is optional; a blocked server is reported as an error.
func (r *Runner) CheckCertificateWarning(ctx context.Context) error {
	r.begin(StepCertificateCheck)

	if err := r.WaitForWindow(ctx, CertificateWarning, r.cfg.Timeouts.Certificate, true); err != nil {
		return err
	}

	blocked, err := r.desktop.Exists(CertificateBlocked)
	if err != nil {
		return r.wrapDesktop(err, CertificateBlocked, nil, "find")
	}
	if blocked {
		if err := r.CheckVisible(CertificateBlocked, KeepMeSafeButton); err != nil {
			return err
		}
		return r.fail(common.ErrUntrustedServerBlocked, CertificateBlocked, nil,
			"Fix certification issue and rerun the script..")
	}

	warning, err := r.desktop.Exists(CertificateWarning)
	if err != nil {
		return r.wrapDesktop(err, CertificateWarning, nil, "find")
	}
	if !warning {
		common.LogInfo("No certificate warning shown")
		return nil
	}

	if err := r.CheckVisible(CertificateWarning, ConnectAnywayButton); err != nil {
		return err
	}
	if err := r.desktop.Click(CertificateWarning, ConnectAnywayButton); err != nil {
		return r.wrapDesktop(err, CertificateWarning, &ConnectAnywayButton, "click")
	}
	r.status("Accepted untrusted server certificate")
	return nil
}

// LoginWithCredentials fills in the login window and clicks OK.
func (r *Runner) LoginWithCredentials(ctx context.Context) error {
	r.begin(StepCredentials)
	w := LoginWindow(r.cfg.Domain)

	if err := r.WaitForWindow(ctx, w, r.cfg.Timeouts.Window, false); err != nil {
		return err
	}

	for _, sel := range []automation.Selector{UsernameTextbox, PasswordTextbox, OKButton} {
		if err := r.CheckVisible(w, sel); err != nil {
			return err
		}
	}

	if err := r.SelectGroup(ctx, w); err != nil {
		return err
	}
	r.begin(StepCredentials)

	if err := r.desktop.SetControlText(w, UsernameTextbox, r.cfg.Username); err != nil {
		return r.wrapDesktop(err, w, &UsernameTextbox, "set")
	}
	if err := r.desktop.SetControlText(w, PasswordTextbox, r.password); err != nil {
		return r.wrapDesktop(err, w, &PasswordTextbox, "set")
	}
	if err := r.desktop.Click(w, OKButton); err != nil {
		return r.wrapDesktop(err, w, &OKButton, "click")
	}
	r.status("Logging in as %s", r.cfg.Username)
	return nil
}

// SelectGroup picks the configured group when the login window shows a group
// dropdown. Selecting a group briefly disables the window, so it waits for
// OK to be enabled again.
func (r *Runner) SelectGroup(ctx context.Context, w automation.Window) error {
	r.begin(StepGroupSelect)

	visible, err := r.desktop.IsVisible(w, GroupDropdown)
	if err != nil {
		return r.wrapDesktop(err, w, &GroupDropdown, "query")
	}
	if !visible {
		return nil
	}

	group := r.cfg.Group
	if group == "" {
		return r.fail(common.ErrGroupNotConfigured, w, &GroupDropdown,
			"Enter valid GROUP inside CONFIG file")
	}

	current, err := r.desktop.ComboSelection(w, GroupDropdown)
	if err != nil {
		return r.wrapDesktop(err, w, &GroupDropdown, "read")
	}
	if current == group {
		return nil
	}

	selectErr := r.desktop.ComboSelectString(w, GroupDropdown, group)
	selected, err := r.desktop.ComboSelection(w, GroupDropdown)
	if selectErr != nil || err != nil || selected != group {
		return r.fail(common.ErrGroupNotFound, w, &GroupDropdown,
			"Unable to find 'GROUP: %s'. Check it in CONFIG file.", group)
	}

	return r.WaitTillControlEnabled(ctx, w, OKButton)
}

// AcceptTerms clicks Accept on the terms and conditions popup if it shows up.
func (r *Runner) AcceptTerms(ctx context.Context) error {
	r.begin(StepTerms)

	if err := r.WaitForWindow(ctx, TermsWindow, r.cfg.Timeouts.Terms, true); err != nil {
		return err
	}

	exists, err := r.desktop.Exists(TermsWindow)
	if err != nil {
		return r.wrapDesktop(err, TermsWindow, nil, "find")
	}
	if !exists {
		return nil
	}

	if err := r.CheckVisible(TermsWindow, AcceptButton); err != nil {
		return err
	}
	if err := r.desktop.Click(TermsWindow, AcceptButton); err != nil {
		return r.wrapDesktop(err, TermsWindow, &AcceptButton, "click")
	}
	r.status("Accepted terms and conditions")
	return nil
}

// WaitForWindow waits up to timeout for w to become active. A required window
// that is not open afterwards is an error; an optional one is not.
func (r *Runner) WaitForWindow(ctx context.Context, w automation.Window, timeout time.Duration, optional bool) error {
	common.LogDebug("Waiting up to %v for window %s", timeout, w)

	active, err := r.desktop.WaitActive(ctx, w, timeout)
	if err != nil {
		return r.wrapDesktop(err, w, nil, "wait for")
	}
	if active || optional {
		return nil
	}

	exists, err := r.desktop.Exists(w)
	if err != nil {
		return r.wrapDesktop(err, w, nil, "find")
	}
	if !exists {
		return r.fail(common.ErrWindowNotFound, w, nil,
			"'%s' : unable to locate this window title", w.Title)
	}
	common.LogWarn("Window %s is open but not active", w)
	return nil
}

// CheckVisible fails when sel is not visible in w.
func (r *Runner) CheckVisible(w automation.Window, sel automation.Selector) error {
	visible, err := r.desktop.IsVisible(w, sel)
	if err != nil {
		return r.wrapDesktop(err, w, &sel, "query")
	}
	if !visible {
		return r.fail(common.ErrControlNotVisible, w, &sel,
			"CONTROL NOT VISIBLE\nwindowtitle=%s\ncontrolID=%s", w.Title, sel)
	}
	return nil
}

// WaitTillControlEnabled polls until sel is enabled or the window timeout
// passes, then gives the client a moment to settle. Running out of time is
// not an error here; the next interaction reports it.
func (r *Runner) WaitTillControlEnabled(ctx context.Context, w automation.Window, sel automation.Selector) error {
	deadline := r.now().Add(r.cfg.Timeouts.Window)

	for {
		enabled, err := r.desktop.IsEnabled(w, sel)
		if err != nil {
			return r.wrapDesktop(err, w, &sel, "query")
		}
		if enabled {
			break
		}
		if !r.now().Before(deadline) {
			common.LogWarn("%s in '%s' still disabled after %v", sel, w.Title, r.cfg.Timeouts.Window)
			break
		}
		if err := r.sleep(ctx, r.cfg.Timeouts.Poll); err != nil {
			return r.wrapDesktop(err, w, &sel, "wait for")
		}
	}

	if err := r.sleep(ctx, r.cfg.Timeouts.Settle); err != nil {
		return r.wrapDesktop(err, w, &sel, "wait for")
	}
	return nil
}

// IsCancelled reports whether err came from an interrupted run.
func IsCancelled(err error) bool {
	return errors.Is(err, common.ErrCancelled)
}

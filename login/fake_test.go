package login

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yllada/anyconnect-autologin/automation"
	"github.com/yllada/anyconnect-autologin/common"
	"github.com/yllada/anyconnect-autologin/config"
)

type controlKey struct {
	window automation.Window
	sel    string
}

type fakeControl struct {
	text     string
	visible  bool
	enabled  bool
	items    []string
	selected string

	// disabledPolls makes IsEnabled report false this many times first.
	disabledPolls int
}

// fakeDesktop is an in-memory Desktop. Windows are open or closed; open
// windows are always active.
type fakeDesktop struct {
	open     map[automation.Window]bool
	controls map[controlKey]*fakeControl
	onClick  map[controlKey]func()

	launched []string
	clicks   []string
	closed   []automation.Window
	waits    []automation.Window

	waitErr error
}

func newFakeDesktop() *fakeDesktop {
	return &fakeDesktop{
		open:     make(map[automation.Window]bool),
		controls: make(map[controlKey]*fakeControl),
		onClick:  make(map[controlKey]func()),
	}
}

func (f *fakeDesktop) add(w automation.Window, sel automation.Selector, c *fakeControl) *fakeControl {
	f.controls[controlKey{w, sel.String()}] = c
	return c
}

func (f *fakeDesktop) control(w automation.Window, sel automation.Selector) (*fakeControl, error) {
	if !f.open[w] {
		return nil, fmt.Errorf("%w: %s", common.ErrWindowNotFound, w)
	}
	c, ok := f.controls[controlKey{w, sel.String()}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrControlNotFound, sel)
	}
	return c, nil
}

func (f *fakeDesktop) when(w automation.Window, sel automation.Selector, fn func()) {
	f.onClick[controlKey{w, sel.String()}] = fn
}

func (f *fakeDesktop) Launch(path string) error {
	f.launched = append(f.launched, path)
	return nil
}

func (f *fakeDesktop) WaitActive(ctx context.Context, w automation.Window, timeout time.Duration) (bool, error) {
	f.waits = append(f.waits, w)
	if f.waitErr != nil {
		return false, f.waitErr
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.open[w], nil
}

func (f *fakeDesktop) Exists(w automation.Window) (bool, error) {
	return f.open[w], nil
}

func (f *fakeDesktop) Close(w automation.Window) error {
	if !f.open[w] {
		return common.ErrWindowNotFound
	}
	delete(f.open, w)
	f.closed = append(f.closed, w)
	return nil
}

func (f *fakeDesktop) ControlText(w automation.Window, sel automation.Selector) (string, error) {
	c, err := f.control(w, sel)
	if err != nil {
		return "", err
	}
	return c.text, nil
}

func (f *fakeDesktop) SetControlText(w automation.Window, sel automation.Selector, text string) error {
	c, err := f.control(w, sel)
	if err != nil {
		return err
	}
	c.text = text
	return nil
}

func (f *fakeDesktop) Click(w automation.Window, sel automation.Selector) error {
	if _, err := f.control(w, sel); err != nil {
		return err
	}
	f.clicks = append(f.clicks, w.Title+" "+sel.String())
	if fn, ok := f.onClick[controlKey{w, sel.String()}]; ok {
		fn()
	}
	return nil
}

func (f *fakeDesktop) IsVisible(w automation.Window, sel automation.Selector) (bool, error) {
	c, err := f.control(w, sel)
	if err != nil {
		return false, nil
	}
	return c.visible, nil
}

func (f *fakeDesktop) IsEnabled(w automation.Window, sel automation.Selector) (bool, error) {
	c, err := f.control(w, sel)
	if err != nil {
		return false, nil
	}
	if c.disabledPolls > 0 {
		c.disabledPolls--
		return false, nil
	}
	return c.enabled, nil
}

func (f *fakeDesktop) ComboAddString(w automation.Window, sel automation.Selector, item string) error {
	c, err := f.control(w, sel)
	if err != nil {
		return err
	}
	c.items = append(c.items, item)
	return nil
}

func (f *fakeDesktop) ComboSelectString(w automation.Window, sel automation.Selector, item string) error {
	c, err := f.control(w, sel)
	if err != nil {
		return err
	}
	for _, it := range c.items {
		if it == item {
			c.selected = item
			return nil
		}
	}
	return fmt.Errorf("%q not found", item)
}

func (f *fakeDesktop) ComboSelection(w automation.Window, sel automation.Selector) (string, error) {
	c, err := f.control(w, sel)
	if err != nil {
		return "", err
	}
	return c.selected, nil
}

var _ automation.Desktop = (*fakeDesktop)(nil)

// recorder collects status lines.
type recorder struct {
	lines []string
}

func (r *recorder) Status(msg string) {
	r.lines = append(r.lines, msg)
}

const testDomain = "vpn.example.com"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	client := filepath.Join(t.TempDir(), "vpnui.exe")
	if err := os.WriteFile(client, []byte("MZ"), 0700); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.ClientPath = client
	cfg.Domain = testDomain
	cfg.Username = "alice"
	cfg.Timeouts = config.Timeouts{
		Window:      time.Second,
		Certificate: time.Second,
		Terms:       time.Second,
		Poll:        100 * time.Millisecond,
		Settle:      500 * time.Millisecond,
	}
	return cfg
}

// scenario is a client that shows the main window on launch and the login
// window after Connect.
type scenario struct {
	desktop  *fakeDesktop
	domain   *fakeControl
	combo    *fakeControl
	username *fakeControl
	password *fakeControl
	ok       *fakeControl
	login    automation.Window
}

func newScenario() *scenario {
	f := newFakeDesktop()
	s := &scenario{desktop: f, login: LoginWindow(testDomain)}

	f.open[MainWindow] = true
	s.domain = f.add(MainWindow, DomainTextbox, &fakeControl{text: testDomain, visible: true, enabled: true})
	s.combo = f.add(MainWindow, DomainDropdown, &fakeControl{visible: true, enabled: true})
	f.add(MainWindow, ConnectButton, &fakeControl{visible: true, enabled: true})

	s.username = f.add(s.login, UsernameTextbox, &fakeControl{visible: true, enabled: true})
	s.password = f.add(s.login, PasswordTextbox, &fakeControl{visible: true, enabled: true})
	s.ok = f.add(s.login, OKButton, &fakeControl{visible: true, enabled: true})

	f.when(MainWindow, ConnectButton, func() { f.open[s.login] = true })
	f.when(s.login, OKButton, func() { delete(f.open, s.login) })
	return s
}

// withGroup adds a visible group dropdown to the login window.
func (s *scenario) withGroup(selected string, items ...string) *fakeControl {
	return s.desktop.add(s.login, GroupDropdown,
		&fakeControl{visible: true, enabled: true, items: items, selected: selected})
}

// withTerms shows the terms popup once OK is clicked.
func (s *scenario) withTerms() {
	f := s.desktop
	f.add(TermsWindow, AcceptButton, &fakeControl{visible: true, enabled: true})
	f.when(s.login, OKButton, func() {
		delete(f.open, s.login)
		f.open[TermsWindow] = true
	})
	f.when(TermsWindow, AcceptButton, func() { delete(f.open, TermsWindow) })
}

// alreadyConnected shows a Disconnect button that brings the client back to
// "Ready to connect." when clicked.
func (s *scenario) alreadyConnected() {
	f := s.desktop
	f.add(MainWindow, DisconnectButton, &fakeControl{visible: true, enabled: true})
	f.when(MainWindow, DisconnectButton, func() { f.open[ReadyWindow] = true })
}

// fakeClock advances only when the runner sleeps.
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	return nil
}

func newTestRunner(s *scenario, cfg *config.Config) (*Runner, *recorder, *fakeClock) {
	rec := &recorder{}
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := NewRunner(s.desktop, cfg, "s3cret", WithReporter(rec))
	r.sleep = clock.sleep
	r.now = clock.now
	return r, rec, clock
}

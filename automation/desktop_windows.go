//go:build windows

package automation

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/yllada/anyconnect-autologin/common"
)

// Shared user32 procs. Defined once so every file uses the same handles.
var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procEnumWindows          = user32.NewProc("EnumWindows")
	procEnumChildWindows     = user32.NewProc("EnumChildWindows")
	procGetClassNameW        = user32.NewProc("GetClassNameW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procSendMessageTimeoutW  = user32.NewProc("SendMessageTimeoutW")
	procPostMessageW         = user32.NewProc("PostMessageW")
	procIsWindow             = user32.NewProc("IsWindow")
	procIsWindowVisible      = user32.NewProc("IsWindowVisible")
	procIsWindowEnabled      = user32.NewProc("IsWindowEnabled")
	procGetForegroundWindow  = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow  = user32.NewProc("SetForegroundWindow")
	procGetDlgCtrlID         = user32.NewProc("GetDlgCtrlID")
	procGetParent            = user32.NewProc("GetParent")
)

const (
	wmSetText        = 0x000C
	wmGetText        = 0x000D
	wmGetTextLength  = 0x000E
	wmClose          = 0x0010
	wmCommand        = 0x0111
	bmClick          = 0x00F5
	cbAddString      = 0x0143
	cbGetCurSel      = 0x0147
	cbGetLBText      = 0x0148
	cbGetLBTextLen   = 0x0149
	cbSelectString   = 0x014D
	cbnSelChange     = 1
	smtoAbortIfHung  = 0x0002
	cbErr            = ^uintptr(0) // CB_ERR (-1)
	maxClassNameSize = 256
)

// EnumWindows callbacks are a limited resource, so one callback is created per
// kind and results are collected under enumMu.
var (
	enumMu      sync.Mutex
	enumResult  []windows.HWND
	enumCollect = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		enumResult = append(enumResult, hwnd)
		return 1
	})
)

func topLevelWindows() []windows.HWND {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumResult = nil
	procEnumWindows.Call(enumCollect, 0)
	out := enumResult
	enumResult = nil
	return out
}

func childWindows(parent windows.HWND) []windows.HWND {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumResult = nil
	procEnumChildWindows.Call(uintptr(parent), enumCollect, 0)
	out := enumResult
	enumResult = nil
	return out
}

// win32Desktop implements Desktop on top of user32 window messages.
type win32Desktop struct {
	opts Options
}

// NewDesktop returns the Win32 Desktop backend.
func NewDesktop(opts Options) (Desktop, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("loading user32.dll: %w", err)
	}
	return &win32Desktop{opts: opts.withDefaults()}, nil
}

func boolCall(proc *windows.LazyProc, hwnd windows.HWND) bool {
	r, _, _ := proc.Call(uintptr(hwnd))
	return r != 0
}

func windowTitle(hwnd windows.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

func className(hwnd windows.HWND) string {
	buf := make([]uint16, maxClassNameSize)
	procGetClassNameW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

// send delivers a message with SendMessageTimeout so a hung client cannot
// block the login sequence.
func (d *win32Desktop) send(hwnd windows.HWND, msg uint32, wparam uintptr, lparam unsafe.Pointer) (uintptr, error) {
	var result uintptr
	r, _, err := procSendMessageTimeoutW.Call(
		uintptr(hwnd), uintptr(msg), wparam, uintptr(lparam),
		smtoAbortIfHung, uintptr(d.opts.MessageTimeout.Milliseconds()),
		uintptr(unsafe.Pointer(&result)))
	if r == 0 {
		return 0, fmt.Errorf("message 0x%04x to window %#x: %w", msg, hwnd, err)
	}
	return result, nil
}

func (d *win32Desktop) sendValue(hwnd windows.HWND, msg uint32, wparam, lparam uintptr) (uintptr, error) {
	var result uintptr
	r, _, err := procSendMessageTimeoutW.Call(
		uintptr(hwnd), uintptr(msg), wparam, lparam,
		smtoAbortIfHung, uintptr(d.opts.MessageTimeout.Milliseconds()),
		uintptr(unsafe.Pointer(&result)))
	if r == 0 {
		return 0, fmt.Errorf("message 0x%04x to window %#x: %w", msg, hwnd, err)
	}
	return result, nil
}

func post(hwnd windows.HWND, msg uint32, wparam, lparam uintptr) error {
	r, _, err := procPostMessageW.Call(uintptr(hwnd), uintptr(msg), wparam, lparam)
	if r == 0 {
		return fmt.Errorf("post 0x%04x to window %#x: %w", msg, hwnd, err)
	}
	return nil
}

// controlText reads a control's caption through WM_GETTEXT, which the system
// marshals across process boundaries.
func (d *win32Desktop) controlText(hwnd windows.HWND) (string, error) {
	n, err := d.sendValue(hwnd, wmGetTextLength, 0, 0)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]uint16, n+1)
	if _, err := d.send(hwnd, wmGetText, uintptr(len(buf)), unsafe.Pointer(&buf[0])); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf), nil
}

type snapshot struct {
	hwnds    []windows.HWND
	controls []Control
}

func (d *win32Desktop) snapshotChildren(parent windows.HWND) snapshot {
	var s snapshot
	for _, child := range childWindows(parent) {
		text, _ := d.controlText(child)
		id, _, _ := procGetDlgCtrlID.Call(uintptr(child))
		s.hwnds = append(s.hwnds, child)
		s.controls = append(s.controls, Control{
			Class: className(child),
			Text:  text,
			ID:    int(int32(id)),
		})
	}
	return s
}

// findWindow returns the first top-level window matching w.
func (d *win32Desktop) findWindow(w Window) (windows.HWND, bool) {
	for _, hwnd := range topLevelWindows() {
		title := windowTitle(hwnd)
		if !d.opts.MatchMode.Matches(title, w.Title) {
			continue
		}
		if w.Text == "" {
			return hwnd, true
		}
		var texts []string
		s := d.snapshotChildren(hwnd)
		for i, c := range s.controls {
			if boolCall(procIsWindowVisible, s.hwnds[i]) {
				texts = append(texts, c.Text)
			}
		}
		if d.opts.MatchMode.MatchesWindow(w, title, texts) {
			return hwnd, true
		}
	}
	return 0, false
}

func (d *win32Desktop) findControl(w Window, sel Selector) (windows.HWND, windows.HWND, error) {
	top, ok := d.findWindow(w)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", common.ErrWindowNotFound, w)
	}
	s := d.snapshotChildren(top)
	idx := sel.Find(s.controls)
	if idx < 0 {
		return top, 0, fmt.Errorf("%w: %s in %s", common.ErrControlNotFound, sel, w)
	}
	return top, s.hwnds[idx], nil
}

func (d *win32Desktop) Launch(path string) error {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", path, err)
	}
	common.LogDebug("Started %s with PID %d", path, cmd.Process.Pid)
	return cmd.Process.Release()
}

func (d *win32Desktop) WaitActive(ctx context.Context, w Window, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if hwnd, ok := d.findWindow(w); ok {
			fg, _, _ := procGetForegroundWindow.Call()
			if windows.HWND(fg) == hwnd {
				return true, nil
			}
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		if err := Sleep(ctx, d.opts.PollInterval); err != nil {
			return false, err
		}
	}
}

func (d *win32Desktop) Exists(w Window) (bool, error) {
	_, ok := d.findWindow(w)
	return ok, nil
}

func (d *win32Desktop) Close(w Window) error {
	hwnd, ok := d.findWindow(w)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrWindowNotFound, w)
	}
	return post(hwnd, wmClose, 0, 0)
}

func (d *win32Desktop) ControlText(w Window, sel Selector) (string, error) {
	_, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return "", err
	}
	return d.controlText(hwnd)
}

func (d *win32Desktop) SetControlText(w Window, sel Selector, text string) error {
	_, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return err
	}
	p, err := windows.UTF16PtrFromString(text)
	if err != nil {
		return err
	}
	_, err = d.send(hwnd, wmSetText, 0, unsafe.Pointer(p))
	return err
}

// Click posts BM_CLICK so a button that opens a modal dialog does not block
// the caller. The owning window is brought to the foreground first since
// BM_CLICK is ignored by inactive dialogs.
func (d *win32Desktop) Click(w Window, sel Selector) error {
	top, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return err
	}
	procSetForegroundWindow.Call(uintptr(top))
	return post(hwnd, bmClick, 0, 0)
}

func (d *win32Desktop) IsVisible(w Window, sel Selector) (bool, error) {
	_, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return false, nil
	}
	return boolCall(procIsWindowVisible, hwnd), nil
}

func (d *win32Desktop) IsEnabled(w Window, sel Selector) (bool, error) {
	_, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return false, nil
	}
	return boolCall(procIsWindowEnabled, hwnd), nil
}

func (d *win32Desktop) ComboAddString(w Window, sel Selector, item string) error {
	_, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return err
	}
	p, err := windows.UTF16PtrFromString(item)
	if err != nil {
		return err
	}
	r, err := d.send(hwnd, cbAddString, 0, unsafe.Pointer(p))
	if err != nil {
		return err
	}
	if r == cbErr {
		return fmt.Errorf("combo box %s rejected %q", sel, item)
	}
	return nil
}

// ComboSelectString selects the first item starting with item and notifies
// the parent with CBN_SELCHANGE, as a user selection would.
func (d *win32Desktop) ComboSelectString(w Window, sel Selector, item string) error {
	_, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return err
	}
	p, err := windows.UTF16PtrFromString(item)
	if err != nil {
		return err
	}
	r, err := d.send(hwnd, cbSelectString, cbErr, unsafe.Pointer(p))
	if err != nil {
		return err
	}
	if r == cbErr {
		return fmt.Errorf("%q not found in combo box %s", item, sel)
	}

	id, _, _ := procGetDlgCtrlID.Call(uintptr(hwnd))
	parent, _, _ := procGetParent.Call(uintptr(hwnd))
	if parent != 0 && boolCall(procIsWindow, windows.HWND(parent)) {
		wparam := (uintptr(cbnSelChange) << 16) | (id & 0xFFFF)
		return post(windows.HWND(parent), wmCommand, wparam, uintptr(hwnd))
	}
	return nil
}

func (d *win32Desktop) ComboSelection(w Window, sel Selector) (string, error) {
	_, hwnd, err := d.findControl(w, sel)
	if err != nil {
		return "", err
	}
	idx, err := d.sendValue(hwnd, cbGetCurSel, 0, 0)
	if err != nil {
		return "", err
	}
	if idx == cbErr {
		return "", nil
	}
	n, err := d.sendValue(hwnd, cbGetLBTextLen, idx, 0)
	if err != nil {
		return "", err
	}
	if n == cbErr {
		return "", nil
	}
	buf := make([]uint16, n+1)
	if _, err := d.send(hwnd, cbGetLBText, idx, unsafe.Pointer(&buf[0])); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf), nil
}

const (
	mbOK            = 0x00000000
	mbIconError     = 0x00000010
	mbSetForeground = 0x00010000
	mbTopmost       = 0x00040000
)

// dialogNotifier shows a modal MessageBox.
type dialogNotifier struct{}

// NewNotifier returns a notifier that opens a modal error dialog.
func NewNotifier() Notifier {
	return dialogNotifier{}
}

func (dialogNotifier) ShowError(title, message string) error {
	text, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return err
	}
	caption, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	_, err = windows.MessageBox(0, text, caption, mbOK|mbIconError|mbSetForeground|mbTopmost)
	return err
}

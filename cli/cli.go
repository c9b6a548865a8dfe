// Package cli provides the command-line interface for AnyConnect AutoLogin.
// Running the binary without a subcommand performs the login sequence.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yllada/anyconnect-autologin/automation"
	"github.com/yllada/anyconnect-autologin/common"
	"github.com/yllada/anyconnect-autologin/config"
	"github.com/yllada/anyconnect-autologin/history"
	"github.com/yllada/anyconnect-autologin/keyring"
	"github.com/yllada/anyconnect-autologin/login"
)

// Exit codes returned by Execute.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// BuildInfo carries the values injected at build time.
type BuildInfo struct {
	Version   string
	BuildTime string
	Commit    string
}

// App holds the dependencies shared by all commands.
type App struct {
	build BuildInfo

	configPath  string
	verbose     bool
	noDialog    bool
	fileLogging bool

	out    io.Writer
	errOut io.Writer
	in     io.Reader

	newDesktop  func(automation.Options) (automation.Desktop, error)
	newNotifier func() automation.Notifier
	historyPath func() (string, error)
}

// New creates an App wired to the real desktop, dialog and history store.
func New(build BuildInfo) *App {
	return &App{
		build:       build,
		fileLogging: true,
		out:         os.Stdout,
		errOut:      os.Stderr,
		in:          os.Stdin,
		newDesktop:  automation.NewDesktop,
		newNotifier: automation.NewNotifier,
		historyPath: defaultHistoryPath,
	}
}

func defaultHistoryPath() (string, error) {
	dir, err := common.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.HistoryFileName), nil
}

// shownError marks an error the user has already seen in the dialog.
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, common.ErrAlreadyConnected):
		return ExitOK
	case errors.Is(err, common.ErrCancelled), errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

func (a *App) resolveConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

func (a *App) loadConfig() (*config.Config, error) {
	path, err := a.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	common.LogDebug("Loading configuration from %s", path)
	return config.Load(path)
}

// resolvePassword prefers a password given in the config or environment and
// falls back to the keyring.
func resolvePassword(cfg *config.Config) (string, error) {
	if cfg.Password != "" {
		common.LogDebug("Using password from configuration")
		return cfg.Password, nil
	}

	account := keyring.Account(cfg.Username, cfg.Domain)
	password, err := keyring.Get(account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w for %s: run 'autologin set-password' first", common.ErrCredentialsNotFound, account)
		}
		return "", err
	}
	return password, nil
}

// notify shows err in the modal dialog, or on stderr with --no-dialog.
func (a *App) notify(err error) error {
	var notifier automation.Notifier = automation.ConsoleNotifier{W: a.errOut}
	if !a.noDialog {
		notifier = a.newNotifier()
	}
	if nerr := notifier.ShowError(common.DialogTitle, login.DialogMessage(err)); nerr != nil {
		common.LogWarn("Could not show error dialog: %v", nerr)
		fmt.Fprintln(a.errOut, login.DialogMessage(err))
	}
	return &shownError{err: err}
}

// openHistory opens the run history. History is best effort: a broken
// database never stops a login.
func (a *App) openHistory() *history.Store {
	path, err := a.historyPath()
	if err != nil {
		common.LogWarn("Run history unavailable: %v", err)
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		common.LogWarn("Run history unavailable: %v", err)
		return nil
	}
	return store
}

func outcomeFor(err error) history.Outcome {
	switch {
	case err == nil, errors.Is(err, common.ErrNotConnected):
		return history.OutcomeSuccess
	case errors.Is(err, common.ErrAlreadyConnected):
		return history.OutcomeDisconnected
	case errors.Is(err, common.ErrCancelled), errors.Is(err, context.Canceled):
		return history.OutcomeCancelled
	default:
		return history.OutcomeFailed
	}
}

// drive runs fn against a fresh runner and records the attempt.
func (a *App) drive(ctx context.Context, command string, fn func(context.Context, *login.Runner) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return a.notify(err)
	}

	password := ""
	if command == "login" {
		if password, err = resolvePassword(cfg); err != nil {
			return a.notify(err)
		}
	}

	desktop, err := a.newDesktop(automation.Options{MatchMode: automation.MatchExact})
	if err != nil {
		return a.notify(err)
	}

	store := a.openHistory()
	var run *history.Run
	if store != nil {
		defer store.Close()
		if run, err = store.Begin(ctx, command, cfg.Domain, cfg.Username); err != nil {
			common.LogWarn("Could not record run: %v", err)
		}
	}

	runner := login.NewRunner(desktop, cfg, password, login.WithReporter(newStyledReporter(a.out)))
	runErr := fn(ctx, runner)

	if store != nil && run != nil {
		message := ""
		if runErr != nil {
			message = runErr.Error()
		}
		// Record even when ctx was cancelled.
		if err := store.Finish(context.WithoutCancel(ctx), run, outcomeFor(runErr), string(login.FailedStep(runErr)), message); err != nil {
			common.LogWarn("Could not record run result: %v", err)
		}
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, common.ErrAlreadyConnected):
		common.LogInfo("Existing VPN session was disconnected")
		return runErr
	case errors.Is(runErr, common.ErrNotConnected):
		return runErr
	case login.IsCancelled(runErr):
		common.LogInfo("Login cancelled")
		return runErr
	default:
		common.LogError("%s failed: %v", command, runErr)
		return a.notify(runErr)
	}
}

// Login performs the full login sequence.
func (a *App) Login(ctx context.Context) error {
	return a.drive(ctx, "login", func(ctx context.Context, r *login.Runner) error {
		return r.Run(ctx)
	})
}

// Disconnect ends an active VPN session through the client window.
func (a *App) Disconnect(ctx context.Context) error {
	err := a.drive(ctx, "disconnect", func(ctx context.Context, r *login.Runner) error {
		if err := r.OpenClient(); err != nil {
			return err
		}
		return r.Disconnect(ctx)
	})
	if errors.Is(err, common.ErrNotConnected) {
		fmt.Fprintln(a.out, "No active VPN connection.")
		return nil
	}
	return err
}

// SetPassword stores the login password in the keyring.
func (a *App) SetPassword() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	account := keyring.Account(cfg.Username, cfg.Domain)
	password, err := readPassword(a.in, a.errOut, fmt.Sprintf("Password for %s: ", account))
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if err := keyring.Store(account, password); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	fmt.Fprintf(a.out, "✓ Password saved for %s\n", account)
	return nil
}

// ForgetPassword removes the stored password.
func (a *App) ForgetPassword() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	account := keyring.Account(cfg.Username, cfg.Domain)
	if err := keyring.Delete(account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Fprintf(a.out, "No password stored for %s\n", account)
			return nil
		}
		return err
	}
	fmt.Fprintf(a.out, "✓ Password removed for %s\n", account)
	return nil
}

// Init writes a default configuration file.
func (a *App) Init(force bool) error {
	path, err := a.resolveConfigPath()
	if err != nil {
		return err
	}
	if common.FileExists(path) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Configuration written to %s\n", path)
	fmt.Fprintln(a.out, "  Fill in domain and username, then run: autologin set-password")
	return nil
}

// History prints the most recent runs.
func (a *App) History(ctx context.Context, limit int) error {
	path, err := a.historyPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tCOMMAND\tOUTCOME\tDURATION\tSTEP\tMESSAGE")
	fmt.Fprintln(w, "-------\t-------\t-------\t--------\t----\t-------")

	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = formatDuration(d)
		}
		step := run.Step
		if step == "" {
			step = "-"
		}
		message := firstLine(run.Message)
		if message == "" {
			message = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Command, run.Outcome, duration, step, message)
	}

	return w.Flush()
}

// Version prints build information.
func (a *App) Version() {
	fmt.Fprintf(a.out, "%s v%s\n", common.AppName, a.build.Version)
	if a.build.BuildTime != "" && a.build.BuildTime != "unknown" {
		fmt.Fprintf(a.out, "  Build:  %s\n", a.build.BuildTime)
		fmt.Fprintf(a.out, "  Commit: %s\n", a.build.Commit)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	if seconds == 0 {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%ds", seconds)
}

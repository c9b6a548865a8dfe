package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yllada/anyconnect-autologin/common"
)

// NewRootCommand builds the command tree for a.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "autologin",
		Short: "Log in to Cisco AnyConnect without typing",
		Long: `autologin drives the Cisco AnyConnect Secure Mobility Client window:
it connects to the configured domain, accepts certificate and terms popups
and fills in the credentials. Run without a subcommand to log in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := common.LevelInfo
			if a.verbose {
				level = common.LevelDebug
			}
			if err := common.InitLogger(common.LogConfig{Level: level, EnableFile: a.fileLogging}); err != nil {
				fmt.Fprintf(a.errOut, "Warning: Could not initialize file logging: %v\n", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Login(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default is the user config directory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.noDialog, "no-dialog", false, "print errors instead of showing a dialog")

	root.AddCommand(
		loginCmd(a),
		disconnectCmd(a),
		setPasswordCmd(a),
		forgetPasswordCmd(a),
		initCmd(a),
		historyCmd(a),
		versionCmd(a),
	)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root
}

func loginCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Run the full login sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Login(cmd.Context())
		},
	}
}

func disconnectCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect the active VPN session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Disconnect(cmd.Context())
		},
	}
}

func setPasswordCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password",
		Short: "Store the login password in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.SetPassword()
		},
	}
}

func forgetPasswordCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "forget-password",
		Short: "Remove the stored login password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ForgetPassword()
		},
	}
}

func initCmd(a *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Init(force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func historyCmd(a *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent login attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.History(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func versionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.Version()
		},
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, build BuildInfo, args []string) int {
	a := New(build)
	return a.execute(ctx, args)
}

func (a *App) execute(ctx context.Context, args []string) int {
	root := NewRootCommand(a)
	root.SetArgs(args)
	defer common.CloseLogger()

	err := root.ExecuteContext(ctx)

	var shown *shownError
	if err != nil && !errors.As(err, &shown) && ExitCode(err) == ExitFailure {
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// Package cli wires the cobra command tree and maps error classes to exit
// codes: 0 success, 2 invalid arguments or window, 3 access denied, 4
// accounting source unavailable, 1 anything else.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"slurm_usage/internal/app"
	"slurm_usage/internal/config"
	"slurm_usage/internal/transport"
	"slurm_usage/internal/usage"
)

const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitInvalidArgs       = 2
	ExitAccessDenied      = 3
	ExitSourceUnavailable = 4
)

var (
	flagConfig         string
	flagUsername       string
	flagAccount        string
	flagStart          string
	flagEnd            string
	flagWatch          bool
	flagRefresh        time.Duration
	flagNoColor        bool
	flagCommandTimeout time.Duration
	flagConnectTimeout time.Duration
	flagSSHConfig      string
	flagIdentityFile   string
	flagPort           int
)

var rootCmd = &cobra.Command{
	Use:   "slurm-usage [flags] [ssh-target]",
	Short: "Report GPU-hour usage and quota standing per account and partition",
	Long: `slurm-usage aggregates Slurm accounting records into GPU-hours grouped by
account and partition over a date window, and compares the totals against
each account's configured GPU-hour quota.

The window defaults to the current month. Regular users see their own usage;
account coordinators and operators may report on whole accounts.

Run locally on a login node, or pass an SSH target (alias or user@host) to
query a remote cluster through OpenSSH.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(args)
		if err != nil {
			return err
		}
		return app.Run(opts)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "path to settings file (default ~/"+config.DefaultFileName+")")
	flags.DurationVar(&flagCommandTimeout, "command-timeout", 0, "max runtime per accounting command (overrides config)")
	flags.DurationVar(&flagConnectTimeout, "connect-timeout", 0, "max SSH connection setup time (overrides config)")
	flags.StringVar(&flagSSHConfig, "ssh-config", "", "alternate OpenSSH config path (remote targets)")
	flags.StringVar(&flagIdentityFile, "identity-file", "", "SSH private key passed to ssh -i (remote targets)")
	flags.IntVar(&flagPort, "port", 0, "override SSH port (remote targets)")
	flags.BoolVar(&flagNoColor, "no-color", false, "disable ANSI color styling")

	local := rootCmd.Flags()
	local.StringVarP(&flagUsername, "username", "u", "", "report another user's usage (requires privilege)")
	local.StringVarP(&flagAccount, "account", "A", "", "report a specific account")
	local.StringVarP(&flagStart, "start", "S", "", "window start date YYYY-MM-DD (default: first of this month)")
	local.StringVarP(&flagEnd, "end", "E", "", "window end date YYYY-MM-DD (default: today)")
	local.BoolVar(&flagWatch, "watch", false, "keep the report on screen and refresh it periodically")
	local.DurationVar(&flagRefresh, "refresh", 30*time.Second, "refresh interval in watch mode")
}

func buildOptions(args []string) (app.Options, error) {
	settings, err := config.Load(flagConfig)
	if err != nil {
		return app.Options{}, err
	}

	if flagCommandTimeout > 0 {
		settings.CommandTimeout = config.Duration(flagCommandTimeout)
	}
	if flagConnectTimeout > 0 {
		settings.ConnectTimeout = config.Duration(flagConnectTimeout)
	}
	if flagSSHConfig != "" {
		settings.SSH.ConfigPath = flagSSHConfig
	}
	if flagIdentityFile != "" {
		settings.SSH.IdentityFile = flagIdentityFile
	}
	if flagPort > 0 {
		settings.SSH.Port = flagPort
	}

	target := ""
	if len(args) == 1 {
		target = strings.TrimSpace(args[0])
	}
	if target == "" && (flagSSHConfig != "" || flagIdentityFile != "" || flagPort != 0) {
		return app.Options{}, &usage.ArgumentError{Reason: "ssh-specific flags require a remote target"}
	}
	if flagWatch && flagRefresh <= 0 {
		return app.Options{}, &usage.ArgumentError{Reason: "--refresh must be > 0"}
	}

	return app.Options{
		Settings: settings,
		Target:   target,
		Username: flagUsername,
		Account:  flagAccount,
		Start:    flagStart,
		End:      flagEnd,
		Watch:    flagWatch,
		Refresh:  flagRefresh,
		NoColor:  flagNoColor,
		Out:      os.Stdout,
	}, nil
}

// Execute runs the command tree and translates the error taxonomy into the
// process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	return reportError(os.Stderr, err)
}

func reportError(out io.Writer, err error) int {
	errColor := color.New(color.FgRed)
	warnColor := color.New(color.FgYellow)
	if flagNoColor {
		errColor.DisableColor()
		warnColor.DisableColor()
	}

	var badArgs *usage.ArgumentError
	var denied *usage.AccessDeniedError
	var unavailable *usage.SourceUnavailableError
	switch {
	case errors.Is(err, usage.ErrInvalidWindow), errors.As(err, &badArgs):
		errColor.Fprintf(out, "error: %v\n", err)
		return ExitInvalidArgs
	case errors.As(err, &denied):
		errColor.Fprintf(out, "error: %v\n", err)
		return ExitAccessDenied
	case errors.As(err, &unavailable):
		errColor.Fprintf(out, "error: %v\n", err)
		if transport.IsRetryable(err) {
			warnColor.Fprintln(out, "the accounting backend may be temporarily unreachable; try again shortly")
		}
		return ExitSourceUnavailable
	default:
		fmt.Fprintf(out, "error: %v\n", err)
		return ExitFailure
	}
}

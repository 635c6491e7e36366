package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fabric-install/internal/logger"
	"github.com/oshokin/fabric-install/internal/service/install"
	"github.com/oshokin/fabric-install/internal/version"
)

var (
	// errUsage is returned when the positional arguments are wrong.
	errUsage = errors.New("exactly one version argument is required")
	// errInstallFailed wraps pipeline failures, which the pipeline logs itself.
	errInstallFailed = errors.New("installation failed")
)

// newRootCmd builds the base command that installs Fabric for a game version.
func newRootCmd() *cobra.Command {
	var (
		// configPath to the optional configuration YAML file.
		configPath string
		// logLevel overrides the configured log level.
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "fabric-install <minecraft-version>",
		Short: "Download the latest Fabric installer and run it for a game version",
		Long: `Looks up the newest Fabric installer, keeps it in ~/.cache/fabric-installers
(replacing any older installer found there) and runs it with java:

  java -jar <installer> client -snapshot -mcversion <minecraft-version>

The installer's own output is shown as it runs. The command exits when the
installer exits.`,
		Args:          exactlyOneVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &install.Options{
				ConfigPath: configPath,
				Version:    args[0],
				LogLevel:   logLevel,
				Output:     cmd.OutOrStdout(),
			}

			if err := install.Run(ctx, options); err != nil {
				return fmt.Errorf("%w: %w", errInstallFailed, err)
			}

			return nil
		},
	}

	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to optional configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn or error")

	version.AttachCobraVersionCommand(rootCmd)

	return rootCmd
}

// exactlyOneVersion prints the usage to stdout unless exactly one argument is given.
func exactlyOneVersion(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return nil
	}

	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(out, "Expected 1 argument, got %d\n\n", len(args))
	_, _ = fmt.Fprint(out, cmd.UsageString())

	return errUsage
}

// execute runs root and writes a diagnostic to its error stream
// for failures that have not been reported yet.
func execute(root *cobra.Command) error {
	err := root.Execute()
	if err == nil || errors.Is(err, errUsage) || errors.Is(err, errInstallFailed) {
		return err
	}

	_, _ = fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)

	return err
}

// Execute runs the fabric-install CLI and exits with non-zero status on error.
func Execute() {
	err := execute(newRootCmd())

	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

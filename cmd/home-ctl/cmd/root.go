package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides the hub address from the configuration.
	serverAddress string

	// rootCmd represents the base command of the remote control.
	rootCmd = &cobra.Command{
		Use:   "home-ctl",
		Short: "Control a running home hub and manage releases.",
		Long: `Remote control for home-hub.

toggle and status talk to the hub over gRPC. package writes a release manifest
and update brings this machine to the published release.`,
		SilenceUsage: true,
	}
)

// Execute runs the home-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is canceled on SIGTERM and SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "hub gRPC address override")
}

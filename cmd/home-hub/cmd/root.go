package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/service/hub"
	"github.com/oshokin/smart-home/internal/version"
)

var (
	// options collects the flag values.
	options hub.Options

	// rootCmd represents the base command for running the home controller.
	rootCmd = &cobra.Command{
		Use:   "home-hub",
		Short: "Run the home controller: sensors, alarm, lights and remote control.",
		Long: `Starts the poll loop driving the house: security lighting, the intrusion alarm,
room lights, the status display and the buzzer.

The control page is served over HTTP (GET /<action>) and the same actions are
available through the HomeService gRPC API used by home-ctl.
Use --simulate to run without GPIO hardware.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return hub.Run(ctx, &options)
		},
	}
)

// Execute runs the home-hub CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.BoolVar(&options.Simulate, "simulate", false, "use the in-memory board instead of GPIO")
	flags.StringVar(&options.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&options.HTTPAddress, "http-addr", "", "control page listen address override")
	flags.StringVar(&options.GRPCAddress, "grpc-addr", "", "gRPC listen address override")
}

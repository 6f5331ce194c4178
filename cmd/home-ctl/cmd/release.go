package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/smart-home/internal/service/packager"
	"github.com/oshokin/smart-home/internal/service/updater"
)

var (
	// packageOptions collects the package flags.
	packageOptions packager.Options

	packageCmd = &cobra.Command{
		Use:   "package <dir>",
		Short: "Write the release manifest for the binaries in dir.",
		Long: `Hashes home-hub, home-ctl and the shipped settings found in dir, then writes
the release manifest next to them. Upload the whole directory to the update folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			packageOptions.Dir = args[0]

			return packager.Run(ctx, &packageOptions)
		},
	}

	updateCmd = &cobra.Command{
		Use:       "update [hub|ctl]",
		Short:     "Download and apply the published release for a role.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{updater.RoleHub, updater.RoleCtl},
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return updater.Run(ctx, &updater.Options{
				ConfigPath: configPath,
				Role:       args[0],
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := packageCmd.Flags()

	flags.StringVarP(&packageOptions.ServerAddress, "hub", "a", "127.0.0.1:50051", "hub gRPC address shipped in the settings")
	flags.StringVarP(&packageOptions.UpdateFolder, "update-folder", "u", "", "URL the release is uploaded to")
	flags.BoolVar(&packageOptions.Verify, "verify", false, "call the hub before packaging")

	if err := packageCmd.MarkFlagRequired("update-folder"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(packageCmd, updateCmd)
}

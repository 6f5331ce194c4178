package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/service/client"
)

// wait keeps retrying while the hub is down.
var wait bool

var toggleCmd = &cobra.Command{
	Use:   "toggle <action>",
	Short: "Apply an action on the hub and print the resulting state.",
	Long: `Applies one action, the same names as the control page paths:
mudar_estado_luz_sala, mudar_estado_luz_cozinha, mudar_estado_luz_quarto,
mudar_estado_luz_banheiro, mudar_estado_luz_quintal, mudar_estado_display,
mudar_estado_alarme, on and off.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: actionNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		return client.Run(ctx, &client.Options{
			ConfigPath:    configPath,
			ServerAddress: serverAddress,
			Action:        args[0],
			Wait:          wait,
			Out:           cmd.OutOrStdout(),
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of the house.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		return client.Run(ctx, &client.Options{
			ConfigPath:    configPath,
			ServerAddress: serverAddress,
			Wait:          wait,
			Out:           cmd.OutOrStdout(),
		})
	},
}

func actionNames() []string {
	actions := home.Actions()

	names := make([]string, 0, len(actions))
	for _, info := range actions {
		names = append(names, string(info.Action))
	}

	return names
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	for _, c := range []*cobra.Command{toggleCmd, statusCmd} {
		c.Flags().BoolVarP(&wait, "wait", "w", false, "retry until the hub is reachable")
		rootCmd.AddCommand(c)
	}
}

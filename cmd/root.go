package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "teneo",
		Short:         "Teneo node CLI: run persistent node sessions and manage accounts",
		Long:          "teneo keeps one persistent websocket session alive per configured account, accrues the bounded daily points for each node, and reports session events over Telegram.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newFarmCmd(app),
	)

	return rootCmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var noColor bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "jobtrack",
		Short:         "Administer the jobtrack database and inspect boards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.noColor = noColor
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (TOML)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newSeedCommand(ctx))
	rootCmd.AddCommand(newBoardCommand(ctx))
	rootCmd.AddCommand(newMoveCommand(ctx))
	rootCmd.AddCommand(newRestoreCommand(ctx))

	return rootCmd
}

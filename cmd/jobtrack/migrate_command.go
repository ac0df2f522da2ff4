package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobtrack/api/internal/store"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var status bool
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if status && rollback {
				return fmt.Errorf("--status and --rollback cannot be combined")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case status:
				states, err := store.MigrationStatus(cmd.Context(), db, cfg.MigrationsDir)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(states))
				for _, state := range states {
					applied := "pending"
					if state.Applied {
						applied = "applied"
					}
					rows = append(rows, []string{state.Version, applied})
				}
				fmt.Fprintln(out, renderTable([]string{"Migration", "State"}, rows, nil))
			case rollback:
				version, err := store.RollbackLast(cmd.Context(), db, cfg.MigrationsDir)
				if err != nil {
					return err
				}
				if version == "" {
					fmt.Fprintln(out, "Nothing to roll back")
					return nil
				}
				fmt.Fprintf(out, "Rolled back %s\n", version)
			default:
				applied, err := store.ApplyMigrations(cmd.Context(), db, cfg.MigrationsDir)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "Database is up to date")
					return nil
				}
				for _, version := range applied {
					fmt.Fprintf(out, "Applied %s\n", version)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "List migrations and whether they are applied")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Roll back the most recent migration")
	return cmd
}

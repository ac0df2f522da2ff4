package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobtrack/api/internal/jobs"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add the demo applications to an empty board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, user, err := ctx.boardFor(cmd.Context(), email)
			if err != nil {
				return err
			}
			result, err := ctrl.Seed(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !result.Seeded {
				fmt.Fprintf(out, "%s already has %d application(s); seeding skipped\n", user.Email, result.Existing)
				return nil
			}
			fmt.Fprintf(out, "Added %d demo application(s) for %s\n", result.Inserted, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the board owner")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newBoardCommand(ctx *commandContext) *cobra.Command {
	var email string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show a user's board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, user, err := ctx.boardFor(cmd.Context(), email)
			if err != nil {
				return err
			}
			snapshot := ctrl.Snapshot()
			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(snapshot)
			}
			colorize := !ctx.noColor && shouldColorize(out)
			fmt.Fprintln(out, renderBoard(user.DisplayName(), snapshot, colorize))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the board owner")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the board snapshot as JSON")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var email, jobID, stage string

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move an application to another stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			to := jobs.Stage(strings.ToLower(strings.TrimSpace(stage)))
			if !to.Valid() {
				return fmt.Errorf("unknown stage %q (want one of %s)", stage, stageList())
			}
			ctrl, _, err := ctx.boardFor(cmd.Context(), email)
			if err != nil {
				return err
			}
			job, err := ctrl.Move(cmd.Context(), strings.TrimSpace(jobID), to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s is now %s (%s)\n", job.Position, job.CompanyName, job.Stage.Title(), job.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the board owner")
	cmd.Flags().StringVar(&jobID, "job", "", "Application id")
	cmd.Flags().StringVar(&stage, "stage", "", "Target stage")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var email, jobID string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Return a rejected application to the stage it was rejected from",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := ctx.boardFor(cmd.Context(), email)
			if err != nil {
				return err
			}
			job, err := ctrl.Restore(cmd.Context(), strings.TrimSpace(jobID))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s restored to %s\n", job.Position, job.CompanyName, job.Stage.Title())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the board owner")
	cmd.Flags().StringVar(&jobID, "job", "", "Application id")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func stageList() string {
	infos := jobs.Stages()
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, string(info.ID))
	}
	return strings.Join(names, ", ")
}

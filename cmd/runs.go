package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/runs"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded booking runs",
	}
	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()
			repo, closeDB, err := openHistory(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			rs, err := repo.List(ctx, limit)
			if err != nil {
				return err
			}
			for _, r := range rs {
				fmt.Fprintf(os.Stdout, "id=%s status=%s started=%s dry_run=%t request=%q\n",
					r.ID, r.Status, r.StartedAt.Format(time.RFC3339), r.DryRun, r.Request)
			}
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return c
}

func newRunsShowCmd() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid run id")
			}
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()
			repo, closeDB, err := openHistory(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			r, err := repo.Get(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			printRun(r)
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	return c
}

func printRun(r runs.Run) {
	fmt.Fprintf(os.Stdout, "id:       %s\nrequest:  %s\nstatus:   %s\nstarted:  %s\n",
		r.ID, r.Request, r.Status, r.StartedAt.Format(time.RFC3339))
	if r.FinishedAt != nil {
		fmt.Fprintf(os.Stdout, "finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	}
	if r.FinalLocation != "" {
		fmt.Fprintf(os.Stdout, "location: %s\n", r.FinalLocation)
	}
	if r.LastError != nil {
		fmt.Fprintf(os.Stdout, "error:    %s\n", *r.LastError)
	}
	for _, s := range r.Steps {
		mark := "ok"
		if !s.Succeeded {
			mark = "FAIL"
		}
		fmt.Fprintf(os.Stdout, "  %2d %-4s %-28s %6dms %s\n", s.Seq, mark, s.Step, s.DurationMS, s.Reason)
	}
}

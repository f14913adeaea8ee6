package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/booking"
	"github.com/example/tablebook/internal/browser"
	"github.com/example/tablebook/internal/config"
	"github.com/example/tablebook/internal/executor"
	"github.com/example/tablebook/internal/intent"
	"github.com/example/tablebook/internal/statestore"
	"github.com/example/tablebook/internal/workflow"
)

func newBookCmd() *cobra.Command {
	var (
		dryRun    bool
		asJSON    bool
		timezone  string
		noHistory bool
	)

	c := &cobra.Command{
		Use:   "book [request...]",
		Short: "Make one reservation attempt for a plain-language request",
		Example: `  tablebook book book me a table at Terra E Mare tomorrow at 7pm for 2
  tablebook book --dry-run "dinner for 4 at Nopa friday"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			request := strings.TrimSpace(strings.Join(args, " "))
			if request == "" {
				request = cfg.DefaultRequest
			}

			loc := cfg.Location()
			if timezone != "" {
				if loc, err = time.LoadLocation(timezone); err != nil {
					return errors.Wrapf(err, "invalid --timezone")
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opener, exec, err := bookingBackends(cfg, log, dryRun)
			if err != nil {
				return err
			}

			opts := []booking.Option{booking.WithLogger(log), booking.WithDryRun(dryRun)}
			if !noHistory && cfg.DatabaseURL != "" {
				repo, closeDB, err := openHistory(ctx, cfg, log)
				if err != nil {
					log.Warn("run history unavailable", "error", err)
				} else {
					defer closeDB()
					opts = append(opts, booking.WithHistory(repo))
				}
			}

			svc := booking.New(intent.NewParser(intent.WithLocation(loc)), opener, exec, cfg.Workflow(), opts...)
			res, err := svc.Book(ctx, request)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "log instructions instead of driving a browser")
	c.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")
	c.Flags().StringVar(&timezone, "timezone", "", "reference timezone for the request (default $TIMEZONE)")
	c.Flags().BoolVar(&noHistory, "no-history", false, "do not record the run even if DATABASE_URL is set")
	return c
}

func bookingBackends(cfg config.Config, log *slog.Logger, dryRun bool) (booking.SessionOpener, workflow.Executor, error) {
	if dryRun {
		return browser.NullOpener{}, executor.NewDryRun(log), nil
	}
	if cfg.Executor.URL == "" {
		return nil, nil, errors.New("EXECUTOR_URL is required unless --dry-run is set")
	}

	opts := browser.Options{
		Headless: cfg.Browser.Headless,
		Timeout:  cfg.Browser.Timeout,
		StateKey: browser.StateKey(cfg.Site.HomeURL),
		Log:      log,
	}
	if cfg.Browser.StateSecret != "" {
		store, err := statestore.New(cfg.Browser.StateDir, []byte(cfg.Browser.StateSecret))
		if err != nil {
			return nil, nil, err
		}
		opts.Store = store
	}

	exec := executor.NewRemote(cfg.Executor.URL, cfg.Executor.APIKey, cfg.Executor.Timeout, executor.WithRemoteLogger(log))
	return browser.NewLauncher(opts), exec, nil
}

func printResult(w io.Writer, res booking.Result) {
	in := res.Intent
	fmt.Fprintf(w, "%s, party of %d, %s at %s\n", in.Restaurant, in.Party, in.Date.Human(), in.Time.Human())
	for _, s := range res.Report.Steps {
		if s.Succeeded() {
			fmt.Fprintf(w, "  ok    %s\n", s.Step)
		} else {
			fmt.Fprintf(w, "  FAIL  %s: %s\n", s.Step, s.Reason())
		}
	}
	if !res.Report.Proceeded {
		fmt.Fprintln(w, "could not proceed: no time slot was selected")
	}
	if res.Report.FinalLocation != "" {
		fmt.Fprintf(w, "final page: %s\n", res.Report.FinalLocation)
	}
	if res.RunID != uuid.Nil {
		fmt.Fprintf(w, "run id: %s\n", res.RunID)
	}
}

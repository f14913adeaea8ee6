package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/intent"
)

func newParseCmd() *cobra.Command {
	var (
		asJSON   bool
		timezone string
	)

	c := &cobra.Command{
		Use:   "parse [request...]",
		Short: "Show how a request would be understood, without booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
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

			in := intent.NewParser(intent.WithLocation(loc)).Parse(request)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(in)
			}
			fmt.Fprintf(out, "restaurant: %s\nparty:      %d\ndate:       %s\ntime:       %s\ntimezone:   %s\n",
				in.Restaurant, in.Party, in.Date.Human(), in.Time.Human(), loc)
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print the intent as JSON")
	c.Flags().StringVar(&timezone, "timezone", "", "reference timezone (default $TIMEZONE)")
	return c
}

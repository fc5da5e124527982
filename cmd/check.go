package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/digitarr/digitarr/internal/filter"
	"github.com/digitarr/digitarr/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry run: list today's qualifying releases without requesting",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Dry runs only need TMDB, not a configured request service.
		src, enricher, err := buildSourceAndEnricher(cfg)
		if err != nil {
			return err
		}

		candidates, err := src.FetchToday(ctx)
		if err != nil {
			return err
		}

		var records []*model.MovieRecord
		for _, res := range enricher.EnrichAll(ctx, candidates) {
			if res.Err == nil {
				records = append(records, res.Record)
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tRATING\tLANG\tCERT\tRELEASE\tQUALIFIES")
		for _, rec := range records {
			ok, reason := filter.Passes(rec, cfg.Filters)
			verdict := "yes"
			if !ok {
				verdict = "no (" + reason + ")"
			}
			cert := rec.Certification
			if cert == "" {
				cert = "-"
			}
			fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\t%s\n",
				rec.Title, rec.VoteAverage, rec.OriginalLanguage, cert, rec.ReleaseDate, verdict)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

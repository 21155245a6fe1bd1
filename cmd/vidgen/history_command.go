package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently submitted video jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory(cmd.Context())
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.TaskID,
					valueOrDash(rec.Title),
					string(rec.State),
					strconv.Itoa(rec.Progress) + "%",
					string(rec.Settings.Resolution),
					humanize.Time(rec.SubmittedAt),
					valueOrDash(firstNonEmpty(rec.VideoURL, rec.Error)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Task", "Title", "State", "Progress", "Resolution", "Submitted", "Result"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the records as JSON")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

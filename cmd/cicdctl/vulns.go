package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cicdguard/backend/pkg/report"

	"github.com/spf13/cobra"
)

func vulnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "vulns",
		Aliases: []string{"vulnerabilities"},
		Short:   "List the vulnerabilities the scanners attached to the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer t.Close()

			rows, err := report.Load(cmd.Context(), t)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

func printReport(w io.Writer, rows []report.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, subtle.Sprint("No vulnerabilities found"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, h := range report.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, brand.Sprint(h))
	}
	fmt.Fprintln(tw)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", bad.Sprint(r.VulnID), r.Description, r.Technology, r.Artifacts, r.FurtherRead)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%s\n", warn.Sprintf("%d vulnerabilities", len(rows)))
}

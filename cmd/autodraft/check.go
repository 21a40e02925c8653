package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"autodraft.app/assistant/internal/gate"
)

func checkCmd() *cobra.Command {
	var opts gate.RunOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Process new meeting notes once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			report, err := a.gate.Run(ctx, opts)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log the drafts instead of creating them; never marks messages")
	cmd.Flags().BoolVar(&opts.Broad, "broad", false, "Match any notes mentioning the host, not only production calls")

	return cmd
}

func printReport(w io.Writer, report *gate.RunReport) {
	if report.DryRun {
		fmt.Fprintf(w, "\nDry run: %d matching message(s) found, nothing was written.\n", len(report.Outcomes))
	} else {
		fmt.Fprintf(w, "\nProcessed %d message(s), created %d draft(s).\n", len(report.Outcomes), report.Drafted())
	}

	for _, o := range report.Outcomes {
		if !o.Success {
			fmt.Fprintf(w, "  FAILED  %s: %s\n", o.MessageID, o.Error)
			continue
		}
		line := fmt.Sprintf("  OK      %s <%s>", o.ResolvedName, o.ResolvedAddress)
		if o.InExistingThread {
			line += " (reply)"
		}
		if o.DraftLink != "" {
			line += "  " + o.DraftLink
		}
		fmt.Fprintln(w, line)
	}
}

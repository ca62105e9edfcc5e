package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/store/memory"
)

type autoLinkFlags struct {
	dryRun    bool
	threshold float64
	output    string
	fixtures  string
	writeTo   string
}

func newAutoLinkCommand() *cobra.Command {
	var flags autoLinkFlags

	cmd := &cobra.Command{
		Use:   "autolink",
		Short: "Run one auto-link batch and print the report",
		Example: `  fern autolink --dry-run
  fern autolink --threshold 0.9 --output table
  fern autolink --fixtures marketplace.json --write-fixtures linked.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.output != "json" && flags.output != "table" {
				return fmt.Errorf("unsupported output %q: use json or table", flags.output)
			}

			opts := linking.Options{DryRun: flags.dryRun}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = &flags.threshold
			}

			var (
				report *linking.BatchReport
				err    error
			)
			if flags.fixtures != "" {
				report, err = runFixtures(cmd.Context(), flags, opts)
			} else {
				report, err = runDatabase(cmd.Context(), opts)
			}
			if err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), flags.output, report)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "report decisions without writing anything")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "minimum fuzzy similarity in (0,1] (default MATCH_THRESHOLD)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "json", "report format: json or table")
	cmd.Flags().StringVar(&flags.fixtures, "fixtures", "", "run against a JSON fixtures file instead of the database")
	cmd.Flags().StringVar(&flags.writeTo, "write-fixtures", "", "with --fixtures, write the resulting providers and services here")

	return cmd
}

func runDatabase(ctx context.Context, opts linking.Options) (*linking.BatchReport, error) {
	a := newApp(cfg, logger)
	if err := a.start(ctx); err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	defer a.stop(context.WithoutCancel(ctx))

	return a.orchestrator().Run(ctx, opts)
}

func runFixtures(ctx context.Context, flags autoLinkFlags, opts linking.Options) (*linking.BatchReport, error) {
	f, err := os.Open(flags.fixtures)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	store, err := memory.LoadFixtures(f)
	if err != nil {
		return nil, err
	}

	orch := linking.NewOrchestrator(logger, store, store, store, nil, linkingConfig(cfg))
	report, err := orch.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	if flags.writeTo != "" {
		data, err := json.MarshalIndent(store.Snapshot(), "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(flags.writeTo, data, 0o644); err != nil {
			return nil, fmt.Errorf("write fixtures: %w", err)
		}
	}

	return report, nil
}

func writeReport(w io.Writer, format string, report *linking.BatchReport) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	table := tablewriter.NewTable(w)
	table.Header("Service", "Title", "Action", "Match", "Score", "Provider", "Provider ID", "Reason")
	for _, d := range report.Decisions {
		err := table.Append(
			d.RecordID,
			d.RecordTitle,
			string(d.Action),
			string(d.MatchType),
			strconv.FormatFloat(d.SimilarityScore, 'f', 3, 64),
			d.EntityName,
			d.EntityID,
			d.Reason,
		)
		if err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "linked=%d created=%d failed=%d dry_run=%t threshold=%.2f\n",
		report.LinkedCount, report.CreatedCount, report.FailedCount, report.DryRun, report.Threshold)
	return err
}

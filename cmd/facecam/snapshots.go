package main

import (
	"facecam/internal/config"
	"facecam/internal/dto"
	"facecam/internal/repository/sqlite"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var snapshotOpts struct {
	label  string
	source string
	limit  int
	stats  bool
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List recorded snapshots from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshots(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	snapshotsCmd.Flags().StringVarP(&snapshotOpts.label, "label", "l", "", "Only snapshots containing this label")
	snapshotsCmd.Flags().StringVarP(&snapshotOpts.source, "source", "s", "", "Only snapshots from this source")
	snapshotsCmd.Flags().IntVarP(&snapshotOpts.limit, "limit", "n", 20, "Maximum number of snapshots to list")
	snapshotsCmd.Flags().BoolVar(&snapshotOpts.stats, "stats", false, "Print face counts per label instead")
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshots(out io.Writer, c *config.Config) error {
	if _, err := os.Stat(c.DatabasePath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No journal at %s. Run with --record first.\n", c.DatabasePath)
		return nil
	}

	db, err := sqlite.New(c.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots := sqlite.NewSnapshotRepository(db)
	predictions := sqlite.NewPredictionRepository(db)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	defer w.Flush()

	if snapshotOpts.stats {
		counts, err := predictions.CountByLabel()
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			fmt.Fprintln(out, "No faces recorded.")
			return nil
		}
		fmt.Fprintln(w, "LABEL\tFACES")
		fmt.Fprintln(w, "-----\t-----")
		for _, lc := range counts {
			fmt.Fprintf(w, "%s\t%d\n", lc.Label, lc.Count)
		}
		return nil
	}

	list, err := snapshots.GetAll(&dto.SnapshotFilters{
		Label:  snapshotOpts.label,
		Source: snapshotOpts.source,
		Limit:  snapshotOpts.limit,
	})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No snapshots found.")
		return nil
	}

	fmt.Fprintln(w, "ID\tTIME\tSOURCE\tFACES\tFILE")
	fmt.Fprintln(w, "--\t----\t------\t-----\t----")
	for _, s := range list {
		preds, err := predictions.GetBySnapshotID(s.ID)
		if err != nil {
			return err
		}
		labels := make([]string, 0, len(preds))
		for _, p := range preds {
			labels = append(labels, fmt.Sprintf("%s %.0f%%", p.Label, p.Confidence*100))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Timestamp.Local().Format("2006-01-02 15:04:05"), s.Source, strings.Join(labels, ", "), s.Filename)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/dedup"
)

func newDedupCmd(a *app) *cobra.Command {
	var (
		strategy string
		dryRun   bool
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Remove stored parts that duplicate another row of the same catalog",
		Long: `Rows with the same part number, description, machine info and catalog are
collapsed onto one survivor. Image links of removed rows move to the survivor.`,
		Example: `  # Preview
  partsctl dedup --dry-run

  # Keep the most recently inserted row of each group
  partsctl dedup --strategy latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := dedup.ParseStrategy(strategy)
			if !ok {
				return common.NewAppError("INVALID_INPUT", fmt.Sprintf("unknown strategy %q", strategy), common.ErrInvalidInput)
			}
			ctx := cmd.Context()
			db, store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			report, err := store.DedupParts(ctx, s, dryRun)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			verb := "removed"
			if report.DryRun {
				verb = "would remove"
			}
			fmt.Fprintf(w, "strategy %s: %d parts, %d duplicate groups, %s %d rows, %d image links moved\n",
				report.Strategy, report.TotalParts, len(report.Groups), verb, report.Removed, report.ImagesMoved)
			if verbose {
				for _, g := range report.Groups {
					fmt.Fprintf(w, "  %s %s: keep %d, remove %v\n", g.Catalog, g.Number, g.Keep, g.Remove)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", string(dedup.Earliest), "survivor of each group: earliest or latest")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without changing the database")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every duplicate group")
	return cmd
}

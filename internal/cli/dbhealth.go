package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/parts-catalog/internal/repository"
)

func newDBHealthCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "dbhealth",
		Short: "Check database connectivity and print table counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			if err := repository.HealthCheck(ctx, db, timeout, a.logger); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			counts, err := store.Counts(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "DB health: OK (%s)\n", db.Dialect)
			fmt.Fprintf(w, "- parts:         %d\n", counts.Parts)
			fmt.Fprintf(w, "- part images:   %d\n", counts.PartImages)
			fmt.Fprintf(w, "- guides:        %d\n", counts.Guides)
			fmt.Fprintf(w, "- guide parts:   %d\n", counts.GuideParts)
			fmt.Fprintf(w, "- document runs: %d\n", counts.Documents)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "ping timeout")
	return cmd
}

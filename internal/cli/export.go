package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/parts-catalog/internal/export"
	"github.com/joseph-ayodele/parts-catalog/internal/repository"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		out    string
		filter repository.PartFilter
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored parts to an .xlsx or .parquet file",
		Example: `  partsctl export --out parts.xlsx
  partsctl export --out brakes.parquet --category "Brake System"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			filter.Category = categoryFlag(filter.Category)
			if err := export.NewService(store, a.logger).WriteFile(ctx, out, filter); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "parts.xlsx", "output file; the extension selects the format")
	cmd.Flags().StringVar(&filter.Catalog, "catalog", "", "only parts from this catalog")
	cmd.Flags().StringVar(&filter.Category, "category", "", categoryUsage("only parts in this category"))
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum rows (0 = all)")
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/repository"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit    int
		catalog  string
		category string
	)
	cmd := &cobra.Command{
		Use:   "search [terms...]",
		Short: "Search stored parts",
		Long: `Search matches part numbers, descriptions, categories and catalog names.
Each term is a prefix, and every term must match.

With no terms, parts are listed and may be narrowed with --catalog and --category.`,
		Example: `  partsctl search ch50 brake
  partsctl search --catalog dayton_brakes --category "Brake System"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			var parts []entity.ExtractedPart
			if len(args) > 0 {
				parts, err = store.Search(ctx, strings.Join(args, " "), limit)
			} else {
				parts, err = store.ListParts(ctx, repository.PartFilter{Catalog: catalog, Category: categoryFlag(category), Limit: limit})
			}
			if err != nil {
				return err
			}
			return printParts(cmd.OutOrStdout(), parts)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum results")
	cmd.Flags().StringVar(&catalog, "catalog", "", "only parts from this catalog (listing mode)")
	cmd.Flags().StringVar(&category, "category", "", categoryUsage("only parts in this category (listing mode)"))
	return cmd
}

func printParts(w io.Writer, parts []entity.ExtractedPart) error {
	if len(parts) == 0 {
		_, err := fmt.Fprintln(w, "no parts found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PART\tCATALOG\tPAGE\tCATEGORY\tMODELS\tDESCRIPTION")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			p.Number, p.Catalog, p.Page, p.Category, strings.Join(p.Models, ","), oneLine(p.Description, 60))
	}
	return tw.Flush()
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

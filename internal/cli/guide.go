package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newGuideCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "guide <name>",
		Short: "Show a stored technical guide and the catalog parts it references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer a.closeDB(db)

			g, err := store.GetGuide(ctx, args[0])
			if err != nil {
				return err
			}
			refs, err := store.ResolveGuideParts(ctx, g.Name)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", g.DisplayName, g.Category)
			if g.Description != "" {
				fmt.Fprintf(w, "%s\n", oneLine(g.Description, 200))
			}
			fmt.Fprintf(w, "sections: %d, specifications: %d, related parts: %d\n",
				len(g.Sections), len(g.Specifications), len(g.RelatedParts))
			if len(refs) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PART\tCATALOG\tPAGE")
			for _, r := range refs {
				if r.PartID == 0 {
					fmt.Fprintf(tw, "%s\t-\t-\n", r.Number)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Number, r.Catalog, r.Page)
			}
			return tw.Flush()
		},
	}
}

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/54b3r/refubot-go/internal/logging"
)

// NewCatalogCmd constructs the `refubot catalog` command, which prints how a
// category path resolves. Useful when editing a taxonomy file.
func NewCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [path]",
		Short: "Show how a category path resolves",
		Long: `Print the resolved prefix, label, document source and child options of a
dotted category path. Without a path the root categories are listed.

Examples:
  refubot catalog
  refubot catalog inverter.aux_inverter
  REFUBOT_CATALOG=./catalog.yaml refubot catalog charger`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadCatalog(logging.New())
			if err != nil {
				return fmt.Errorf("catalog: %w", err)
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			res := tree.Resolve(path)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if res.Path != path {
				fmt.Fprintf(w, "resolved:\t%s (requested %s)\n", valueOr(res.Path, "<root>"), path)
			} else {
				fmt.Fprintf(w, "path:\t%s\n", valueOr(res.Path, "<root>"))
			}
			fmt.Fprintf(w, "label:\t%s\n", valueOr(res.Label(), "-"))
			fmt.Fprintf(w, "source:\t%s\n", valueOr(res.Source, "-"))
			for _, c := range res.Children {
				fmt.Fprintf(w, "  %s\t%s\n", c.Path, c.Label)
			}
			return w.Flush() //nolint:wrapcheck // CLI entry point
		},
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

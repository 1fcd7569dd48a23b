package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-engine/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and seed the fallback catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every page has a consistent entry for every period",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		src, closeFn, err := openCatalogSource(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		c, err := catalog.Load(cmd.Context(), src)
		if err != nil {
			return err
		}
		problems := catalog.Validate(c)
		out := cmd.OutOrStdout()
		for _, p := range problems {
			fmt.Fprintln(out, p.String())
		}
		if len(problems) > 0 {
			return eris.Errorf("catalog %s: %d problem(s)", c.Source(), len(problems))
		}
		fmt.Fprintf(out, "catalog %s: %d entries ok\n", c.Source(), c.Len())
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog pages and their periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		src, closeFn, err := openCatalogSource(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		c, err := catalog.Load(cmd.Context(), src)
		if err != nil {
			return err
		}
		return printCatalog(cmd, c)
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the embedded catalog into the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		ctx := cmd.Context()

		embedded, err := catalog.Load(ctx, catalog.Embedded())
		if err != nil {
			return err
		}
		// Seed normalized payloads rather than the YAML-derived bytes.
		entries, err := embedded.RawEntries()
		if err != nil {
			return err
		}

		st, closeFn, err := openCatalogDB(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate catalog")
		}
		n, err := st.Seed(ctx, entries)
		if err != nil {
			return eris.Wrap(err, "seed catalog")
		}

		zap.L().Info("catalog seeded", zap.String("source", st.Name()), zap.Int("entries", n))
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entries into %s\n", n, st.Name())
		return nil
	},
}

func printCatalog(cmd *cobra.Command, c *catalog.Catalog) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tPERIODS")
	for _, page := range c.Pages() {
		keys := c.Keys(page)
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		fmt.Fprintf(w, "%s\t%s\n", page, strings.Join(names, ", "))
	}
	return w.Flush()
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd, catalogListCmd, catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}

package main

import (
	"context"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dashboard-engine/internal/dashboard"
	"github.com/sells-group/dashboard-engine/internal/period"
)

var (
	reportPage    string
	reportAll     bool
	reportPeriode string
	reportFrom    string
	reportTo      string
	reportFilters []string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch dashboard pages once and print their views as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportPage == "" && !reportAll {
			return eris.New("either --page or --all is required")
		}

		env, err := initDashboard(cmd.Context(), "report")
		if err != nil {
			return err
		}
		defer env.Close()

		sel, err := reportSelection()
		if err != nil {
			return err
		}
		return runReport(cmd.Context(), env.Board, reportPage, sel, cmd.OutOrStdout())
	},
}

// reportSelection builds the selection described by the report flags.
func reportSelection() (dashboard.Selection, error) {
	key, err := period.ParseKey(reportPeriode)
	if err != nil {
		return dashboard.Selection{}, err
	}
	if reportFrom != "" || reportTo != "" {
		key = period.Custom
	}
	filters, err := parseFilters(reportFilters)
	if err != nil {
		return dashboard.Selection{}, err
	}
	return dashboard.Selection{Key: key, Start: reportFrom, End: reportTo, Filters: filters}, nil
}

// parseFilters turns k=v flags into a filter map.
func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, eris.Errorf("invalid filter %q, want key=value", kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// runReport applies sel to one page, or to every page when page is empty,
// loads them and writes the views to w.
func runReport(ctx context.Context, board *dashboard.Board, page string, sel dashboard.Selection, w io.Writer) error {
	var out any
	if page != "" {
		p, ok := board.Page(page)
		if !ok {
			return eris.Errorf("unknown page %q (known: %s)", page, strings.Join(board.Names(), ", "))
		}
		t, err := p.Select(sel)
		if err != nil {
			return eris.Wrapf(err, "select %s", page)
		}
		out = p.Load(ctx, t)
	} else {
		for _, name := range board.Names() {
			p, _ := board.Page(name)
			// Filters are page-specific; only the period applies to all pages.
			if _, err := p.Select(dashboard.Selection{Key: sel.Key, Start: sel.Start, End: sel.End}); err != nil {
				return eris.Wrapf(err, "select %s", name)
			}
		}
		views, err := board.RefreshAll(ctx)
		if err != nil {
			return eris.Wrap(err, "refresh pages")
		}
		out = views
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	reportCmd.Flags().StringVar(&reportPage, "page", "", "page to report (agents, amendes, infractions, commissariats, controles)")
	reportCmd.Flags().BoolVar(&reportAll, "all", false, "report every page")
	reportCmd.Flags().StringVar(&reportPeriode, "periode", "jour", "period preset (jour, semaine, mois, annee, tout)")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "custom range start (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "custom range end (YYYY-MM-DD)")
	reportCmd.Flags().StringArrayVar(&reportFilters, "filter", nil, "page filter as key=value (repeatable)")
	rootCmd.AddCommand(reportCmd)
}

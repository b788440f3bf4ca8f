package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/cli/pagination"
	"github.com/rshade/planetzero/internal/engine"
)

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show today, the last 7 days and the last 30 days",
		Long: `Shows three summaries for the current user: today, the rolling last 7 days
and the rolling last 30 days (today included, UTC). Each summary compares the
daily average with the configured regional baseline (emissions.baseline_daily_kg).`,
		Example: `  planetzero dashboard
  planetzero dashboard --user alice --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := currentUser()
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				d, err := eng.Dashboard(ctx, user)
				if err != nil {
					return err
				}
				return renderDashboard(newRenderer(cmd), d)
			})
		},
	}
}

func renderDashboard(r *renderer, d engine.Dashboard) error {
	if r.isJSON() {
		return r.writeJSON(d)
	}
	blocks := []string{
		r.box(r.summaryText("Today", d.Today)),
		r.box(r.summaryText("Last 7 days", d.Weekly)),
		r.box(r.summaryText("Last 30 days", d.Monthly)),
	}
	_, err := fmt.Fprintln(r.w, strings.Join(blocks, "\n\n"))
	return err
}

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize emissions over a custom date range",
		Long: `Summarizes the current user's emissions between two dates, both inclusive.
The daily average divides by the number of logged days, not calendar days.`,
		Example: `  planetzero summary --start 2026-01-01 --end 2026-01-31`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := currentUser()
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				s, err := eng.Summary(ctx, user, engine.WindowCustom, engine.DateRange{Start: start, End: end})
				if err != nil {
					return err
				}
				return newRenderer(cmd).renderSummary("Summary", s)
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// historyOutput is the JSON shape of `history`.
type historyOutput struct {
	Records []engine.EmissionRecord `json:"records"`
	pagination.ListMeta
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var (
		start, end, sortExpr string
		limit                int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored daily logs, newest first",
		Example: `  # The last 30 logged days
  planetzero history

  # January, highest total first
  planetzero history --start 2026-01-01 --end 2026-01-31 --sort total:desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := pagination.NewParams(limit, sortExpr)
			if err != nil {
				return err
			}
			effective, err := params.EffectiveLimit(pagination.HistoryBounds)
			if err != nil {
				return err
			}
			sorter := pagination.NewRecordSorter()
			if params.HasSort() && !sorter.IsValidField(params.SortField) {
				_, err = sorter.Sort(nil, params.SortField, params.SortOrder)
				return err
			}
			user, err := currentUser()
			if err != nil {
				return err
			}

			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				recs, err := eng.History(ctx, user, engine.HistoryQuery{Start: start, End: end, Limit: effective})
				if err != nil {
					return err
				}
				if params.HasSort() {
					if recs, err = sorter.Sort(recs, params.SortField, params.SortOrder); err != nil {
						return err
					}
				}
				return renderHistory(newRenderer(cmd), recs, effective)
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "earliest day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "latest day, YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("maximum days to list (%d-%d, default %d)",
		engine.MinHistoryLimit, engine.MaxHistoryLimit, engine.DefaultHistoryLimit))
	cmd.Flags().StringVar(&sortExpr, "sort", "",
		"reorder the listed days: field[:asc|desc], fields: "+strings.Join(pagination.NewRecordSorter().GetValidFields(), ", "))

	return cmd
}

func renderHistory(r *renderer, recs []engine.EmissionRecord, limit int) error {
	if r.isJSON() {
		return r.writeJSON(historyOutput{Records: recs, ListMeta: pagination.NewListMeta(len(recs), limit)})
	}
	if len(recs) == 0 {
		printLine(r.w, "No logs found")
		return nil
	}
	tw := newTable(r.w)
	printLine(tw, "DATE\tTRANSPORT\tELECTRICITY\tFOOD\tLIFESTYLE\tTOTAL\tHIGHEST")
	for _, rec := range recs {
		printLine(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s",
			rec.Date, r.amount(rec.Transport), r.amount(rec.Electricity), r.amount(rec.Food),
			r.amount(rec.Lifestyle), r.amount(rec.Total), rec.HighestCategory)
	}
	return tw.Flush()
}

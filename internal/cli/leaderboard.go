package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/cli/pagination"
	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/engine"
)

// NewLeaderboardCmd creates the leaderboard command.
func NewLeaderboardCmd() *cobra.Command {
	var (
		period string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank users by lowest average daily emissions",
		Long: `Ranks every user with logs in the period by average daily emissions,
lowest first, and shows where the current user stands even outside the top N.

Periods: weekly (last 7 days), monthly (last 30 days), all_time.`,
		Example: `  planetzero leaderboard
  planetzero leaderboard --period weekly --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if !cmd.Flags().Changed("period") {
				period = cfg.Leaderboard.DefaultPeriod
			}
			p, err := engine.ParsePeriod(period)
			if err != nil {
				return err
			}
			bounds := pagination.LeaderboardBounds
			if cfg.Leaderboard.DefaultLimit != 0 {
				bounds.Default = cfg.Leaderboard.DefaultLimit
			}
			effective, err := pagination.Params{Limit: limit}.EffectiveLimit(bounds)
			if err != nil {
				return err
			}
			user, err := currentUser()
			if err != nil {
				return err
			}

			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				res, err := eng.Leaderboard(ctx, user, p, effective)
				if err != nil {
					return err
				}
				return renderLeaderboard(newRenderer(cmd), user, res)
			})
		},
	}

	cmd.Flags().StringVar(&period, "period", "monthly", "ranking window: weekly, monthly or all_time")
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("entries to show (%d-%d, default leaderboard.default_limit)",
		engine.MinLeaderboardLimit, engine.MaxLeaderboardLimit))

	return cmd
}

func renderLeaderboard(r *renderer, user string, res engine.LeaderboardResult) error {
	if r.isJSON() {
		return r.writeJSON(res)
	}
	printLine(r.w, "%s", r.title("Leaderboard ("+res.Period.String()+")"))
	if len(res.Entries) == 0 {
		printLine(r.w, "No logs in this period")
		return nil
	}

	tw := newTable(r.w)
	printLine(tw, "RANK\tUSER\tNAME\tAVG/DAY\tTOTAL")
	for _, e := range res.Entries {
		marker := " "
		if e.UserID == user {
			marker = "*"
		}
		printLine(tw, "%s%d\t%s\t%s\t%s\t%s",
			marker, e.Rank, e.UserID, e.UserName, r.amount(e.AverageDailyKg), r.amount(e.TotalKg))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if res.UserRank == nil {
		printLine(r.w, "\nYou have no logs in this period")
		return nil
	}
	printLine(r.w, "\nYour rank: %d (%s per day)", *res.UserRank, r.amount(*res.UserAverageKg))
	return nil
}

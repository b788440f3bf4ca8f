package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/cli/pagination"
	"github.com/rshade/planetzero/internal/engine"
)

// NewRecommendationsCmd creates the recommendations command.
func NewRecommendationsCmd() *cobra.Command {
	var sortExpr string

	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "Suggest changes based on the last 30 days",
		Long: `Suggests up to five changes that would lower emissions, based on the
current user's category averages over the last 30 days. Without any logs a
general set of tips is shown.`,
		Example: `  planetzero recommendations
  planetzero recommendations --sort savings:desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := pagination.NewParams(0, sortExpr)
			if err != nil {
				return err
			}
			user, err := currentUser()
			if err != nil {
				return err
			}

			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				set, err := eng.Recommendations(ctx, user)
				if err != nil {
					return err
				}
				if params.HasSort() {
					sorted, sortErr := pagination.NewRecommendationSorter().
						Sort(set.Recommendations, params.SortField, params.SortOrder)
					if sortErr != nil {
						return sortErr
					}
					set.Recommendations = sorted
				}
				return renderRecommendations(newRenderer(cmd), set)
			})
		},
	}

	cmd.Flags().StringVar(&sortExpr, "sort", "",
		"order: field[:asc|desc], fields: "+strings.Join(pagination.NewRecommendationSorter().GetValidFields(), ", "))

	return cmd
}

func renderRecommendations(r *renderer, set engine.RecommendationSet) error {
	if r.isJSON() {
		return r.writeJSON(set)
	}
	if !set.HasData {
		printLine(r.w, "No logs in the last 30 days; general tips:")
	} else {
		printLine(r.w, "Highest emission category: %s", r.title(string(set.DominantCategory)))
	}
	for i, rec := range set.Recommendations {
		printLine(r.w, "\n%d. %s [%s]", i+1, r.title(rec.Title), rec.Category)
		printLine(r.w, "   %s", rec.Description)
		if rec.PotentialSavingsKg > 0 {
			printLine(r.w, "   Potential savings: %s per day", r.amount(rec.PotentialSavingsKg))
		}
	}
	if set.TotalPotentialSavingsKg > 0 {
		printLine(r.w, "\nTotal potential savings: %s per day", r.amount(set.TotalPotentialSavingsKg))
	}
	return nil
}

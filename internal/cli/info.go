package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/greenops"
)

// NewProfileCmd creates the profile command.
func NewProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the current user's identity and lifetime totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := currentUser()
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				p, err := eng.Profile(ctx, user)
				if err != nil {
					return err
				}
				return renderProfile(newRenderer(cmd), p)
			})
		},
	}
}

func renderProfile(r *renderer, p engine.Profile) error {
	if r.isJSON() {
		return r.writeJSON(p)
	}
	tw := newTable(r.w)
	writeUserRows(tw, p.User)
	printLine(tw, "Logged days:\t%d", p.TotalLogs)
	printLine(tw, "Total emissions:\t%s", r.amount(p.TotalKg))
	printLine(tw, "Daily average:\t%s", r.amount(p.AverageDailyKg))
	printLine(tw, "Onboarding completed:\t%t", p.OnboardingCompleted)
	return tw.Flush()
}

// NewFactorsCmd creates the factors command.
func NewFactorsCmd() *cobra.Command {
	var category, subtype string

	cmd := &cobra.Command{
		Use:   "factors",
		Short: "List the emission factors used by the calculator",
		Example: `  planetzero factors
  planetzero factors --category food
  planetzero factors --category transport --subtype bus -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factors, err := greenops.SelectFactors(category, subtype)
			if err != nil {
				return fmt.Errorf("%w: %w", engine.ErrValidation, err)
			}
			r := newRenderer(cmd)
			if r.isJSON() {
				return r.writeJSON(map[string]any{"factors": factors})
			}
			tw := newTable(r.w)
			printLine(tw, "CATEGORY\tSUBTYPE\tFACTOR\tUNIT\tREGION\tSOURCE")
			for _, f := range factors {
				printLine(tw, "%s\t%s\t%s\t%s\t%s\t%s",
					f.Category, f.Subtype, strconv.FormatFloat(f.Factor, 'f', -1, 64), f.Unit, f.Region, f.Source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only this category (transport, electricity, food, lifestyle)")
	cmd.Flags().StringVar(&subtype, "subtype", "", "only this subtype within --category")

	return cmd
}

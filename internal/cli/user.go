package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/ingest"
)

// NewUserAddCmd creates the user add command.
func NewUserAddCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:     "add <id>",
		Short:   "Register a user",
		Example: `  planetzero user add alice --name "Alice Example"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			audit := newAuditContext(ctx, "user add", map[string]string{"id": args[0]})

			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				u, err := eng.RegisterUser(ctx, engine.User{ID: args[0], Name: name, Email: strings.TrimSpace(email)})
				if err = audit.finish(ctx, err, 1, 0); err != nil {
					return err
				}
				r := newRenderer(cmd)
				if !r.isJSON() {
					printLine(r.w, "Registered %s", u.ID)
				}
				return r.renderUser(u)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name shown on the leaderboard")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// onboardFlags holds the flag values of `user onboard`.
type onboardFlags struct {
	file          string
	name          string
	age           int
	gender        string
	country       string
	city          string
	householdSize int
	transportMode string
	dietType      string
	energySource  string
}

// NewUserOnboardCmd creates the user onboard command.
func NewUserOnboardCmd() *cobra.Command {
	var flags onboardFlags

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Record the current user's onboarding answers",
		Long: `Stores onboarding answers for the current user. Only the answers given are
changed. Onboarding counts as complete once both country and city are set.

Answers come from a JSON or YAML file (--file) or from flags.`,
		Example: `  planetzero user onboard --country India --city Pune --diet veg --household-size 3
  planetzero user onboard --file onboarding.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUserOnboard(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "answers file (JSON or YAML, '-' for stdin)")
	f.StringVar(&flags.name, "name", "", "display name")
	f.IntVar(&flags.age, "age", 0, "age in years (1-150)")
	f.StringVar(&flags.gender, "gender", "", "gender")
	f.StringVar(&flags.country, "country", "", "country")
	f.StringVar(&flags.city, "city", "", "city")
	f.IntVar(&flags.householdSize, "household-size", 0, "people in the household (1-50)")
	f.StringVar(&flags.transportMode, "transport-mode", "", "usual commute: "+strings.Join(engine.CommuteModes(), ", "))
	f.StringVar(&flags.dietType, "diet", "", "diet: veg, non_veg, vegan")
	f.StringVar(&flags.energySource, "energy-source", "", "home energy: "+strings.Join(engine.EnergySources(), ", "))

	return cmd
}

func runUserOnboard(cmd *cobra.Command, flags onboardFlags) error {
	ctx := cmd.Context()
	audit := newAuditContext(ctx, "user onboard", map[string]string{"file": flags.file})

	fields, err := onboardingFields(cmd, flags)
	if err != nil {
		return audit.finish(ctx, err, 0, 0)
	}

	return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
		user, err := ensureCurrentUser(ctx, eng)
		if err != nil {
			return audit.finish(ctx, err, 0, 0)
		}
		u, err := eng.Onboard(ctx, user, fields)
		if err = audit.finish(ctx, err, 1, 0); err != nil {
			return err
		}
		return newRenderer(cmd).renderUser(u)
	})
}

// onboardingFields reads --file or collects the flags that were set.
func onboardingFields(cmd *cobra.Command, flags onboardFlags) (engine.OnboardingFields, error) {
	if flags.file != "" {
		return ingest.LoadOnboarding(cmd.Context(), flags.file)
	}

	var fields engine.OnboardingFields
	changed := cmd.Flags().Changed
	str := func(flag, v string) *string {
		if !changed(flag) {
			return nil
		}
		return &v
	}
	num := func(flag string, v int) *int {
		if !changed(flag) {
			return nil
		}
		return &v
	}
	fields.Name = str("name", flags.name)
	fields.Age = num("age", flags.age)
	fields.Gender = str("gender", flags.gender)
	fields.Country = str("country", flags.country)
	fields.City = str("city", flags.city)
	fields.HouseholdSize = num("household-size", flags.householdSize)
	fields.TransportMode = str("transport-mode", flags.transportMode)
	fields.DietType = str("diet", flags.dietType)
	fields.EnergySource = str("energy-source", flags.energySource)
	return fields, nil
}

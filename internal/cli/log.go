package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/engine/batch"
	"github.com/rshade/planetzero/internal/greenops"
	"github.com/rshade/planetzero/internal/ingest"
)

// logSubmitFlags holds the flag values of `log submit`.
type logSubmitFlags struct {
	date       string
	file       string
	transport  []string
	meals      []string
	items      []string
	kwh        float64
	createOnly bool
}

// NewLogSubmitCmd creates the log submit command.
func NewLogSubmitCmd() *cobra.Command {
	var flags logSubmitFlags

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Calculate and store one day's emissions",
		Long: `Calculates emissions for one day of activity and stores them.

Activity comes either from a JSON or YAML file (--file, "-" for stdin) or from
flags. Submitting a date that already has a log replaces it unless
--create-only is set.`,
		Example: `  # Today's commute, electricity and meals
  planetzero log submit --transport car_petrol:20 --transport bus:5 --kwh 10 --meal veg:2

  # A specific day from a file
  planetzero log submit --date 2026-01-10 --file day.yaml

  # Fail instead of replacing an existing log
  planetzero log submit --date 2026-01-10 --file day.yaml --create-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogSubmit(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.date, "date", "", "day to log as YYYY-MM-DD (default today, UTC)")
	f.StringVarP(&flags.file, "file", "f", "", "activity file (JSON or YAML, '-' for stdin)")
	f.StringArrayVar(&flags.transport, "transport", nil, "trip as mode:km (repeatable), modes: "+joinModes())
	f.StringArrayVar(&flags.meals, "meal", nil, "meals as type:count (repeatable), types: veg, non_veg, vegan")
	f.StringArrayVar(&flags.items, "item", nil, "purchases as category:count (repeatable), categories: clothing, electronics")
	f.Float64Var(&flags.kwh, "kwh", 0, "electricity used in kWh")
	f.BoolVar(&flags.createOnly, "create-only", false, "fail if the day already has a log")
	cmd.MarkFlagsMutuallyExclusive("file", "transport")
	cmd.MarkFlagsMutuallyExclusive("file", "meal")
	cmd.MarkFlagsMutuallyExclusive("file", "item")
	cmd.MarkFlagsMutuallyExclusive("file", "kwh")

	return cmd
}

func joinModes() string {
	modes := greenops.TransportModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func runLogSubmit(cmd *cobra.Command, flags logSubmitFlags) error {
	ctx := cmd.Context()
	audit := newAuditContext(ctx, "log submit", map[string]string{
		"date":        flags.date,
		"file":        flags.file,
		"create_only": strconv.FormatBool(flags.createOnly),
	})

	date, activity, err := submittedActivity(ctx, flags)
	if err != nil {
		return audit.finish(ctx, err, 0, 0)
	}
	mode := engine.ModeUpsert
	if flags.createOnly {
		mode = engine.ModeCreate
	}

	return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
		user, err := ensureCurrentUser(ctx, eng)
		if err != nil {
			return audit.finish(ctx, err, 0, 0)
		}
		if date == "" {
			date = eng.Today()
		}
		audit.params["date"] = date

		res, err := eng.LogActivity(ctx, user, date, activity, mode)
		if err != nil {
			return audit.finish(ctx, err, 0, 0)
		}
		_ = audit.finish(ctx, nil, 1, res.Record.Total)

		r := newRenderer(cmd)
		if r.isJSON() {
			return r.writeJSON(res)
		}
		verb := "Replaced"
		if res.Created {
			verb = "Logged"
		}
		printLine(r.w, "%s %s for %s", verb, r.amount(res.Record.Total), res.Record.Date)
		return r.renderRecord(res.Record)
	})
}

// submittedActivity reads the day from --file or assembles it from flags.
// The --date flag wins over a date inside the file.
func submittedActivity(ctx context.Context, flags logSubmitFlags) (string, greenops.Activity, error) {
	if flags.file == "" {
		activity, err := ingest.ActivityFromFlags(flags.transport, flags.meals, flags.items, flags.kwh)
		return flags.date, activity, err
	}
	day, err := ingest.LoadDailyLog(ctx, flags.file)
	if err != nil {
		return "", greenops.Activity{}, err
	}
	date := day.Date
	if flags.date != "" {
		date = flags.date
	}
	return date, day.Activity, nil
}

// NewLogGetCmd creates the log get command.
func NewLogGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <date>",
		Short:   "Show one day's stored log",
		Example: `  planetzero log get 2026-01-10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := currentUser()
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				rec, err := eng.GetLog(ctx, user, args[0])
				if err != nil {
					return err
				}
				return newRenderer(cmd).renderRecord(*rec)
			})
		},
	}
}

// logImportFlags holds the flag values of `log import`.
type logImportFlags struct {
	file        string
	batchSize   int
	concurrency int
}

// NewLogImportCmd creates the log import command.
func NewLogImportCmd() *cobra.Command {
	var flags logImportFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import many days of activity from one file",
		Long: `Imports a file holding a list of days. Every day is validated before
anything is written; one invalid day rejects the whole import. Existing logs
for imported dates are replaced.

File layout (YAML or JSON):

  days:
    - date: 2026-01-09
      transportation:
        - {mode: bus, distance_km: 12}
      electricity_kwh: 6
    - date: 2026-01-10
      food:
        - {meal_type: vegan, meals_count: 3}`,
		Example: `  planetzero log import --file days.yaml
  planetzero log import --file days.json --batch-size 50 --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogImport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "import file (JSON or YAML, '-' for stdin)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", batch.DefaultBatchSize, "days written per batch")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 1, "batches written in parallel")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runLogImport(cmd *cobra.Command, flags logImportFlags) error {
	ctx := cmd.Context()
	audit := newAuditContext(ctx, "log import", map[string]string{
		"file":       flags.file,
		"batch_size": strconv.Itoa(flags.batchSize),
	})
	if flags.concurrency < 1 {
		return audit.finish(ctx, fmt.Errorf("%w: --concurrency must be at least 1", engine.ErrValidation), 0, 0)
	}

	days, err := ingest.LoadImport(ctx, flags.file)
	if err != nil {
		return audit.finish(ctx, err, 0, 0)
	}

	return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
		user, err := ensureCurrentUser(ctx, eng)
		if err != nil {
			return audit.finish(ctx, err, 0, 0)
		}

		r := newRenderer(cmd)
		opts := engine.ImportOptions{BatchSize: flags.batchSize, Concurrency: flags.concurrency}
		if !r.isJSON() {
			errOut := cmd.ErrOrStderr()
			var mu sync.Mutex
			opts.OnProgress = func(p batch.ProgressSnapshot) {
				mu.Lock()
				defer mu.Unlock()
				printLine(errOut, "  imported %d/%d days (%.0f%%)", p.ProcessedItems, p.TotalItems, p.PercentComplete)
				if p.IsComplete() {
					printLine(errOut, "  wrote %d batch(es) in %s", p.TotalBatches, p.ElapsedTime.Round(time.Millisecond))
				}
			}
		}

		res, err := eng.ImportLogs(ctx, user, days, opts)
		if err != nil {
			return audit.finish(ctx, err, 0, 0)
		}
		_ = audit.finish(ctx, nil, res.Days, res.TotalKg)

		if r.isJSON() {
			return r.writeJSON(res)
		}
		printLine(r.w, "Imported %d day(s) for %s: %d created, %d updated, %s total",
			res.Days, user, res.Created, res.Updated, r.amount(res.TotalKg))
		return nil
	})
}

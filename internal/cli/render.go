package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/greenops"
)

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
)

// Box and table layout.
const (
	boxWidth       = 56
	tableMinWidth  = 0
	tableTabWidth  = 0
	tablePadding   = 2
	tablePadChar   = ' '
	tableFlagsNone = 0
)

// boxBorderColor returns the lipgloss.Color used for summary box borders.
func boxBorderColor() lipgloss.Color { return lipgloss.Color("240") }

// boxTitleColor returns the lipgloss.Color used for titles.
func boxTitleColor() lipgloss.Color { return lipgloss.Color("39") }

// colorAbove returns the color for values above the regional average.
func colorAbove() lipgloss.Color { return lipgloss.Color("214") }

// colorBelow returns the color for values below the regional average.
func colorBelow() lipgloss.Color { return lipgloss.Color("42") }

// renderer writes command results as a table or as JSON.
type renderer struct {
	w      io.Writer
	format string
	unit   string
	styled bool
}

// newRenderer builds a renderer for cmd from the effective configuration.
func newRenderer(cmd *cobra.Command) *renderer {
	cfg := config.GetGlobalConfig()
	w := cmd.OutOrStdout()
	return &renderer{
		w:      w,
		format: cfg.Output.DefaultFormat,
		unit:   cfg.Output.Unit,
		styled: isWriterTerminal(w),
	}
}

// isWriterTerminal reports whether w is an *os.File attached to a terminal.
// Buffers used in tests are never terminals.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminal(f)
	}
	return false
}

func (r *renderer) isJSON() bool {
	return r.format == formatJSON
}

// writeJSON writes v as indented JSON.
func (r *renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// amount formats a kg value in the configured display unit.
func (r *renderer) amount(kg float64) string {
	if r.unit == "" || r.unit == "kg" {
		return greenops.FormatKg(kg)
	}
	v, err := greenops.ConvertFromKg(kg, r.unit)
	if err != nil {
		return greenops.FormatKg(kg)
	}
	return greenops.FormatFloat(v, greenops.EmissionPrecision) + " " + r.unit
}

// title renders a heading, bold and colored on a terminal.
func (r *renderer) title(s string) string {
	if !r.styled {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Foreground(boxTitleColor()).Render(s)
}

// box wraps content in a rounded border on a terminal and returns it
// unchanged otherwise.
func (r *renderer) box(content string) string {
	content = strings.TrimRight(content, "\n")
	if !r.styled {
		return content
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(boxBorderColor()).
		Padding(0, 1).
		Width(boxWidth).
		Render(content)
}

// comparison renders a comparison percentage, colored by sign on a terminal.
func (r *renderer) comparison(pct float64) string {
	text := greenops.FormatPercent(pct) + " vs regional average"
	if !r.styled {
		return text
	}
	color := colorBelow()
	if pct > 0 {
		color = colorAbove()
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// newTable returns a tabwriter over w. Callers must Flush it.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, tableMinWidth, tableTabWidth, tablePadding, tablePadChar, tableFlagsNone)
}

// printLine writes one line, dropping the write error; the final Flush or
// Fprintln of each renderer reports failures.
func printLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// summaryText renders one period summary as plain lines.
func (r *renderer) summaryText(label string, s engine.PeriodSummary) string {
	var b strings.Builder
	printLine(&b, "%s  (%s to %s)", r.title(strings.ToUpper(label)), s.Start, s.End)
	if s.LoggedDays == 0 {
		printLine(&b, "No activity logged in this period")
		return b.String()
	}

	tw := newTable(&b)
	printLine(tw, "Total:\t%s", r.amount(s.TotalKg))
	printLine(tw, "Daily average:\t%s over %d logged day(s)", r.amount(s.AverageDailyKg), s.LoggedDays)
	printLine(tw, "  Transport:\t%s", r.amount(s.TransportKg))
	printLine(tw, "  Electricity:\t%s", r.amount(s.ElectricityKg))
	printLine(tw, "  Food:\t%s", r.amount(s.FoodKg))
	printLine(tw, "  Lifestyle:\t%s", r.amount(s.LifestyleKg))
	printLine(tw, "Highest category:\t%s", s.HighestCategory)
	_ = tw.Flush()

	if s.ComparisonToAverage != nil {
		printLine(&b, "%s", r.comparison(*s.ComparisonToAverage))
	}
	if s.Equivalencies != nil && !s.Equivalencies.IsEmpty {
		printLine(&b, "%s", s.Equivalencies.DisplayText)
	}
	return b.String()
}

// renderSummary writes a single period summary.
func (r *renderer) renderSummary(label string, s engine.PeriodSummary) error {
	if r.isJSON() {
		return r.writeJSON(s)
	}
	_, err := fmt.Fprintln(r.w, r.box(r.summaryText(label, s)))
	return err
}

// renderRecord writes one day's emission record.
func (r *renderer) renderRecord(rec engine.EmissionRecord) error {
	if r.isJSON() {
		return r.writeJSON(rec)
	}
	var b strings.Builder
	printLine(&b, "%s  %s", r.title(rec.Date), rec.UserID)
	tw := newTable(&b)
	printLine(tw, "  Transport:\t%s", r.amount(rec.Transport))
	printLine(tw, "  Electricity:\t%s", r.amount(rec.Electricity))
	printLine(tw, "  Food:\t%s", r.amount(rec.Food))
	printLine(tw, "  Lifestyle:\t%s", r.amount(rec.Lifestyle))
	printLine(tw, "Total:\t%s", r.amount(rec.Total))
	printLine(tw, "Highest category:\t%s", rec.HighestCategory)
	_ = tw.Flush()
	_, err := fmt.Fprintln(r.w, r.box(b.String()))
	return err
}

// renderUser writes an identity record.
func (r *renderer) renderUser(u engine.User) error {
	if r.isJSON() {
		return r.writeJSON(struct {
			engine.User
			OnboardingCompleted bool `json:"onboarding_completed"`
		}{u, u.OnboardingCompleted()})
	}
	tw := newTable(r.w)
	writeUserRows(tw, u)
	printLine(tw, "Onboarding completed:\t%t", u.OnboardingCompleted())
	return tw.Flush()
}

func writeUserRows(w io.Writer, u engine.User) {
	printLine(w, "ID:\t%s", u.ID)
	printLine(w, "Name:\t%s", u.Name)
	optional := []struct{ label, value string }{
		{"Email", u.Email},
		{"Gender", u.Gender},
		{"Country", u.Country},
		{"City", u.City},
		{"Transport mode", u.TransportMode},
		{"Diet", u.DietType},
		{"Energy source", u.EnergySource},
	}
	for _, o := range optional {
		if o.value != "" {
			printLine(w, "%s:\t%s", o.label, o.value)
		}
	}
	if u.Age != nil {
		printLine(w, "Age:\t%d", *u.Age)
	}
	if u.HouseholdSize != nil {
		printLine(w, "Household size:\t%d", *u.HouseholdSize)
	}
}

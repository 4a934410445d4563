// Package ui renders the command line's styled output: status lines, tables and migration plans.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/schema-engine/migrate/planner"
)

var (
	accent = lipgloss.Color("#00D9FF")
	muted  = lipgloss.Color("#6C757D")

	SafeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true)
	WarningStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB800")).Bold(true)
	UnexecutableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	infoStyle         = lipgloss.NewStyle().Foreground(accent)
	mutedStyle        = lipgloss.NewStyle().Foreground(muted)

	highlight = color.New(color.FgCyan, color.Bold)
)

func width() int {
	if w := pterm.GetTerminalWidth(); w > 0 {
		return w
	}
	return 80
}

func status(w io.Writer, style lipgloss.Style, mark, format string, args ...any) {
	fmt.Fprintln(w, style.Render(mark+" "+fmt.Sprintf(format, args...)))
}

// PrintSuccess prints a success line.
func PrintSuccess(format string, args ...any) { status(os.Stdout, SafeStyle, "✓", format, args...) }

// PrintWarning prints a warning line.
func PrintWarning(format string, args ...any) { status(os.Stdout, WarningStyle, "⚠", format, args...) }

// PrintInfo prints an informational line.
func PrintInfo(format string, args ...any) { status(os.Stdout, infoStyle, "ℹ", format, args...) }

// PrintError prints an error line to stderr.
func PrintError(format string, args ...any) {
	status(os.Stderr, UnexecutableStyle, "✗", format, args...)
}

// Highlight prints plain emphasized text, e.g. a version string meant for scripts.
func Highlight(format string, args ...any) {
	_, _ = highlight.Printf(format, args...)
}

// PrintHeader prints a boxed title with a muted subtitle.
func PrintHeader(title, subtitle string) {
	fmt.Println(lipgloss.NewStyle().
		Width(width()).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Foreground(accent).Bold(true).Render(title),
			mutedStyle.Render(subtitle))))
	fmt.Println()
}

// PrintSection prints an underlined section title.
func PrintSection(title string) {
	fmt.Println(lipgloss.NewStyle().
		Width(width()).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(muted).
		Render(title))
}

// PrintTable prints rows under a header row.
func PrintTable(headers []string, rows [][]string) {
	data := append(pterm.TableData{headers}, rows...)
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// PrintList prints a bulleted list.
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("  • %s\n", item)
	}
}

// PrintSpinner starts a spinner; the caller stops it.
func PrintSpinner(message string) (*pterm.SpinnerPrinter, error) {
	return pterm.DefaultSpinner.WithText(message).Start()
}

// PlanHeaders are the columns of the plan table.
var PlanHeaders = []string{"#", "Phase", "Step", "Level", "Summary"}

// LevelStyle returns the style a destructiveness level is printed with.
func LevelStyle(level planner.Level) lipgloss.Style {
	switch level {
	case planner.Warning:
		return WarningStyle
	case planner.Unexecutable:
		return UnexecutableStyle
	default:
		return SafeStyle
	}
}

// PlanRows returns one table row per step.
func PlanRows(p *planner.Plan) [][]string {
	rows := make([][]string, 0, len(p.Steps))
	for i, s := range p.Steps {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			s.Phase.String(),
			s.Kind.String(),
			s.Destructiveness.Level.String(),
			s.Summary(),
		})
	}
	return rows
}

// PrintPlan prints the plan as a table followed by its overall destructiveness.
func PrintPlan(p *planner.Plan) {
	if planner.IsNoop(p) {
		PrintSuccess("The database is already in sync with the schema")
		return
	}

	rows := PlanRows(p)
	for i, s := range p.Steps {
		rows[i][3] = LevelStyle(s.Destructiveness.Level).Render(rows[i][3])
	}
	PrintTable(PlanHeaders, rows)
	fmt.Println()

	switch p.Destructiveness().Level {
	case planner.Unexecutable:
		PrintError("%d step(s) cannot be executed", len(p.Unexecutable()))
	case planner.Warning:
		PrintWarning("%d step(s) may lose data", len(p.Warnings()))
	default:
		PrintSuccess("%d step(s), all safe", len(p.Steps))
	}
}

// PlanMarkdown renders the plan as a markdown document grouped by phase.
func PlanMarkdown(p *planner.Plan) string {
	var b strings.Builder
	b.WriteString("# Migration plan\n\n")
	if planner.IsNoop(p) {
		b.WriteString("The database is already in sync with the schema.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**Destructiveness:** %s\n", p.Destructiveness().Level)
	for _, phase := range planner.Phases() {
		steps := p.InPhase(phase)
		if len(steps) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", phase)
		for _, s := range steps {
			fmt.Fprintf(&b, "- `%s` %s", s.Kind, s.Description())
			if s.Destructiveness.Level != planner.Safe {
				fmt.Fprintf(&b, " (**%s**: %s)", s.Destructiveness.Level, s.Destructiveness.Reason)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// PrintPlanMarkdown renders the plan's markdown for the terminal.
func PrintPlanMarkdown(p *planner.Plan) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return err
	}
	out, err := r.Render(PlanMarkdown(p))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

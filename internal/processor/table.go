package processor

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/qlty-go/qlty/internal/issue"
)

// levelColors maps each Level to the terminal color its rendered table row
// uses, matching qlty's CLI convention of coloring by severity rather than
// by tool.
var levelColors = map[issue.Level]*color.Color{
	issue.LevelHigh:   color.New(color.FgRed, color.Bold),
	issue.LevelMedium: color.New(color.FgYellow),
	issue.LevelLow:    color.New(color.FgCyan),
	issue.LevelFmt:    color.New(color.FgWhite),
}

// RenderTable renders a Report as a terminal table, one row per issue, with
// the severity column colored by level and a footer summarizing the total.
func RenderTable(r Report) string {
	if len(r.Issues) == 0 {
		return "No issues found."
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"Level", "Tool", "Rule", "Location", "Message"})

	for _, i := range r.Issues {
		if i.Ignored || i.Muted {
			continue
		}

		level := levelColors[i.Level].Sprint(i.Level.String())
		location := fmt.Sprintf("%s:%d:%d", i.Path, i.Range.StartLine, i.Range.StartColumn)

		tbl.AppendRow(table.Row{level, i.Tool, i.RuleKey, location, i.Message})
	}

	tbl.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d issues", r.Stats.Total)})

	return tbl.Render()
}

// RenderSummary renders the per-level issue counts as a compact table,
// used as the final line of `qlty check` output.
func RenderSummary(r Report) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	for _, level := range []issue.Level{issue.LevelHigh, issue.LevelMedium, issue.LevelLow, issue.LevelFmt} {
		count := r.Stats.ByLevel[level]
		if count == 0 {
			continue
		}

		tbl.AppendRow(table.Row{levelColors[level].Sprint(level.String()), count})
	}

	return tbl.Render()
}

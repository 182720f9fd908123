package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/boillodmanuel/markdown-link-check/result"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	linkStyle        = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// categoryOrder is the display order of error categories, most actionable first.
var categoryOrder = []result.ErrorCategory{
	result.CategoryNotFound,
	result.Category4xx,
	result.Category5xx,
	result.CategoryTimeout,
	result.CategoryDNSFailure,
	result.CategoryConnectionRefused,
	result.CategoryRedirectLoop,
	result.CategoryInvalidAddress,
	result.CategoryUnsupported,
	result.CategoryUnknown,
}

type failure struct {
	input string
	link  result.LinkResult
}

// RenderSummary produces a Lip Gloss styled summary of a run: the dead and
// error links grouped by category, then the totals.
func RenderSummary(res *result.Result) string {
	if res == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	if res.Stats.Failures() == 0 {
		builder.WriteString(successStyle.Render("No dead links found!"))
		builder.WriteString("\n")
		builder.WriteString(dimStyle.Render(fmt.Sprintf(
			"Checked %d links in %d inputs (%d alive, %d ignored)",
			res.Stats.LinksCount, len(res.Inputs),
			res.Stats.AliveLinksCount, res.Stats.IgnoredLinksCount,
		)))
		builder.WriteString("\n")
		return builder.String()
	}

	grouped := make(map[result.ErrorCategory][]failure)
	for _, in := range res.Inputs {
		for _, link := range in.Results {
			if !link.IsFailure() {
				continue
			}
			cat := link.ErrorCategory
			if cat == "" {
				cat = result.CategoryUnknown
			}
			grouped[cat] = append(grouped[cat], failure{input: in.FilenameOrURL, link: link})
		}
	}

	for _, cat := range categoryOrder {
		failures := grouped[cat]
		if len(failures) == 0 {
			continue
		}

		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", result.FormatCategory(cat), len(failures))))
		builder.WriteString("\n")

		rows := make([][]string, 0, len(failures))
		for _, f := range failures {
			status := strconv.Itoa(f.link.StatusCode)
			if f.link.Err != "" {
				status = f.link.Err
			}
			rows = append(rows, []string{f.link.Link, status, location(f.input, f.link.Line)})
		}

		catTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("Link", "Status", "Found In").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return statusErrorStyle
				}
				return linkStyle
			}).
			Rows(rows...)

		builder.WriteString(catTable.Render())
		builder.WriteString("\n\n")
	}

	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Found %d dead and %d error links out of %d links checked",
		res.Stats.DeadLinksCount,
		res.Stats.ErrorLinksCount,
		res.Stats.LinksCount,
	)))
	builder.WriteString("\n")

	return builder.String()
}

func location(input string, line int) string {
	if line <= 0 {
		return input
	}
	return input + ":" + strconv.Itoa(line)
}

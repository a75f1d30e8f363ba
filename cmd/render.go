package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"secretsanta/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D7263D"))
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#1B998B"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E933C"))
	issueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F46036"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func renderDraw(d models.Draw) string {
	width := 0
	for _, p := range d {
		width = max(width, lipgloss.Width(p.From))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Secret Santa draw (%d participants)", len(d))))
	b.WriteString("\n")
	for _, p := range d {
		pad := strings.Repeat(" ", width-lipgloss.Width(p.From))
		fmt.Fprintf(&b, "  %s%s  →  %s\n", nameStyle.Render(p.From), pad, nameStyle.Render(p.To))
	}
	return b.String()
}

func renderReport(r models.Report) string {
	var b strings.Builder
	if r.Valid {
		b.WriteString(okStyle.Render("✓ draw is valid"))
	} else {
		b.WriteString(issueStyle.Render(fmt.Sprintf("✗ draw is invalid (%d issue(s))", len(r.Issues))))
	}
	b.WriteString("\n")
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "  %s %s\n", issueStyle.Render("•"), issue)
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  participants: %d, unique givers: %d, unique receivers: %d",
		r.Stats.TotalParticipants, r.Stats.UniqueGivers, r.Stats.UniqueReceivers)))
	b.WriteString("\n")
	return b.String()
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"igaudit/pkg/ui"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(strings.Trim(ui.Banner, "\n")))
	sections = append(sections, m.renderProgress())

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderQueuePanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderVerdictsPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderProgress() string {
	m.progress.Width = m.width - 30
	if m.progress.Width < 10 {
		m.progress.Width = 10
	}

	status := successStyle.Render("done")
	if remaining := m.Total() - m.Completed(); remaining > 0 {
		status = fmt.Sprintf("%s checking, %d left", m.spinner.View(), remaining)
	}
	return fmt.Sprintf(" %s  %s", m.progress.ViewAs(m.Fraction()), status)
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" BATCH ")
	s := m.Summary()

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), value)
	}
	stats := []string{
		row("Elapsed:", statsValueStyle.Render(formatDuration(time.Since(m.sessionStartTime)))),
		row("Checked:", statsValueStyle.Render(fmt.Sprintf("%d/%d", m.Completed(), m.Total()))),
		row("Workers:", statsValueStyle.Render(fmt.Sprintf("%d", m.concurrency))),
		row("Fake:", errorStyle.Render(fmt.Sprintf("%d", s.Fake))),
		row("Suspicious:", warningStyle.Render(fmt.Sprintf("%d", s.Suspicious))),
		row("Real:", successStyle.Render(fmt.Sprintf("%d", s.Real))),
	}
	if s.NotFound > 0 {
		stats = append(stats, row("Not found:", warningStyle.Render(fmt.Sprintf("%d", s.NotFound))))
	}
	if s.Failed > 0 {
		stats = append(stats, row("Failed:", errorStyle.Render(fmt.Sprintf("%d", s.Failed))))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(stats, "\n")),
	)
}

func (m *Model) renderQueuePanel(width int) string {
	title := titleStyle.Render(" QUEUE ")
	pending := m.Pending()

	if len(pending) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("Queue empty")),
		)
	}

	items := []string{warningStyle.Render(fmt.Sprintf("⏳ %d pending", len(pending)))}
	for i := 0; i < 5 && i < len(pending); i++ {
		items = append(items, queueItemStyle.Render("• @"+pending[i].Username))
	}
	if len(pending) > 5 {
		items = append(items, dimStyle.Render(fmt.Sprintf("  ... and %d more", len(pending)-5)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

func (m *Model) renderVerdictsPanel(width int) string {
	title := titleStyle.Render(" VERDICTS ")
	recent := m.Recent(8)

	if len(recent) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("No verdicts yet...")),
		)
	}

	lines := make([]string, 0, len(recent))
	for _, item := range recent {
		var verdict string
		switch item.State {
		case CheckDone:
			verdict = LabelStyle(item.Label).Render(strings.ToUpper(string(item.Label)))
		case CheckNotFound:
			verdict = warningStyle.Render("NOT FOUND")
		default:
			verdict = errorStyle.Render("FAILED")
		}
		line := fmt.Sprintf("@%s  %s", item.Username, verdict)
		if item.Explanation != "" {
			line += "\n  " + dimStyle.Render(truncate(item.Explanation, width-6))
		}
		lines = append(lines, line)
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOGS ")
	messages := m.LogMessages()

	start := len(messages) - 8
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range messages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := dimStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = dimStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/ctrl+c - Stop checking and print the results so far
    ctrl+l   - Clear logs
    ?        - Toggle this help

  Verdicts:
    ` + errorStyle.Render("FAKE") + `        - Matched a fake rule
    ` + warningStyle.Render("SUSPICIOUS") + `  - Matched a suspicious rule
    ` + successStyle.Render("REAL") + `        - No rule matched
`

	return panelStyle.Width(m.width).Render(help)
}

// truncate shortens s to max runes, marking the cut
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

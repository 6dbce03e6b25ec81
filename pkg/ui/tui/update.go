package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igaudit/internal/batch"
)

// CheckResultMsg carries a finished check from the worker pool
type CheckResultMsg struct {
	Result batch.Result
}

// LogMsg adds a line to the log panel
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg refreshes the elapsed time
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case CheckResultMsg:
		m.Observe(msg.Result)
		m.logResult(msg.Result)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func (m *Model) logResult(r batch.Result) {
	switch item := m.itemFor(r); {
	case item == nil:
	case item.State == CheckDone && r.Error != nil:
		m.AddLogMessage("WARN", fmt.Sprintf("@%s %s, report not saved: %v", item.Username, item.Label, r.Error))
	case item.State == CheckDone:
		m.AddLogMessage("SUCCESS", fmt.Sprintf("@%s %s in %s", item.Username, item.Label, r.Duration.Round(time.Millisecond)))
	case item.State == CheckNotFound:
		m.AddLogMessage("WARN", fmt.Sprintf("@%s not found", item.Username))
	default:
		m.AddLogMessage("ERROR", fmt.Sprintf("@%s check failed: %v", item.Username, r.Error))
	}
}

func (m *Model) itemFor(r batch.Result) *CheckItem {
	if r.Job.Index < 0 || r.Job.Index >= len(m.items) {
		return nil
	}
	return m.items[r.Job.Index]
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.clearLogs()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

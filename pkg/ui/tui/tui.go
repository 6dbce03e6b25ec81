package tui

import (
	"encoding/json"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"igaudit/internal/batch"
)

// TUI is the full-screen progress view for a batch check
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a TUI for checking usernames with concurrency workers
func NewTUI(usernames []string, concurrency int) *TUI {
	model := NewModel(usernames, concurrency)
	program := tea.NewProgram(model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   model,
	}
}

// Start runs the TUI until Stop is called or the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Observe forwards a pool result; it has the shape batch.CheckAllFunc expects
func (t *TUI) Observe(r batch.Result) {
	t.Send(CheckResultMsg{Result: r})
}

// LogWriter returns a writer for zerolog JSON output that lands in the log
// panel. It never blocks, so it is safe before Start and after Stop.
func (t *TUI) LogWriter() io.Writer {
	return logWriter{model: t.model}
}

type logWriter struct {
	model *Model
}

func (w logWriter) Write(p []byte) (int, error) {
	var entry struct {
		Level   string `json:"level"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(p, &entry); err != nil || entry.Message == "" {
		if line := strings.TrimSpace(string(p)); line != "" {
			w.model.AddLogMessage("INFO", line)
		}
		return len(p), nil
	}

	msg := entry.Message
	if entry.Error != "" {
		msg += ": " + entry.Error
	}
	w.model.AddLogMessage(strings.ToUpper(entry.Level), msg)
	return len(p), nil
}

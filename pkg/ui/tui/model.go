package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"igaudit/internal/batch"
	"igaudit/pkg/classifier"
	"igaudit/pkg/errors"
)

// CheckState is where an account is in the batch
type CheckState int

const (
	CheckPending CheckState = iota
	CheckDone
	CheckNotFound
	CheckFailed
)

// CheckItem is one account of the batch
type CheckItem struct {
	Username    string
	State       CheckState
	Label       classifier.Label
	Explanation string
	Error       error
	Duration    time.Duration
	FinishedAt  time.Time
}

// LogMessage is a line in the log panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model is the batch progress view. Items are indexed like the input
// usernames, so duplicates keep separate rows.
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	items       []*CheckItem
	finished    []int
	results     []batch.Result
	concurrency int

	sessionStartTime time.Time

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	// guards logMessages, which LogWriter appends to from other goroutines
	mu sync.RWMutex
}

// NewModel creates a model for checking usernames with concurrency workers
func NewModel(usernames []string, concurrency int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	items := make([]*CheckItem, len(usernames))
	for i, u := range usernames {
		items[i] = &CheckItem{Username: u}
	}

	return &Model{
		spinner:          s,
		progress:         progress.New(progress.WithDefaultGradient()),
		items:            items,
		concurrency:      concurrency,
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init starts the spinner and the refresh tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Observe records a finished check. Results for unknown indexes are ignored.
func (m *Model) Observe(r batch.Result) {
	i := r.Job.Index
	if i < 0 || i >= len(m.items) {
		return
	}
	item := m.items[i]
	if item.State != CheckPending {
		return
	}

	item.Duration = r.Duration
	item.FinishedAt = time.Now()
	item.Error = r.Error
	switch {
	case r.Report != nil:
		item.State = CheckDone
		item.Label = r.Report.Label
		item.Explanation = r.Report.Explanation
	case errors.IsNotFound(r.Error):
		item.State = CheckNotFound
	default:
		item.State = CheckFailed
	}

	m.finished = append(m.finished, i)
	m.results = append(m.results, r)
}

// Summary tallies the checks finished so far
func (m *Model) Summary() batch.Summary {
	return batch.Summarize(m.results)
}

// Completed reports how many checks have finished
func (m *Model) Completed() int {
	return len(m.finished)
}

// Total reports the batch size
func (m *Model) Total() int {
	return len(m.items)
}

// Fraction is the finished share of the batch, 1 for an empty batch
func (m *Model) Fraction() float64 {
	if len(m.items) == 0 {
		return 1
	}
	return float64(len(m.finished)) / float64(len(m.items))
}

// Pending returns the accounts not yet finished, in input order
func (m *Model) Pending() []*CheckItem {
	var pending []*CheckItem
	for _, item := range m.items {
		if item.State == CheckPending {
			pending = append(pending, item)
		}
	}
	return pending
}

// Recent returns up to n finished accounts, newest last
func (m *Model) Recent(n int) []*CheckItem {
	start := len(m.finished) - n
	if start < 0 {
		start = 0
	}
	recent := make([]*CheckItem, 0, len(m.finished)-start)
	for _, i := range m.finished[start:] {
		recent = append(recent, m.items[i])
	}
	return recent
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   logColor(level),
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// LogMessages returns a copy of the log panel contents
func (m *Model) LogMessages() []LogMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]LogMessage, len(m.logMessages))
	copy(out, m.logMessages)
	return out
}

func (m *Model) clearLogs() {
	m.mu.Lock()
	m.logMessages = nil
	m.mu.Unlock()
}

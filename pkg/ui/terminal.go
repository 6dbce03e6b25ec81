package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"igaudit/internal/batch"
	"igaudit/pkg/classifier"
	"igaudit/pkg/detector"
	"igaudit/pkg/errors"
	"igaudit/pkg/instagram"
)

// Banner heads the full-screen progress view
const Banner = `
  ╔═════════════════════════════════════════╗
  ║  igaudit :: instagram account auditor   ║
  ╚═════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

func plain(text string) string { return text }

// Printer writes human readable output, colored when w is a terminal
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a printer for w. Color is used only when w is a
// terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{w: w, color: color}
}

// NewPlainPrinter creates a printer that never emits escape codes
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) paint(fn func(string) string) func(string) string {
	if p.color {
		return fn
	}
	return plain
}

// Error prints an error message in red
func (p *Printer) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg += ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(p.w, p.paint(Red)(msg))
}

// Success prints a success message in green
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, p.paint(Green)(msg))
}

// Info prints a label and value
func (p *Printer) Info(label string, value string) {
	fmt.Fprintf(p.w, "%s: %s\n", p.paint(Cyan)(label), p.paint(Yellow)(value))
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg += ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(p.w, p.paint(Yellow)(msg))
}

// labelColor maps a verdict to its color: fake red, suspicious yellow, real green
func (p *Printer) labelColor(label classifier.Label) func(string) string {
	switch label {
	case classifier.LabelFake:
		return p.paint(Red)
	case classifier.LabelSuspicious:
		return p.paint(Yellow)
	default:
		return p.paint(Green)
	}
}

// Report prints one verdict. Verbose adds the record and every signal.
func (p *Printer) Report(r *detector.Report, verbose bool) {
	verdict := p.labelColor(r.Label)(strings.ToUpper(string(r.Label)))
	fmt.Fprintf(p.w, "@%s  %s\n", p.paint(Magenta)(r.Username), verdict)
	fmt.Fprintf(p.w, "  %s\n", r.Explanation)

	if !verbose {
		return
	}

	rec := r.Record
	dim := p.paint(Dim)
	fmt.Fprintf(p.w, "  %s %d  %s %d  %s %d  %s %.2f%%\n",
		dim("followers"), rec.FollowerCount,
		dim("following"), rec.FollowingCount,
		dim("posts"), rec.PostCount,
		dim("engagement"), rec.EngagementRate*100)
	if rec.Bio != "" {
		fmt.Fprintf(p.w, "  %s %q\n", dim("bio"), rec.Bio)
	}
	for _, s := range r.Signals {
		fmt.Fprintf(p.w, "  %s %s\n", dim("-"), s)
	}
	fmt.Fprintf(p.w, "  %s %s\n", dim("profile"), instagram.GetUserProfileURL(r.Username))
	fmt.Fprintf(p.w, "  %s %s, %s\n", dim("source"), r.Source, r.CheckedAt.Format("2006-01-02 15:04:05 MST"))
}

// Result prints a batch result: the report, or why there is none
func (p *Printer) Result(r batch.Result, verbose bool) {
	if r.Report != nil {
		p.Report(r.Report, verbose)
		if r.Error != nil {
			p.Warning("  report not saved", r.Error)
		}
		return
	}

	switch {
	case errors.IsNotFound(r.Error):
		p.Warning(fmt.Sprintf("@%s  not found", r.Job.Username))
	default:
		p.Error(fmt.Sprintf("@%s  check failed", r.Job.Username), r.Error)
	}
}

// Summary prints batch totals
func (p *Printer) Summary(s batch.Summary) {
	fmt.Fprintf(p.w, "\n%s %d checked: %s, %s, %s",
		p.paint(Cyan)("summary"), s.Total,
		p.paint(Red)(fmt.Sprintf("%d fake", s.Fake)),
		p.paint(Yellow)(fmt.Sprintf("%d suspicious", s.Suspicious)),
		p.paint(Green)(fmt.Sprintf("%d real", s.Real)))
	if s.NotFound > 0 {
		fmt.Fprintf(p.w, ", %d not found", s.NotFound)
	}
	if s.Failed > 0 {
		fmt.Fprintf(p.w, ", %d failed", s.Failed)
	}
	fmt.Fprintln(p.w)
}

// Package output renders the shop report for a terminal.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")
)

const (
	bannerWidth  = 60
	sectionWidth = 40
)

// Printer writes styled lines to w. Colors are dropped when w is not a
// terminal.
type Printer struct {
	w io.Writer

	success lipgloss.Style
	warning lipgloss.Style
	errs    lipgloss.Style
	muted   lipgloss.Style
	primary lipgloss.Style
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		warning: r.NewStyle().Foreground(colorWarning).Bold(true),
		errs:    r.NewStyle().Foreground(colorError).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		primary: r.NewStyle().Foreground(colorPrimary).Bold(true),
	}
}

// Banner prints a title between two full-width rules.
func (p *Printer) Banner(title string) {
	rule := p.muted.Render(strings.Repeat("=", bannerWidth))
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, rule)
	fmt.Fprintln(p.w, p.primary.Render(title))
	fmt.Fprintln(p.w, rule)
}

// Section prints a step heading underlined by a short rule.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.primary.Render(title))
	fmt.Fprintln(p.w, p.muted.Render(strings.Repeat("-", sectionWidth)))
}

// Item prints an indented result line.
func (p *Printer) Item(format string, args ...any) {
	fmt.Fprintf(p.w, "   "+format+"\n", args...)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprint(p.w, p.success.Render("✓ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprint(p.w, p.warning.Render("⚠ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprint(p.w, p.errs.Render("✗ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

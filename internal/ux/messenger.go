package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Messenger prints short status notices. It is the single place that
// decides how info, success, warning and error lines look.
type Messenger struct {
	w      io.Writer
	styles messageStyles
}

type messageStyles struct {
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewMessenger writes notices to w. With noColor the text is unstyled.
func NewMessenger(w io.Writer, noColor bool) *Messenger {
	if w == nil {
		w = os.Stderr
	}
	styles := messageStyles{
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#909399")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#67C23A")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#E6A23C")).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F56C6C")).Bold(true),
	}
	if noColor {
		plain := lipgloss.NewStyle()
		styles = messageStyles{Info: plain, Success: plain, Warning: plain, Error: plain}
	}
	return &Messenger{w: w, styles: styles}
}

// Info prints a neutral notice
func (m *Messenger) Info(format string, args ...any) {
	m.print(m.styles.Info, "ℹ", format, args...)
}

// Success prints a confirmation
func (m *Messenger) Success(format string, args ...any) {
	m.print(m.styles.Success, "✓", format, args...)
}

// Warning prints a warning
func (m *Messenger) Warning(format string, args ...any) {
	m.print(m.styles.Warning, "⚠", format, args...)
}

// Error prints an error notice
func (m *Messenger) Error(format string, args ...any) {
	m.print(m.styles.Error, "✗", format, args...)
}

func (m *Messenger) print(style lipgloss.Style, icon, format string, args ...any) {
	_, _ = fmt.Fprintln(m.w, style.Render(icon+" "+fmt.Sprintf(format, args...)))
}

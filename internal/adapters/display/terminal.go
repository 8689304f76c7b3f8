// Package display renders the Sink's status lines.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/bft-labs/timelink/internal/ports"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// Terminal draws the lines as a bordered panel.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	clear bool

	frame lipgloss.Style
	first lipgloss.Style
	rest  lipgloss.Style
}

// NewTerminal creates a Terminal writing to w. When clear is set each page
// replaces the previous one.
func NewTerminal(w io.Writer, clear bool) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:     w,
		clear: clear,
		frame: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1).
			Width(22),
		first: r.NewStyle().Faint(true),
		rest:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
	}
}

// Render draws one page. The first line is shown dimmed.
func (t *Terminal) Render(lines []string) error {
	styled := make([]string, len(lines))
	for i, line := range lines {
		if i == 0 {
			styled[i] = t.first.Render(line)
		} else {
			styled[i] = t.rest.Render(line)
		}
	}

	var b strings.Builder
	if t.clear {
		b.WriteString(clearScreen)
	}
	b.WriteString(t.frame.Render(strings.Join(styled, "\n")))
	b.WriteString("\n")

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var _ ports.Display = (*Terminal)(nil)

package status

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Render produces the full dashboard frame from a consistent snapshot of
// the reporter state.
func (r *Reporter) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder

	finished := r.succeeded + r.failed
	header := fmt.Sprintf("processing %d/%d", finished, r.total)
	if r.failed > 0 {
		header += fmt.Sprintf("  failed %d", r.failed)
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if r.total > 0 {
		bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(minInt(40, r.width-10)))
		b.WriteString(bar.ViewAs(float64(finished) / float64(r.total)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	for _, name := range names {
		row := r.rows[name]
		if row == nil {
			continue
		}
		line := fmt.Sprintf("[%d/%d] %s  %s  %s",
			row.stepIndex+1, row.stepTotal, row.name, row.step, elapsed(row.startedAt))
		if row.last != "" {
			line += "  | " + row.last
		}
		b.WriteString(truncateToWidth(line, r.width))
		b.WriteString("\n")
	}

	if len(r.events) > 0 {
		b.WriteString("\n")
		for _, e := range r.events {
			b.WriteString(dimStyle.Render(truncateToWidth(e, r.width)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// truncateToWidth cuts a line to the terminal width; the view truncates on
// overflow, never wraps.
func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func elapsed(since time.Time) string {
	d := time.Since(since).Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

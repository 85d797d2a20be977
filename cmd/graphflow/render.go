package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyder110/GraphFlow/internal/catalog"
	"github.com/hyder110/GraphFlow/internal/core/run"
)

// styles colour the parts of the output that carry status. Colours are
// dropped automatically when the writer is not a terminal.
type styles struct {
	beginner     lipgloss.Style
	intermediate lipgloss.Style
	advanced     lipgloss.Style
	success      lipgloss.Style
	failure      lipgloss.Style
	muted        lipgloss.Style
	heading      lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		beginner:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		intermediate: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		advanced:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		success:      r.NewStyle().Foreground(lipgloss.Color("2")),
		failure:      r.NewStyle().Foreground(lipgloss.Color("1")),
		muted:        r.NewStyle().Faint(true),
		heading:      r.NewStyle().Bold(true),
	}
}

// difficulty renders a difficulty badge.
func (s styles) difficulty(level string) string {
	switch level {
	case catalog.Beginner:
		return s.beginner.Render(level)
	case catalog.Intermediate:
		return s.intermediate.Render(level)
	case catalog.Advanced:
		return s.advanced.Render(level)
	default:
		return level
	}
}

func (s styles) status(st run.Status) string {
	if st == run.StatusSuccess {
		return s.success.Render(string(st))
	}
	return s.failure.Render(string(st))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatValue prints strings bare and everything else as compact JSON.
func formatValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

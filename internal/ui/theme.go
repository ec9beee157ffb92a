package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/kvlist/internal/config"
)

// Theme holds the styles the list and tree views draw with.
type Theme struct {
	Title    lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Active   lipgloss.Style
	Border   lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style

	NoColor bool
}

// NewTheme builds styles from a palette. With noColor every style renders
// plain text, which keeps snapshots free of escape sequences.
func NewTheme(p config.Palette, noColor bool) Theme {
	if noColor {
		plain := lipgloss.NewStyle()
		return Theme{
			Title: plain, Text: plain, Muted: plain, Cursor: plain, Selected: plain,
			Active: plain, Border: plain, Status: plain, Error: plain,
			NoColor: true,
		}
	}
	c := func(s string) color.Color {
		if s == "" {
			return nil
		}
		return lipgloss.Color(s)
	}
	fg := func(s string) lipgloss.Style {
		st := lipgloss.NewStyle()
		if col := c(s); col != nil {
			st = st.Foreground(col)
		}
		return st
	}
	pair := func(f, b string) lipgloss.Style {
		st := fg(f)
		if col := c(b); col != nil {
			st = st.Background(col)
		}
		return st
	}
	return Theme{
		Title:    fg(p.Accent).Bold(true),
		Text:     fg(p.Text),
		Muted:    fg(p.Muted),
		Cursor:   pair(p.SelectedFG, p.SelectedBG).Bold(true),
		Selected: fg(p.Accent).Bold(true),
		Active:   pair(p.ActiveFG, p.ActiveBG),
		Border:   fg(p.Border),
		Status:   fg(p.Status),
		Error:    fg(p.Error).Bold(true),
	}
}

// DefaultTheme uses the embedded default palette, falling back to an
// uncolored theme if the embedded config is unreadable.
func DefaultTheme(noColor bool) Theme {
	cfg, err := config.Default()
	if err != nil {
		return NewTheme(config.Palette{}, true)
	}
	p, ok := cfg.Palette()
	if !ok {
		return NewTheme(config.Palette{}, true)
	}
	return NewTheme(p, noColor)
}

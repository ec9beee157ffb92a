package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
)

var namedKeys = map[string]rune{
	"up":     tea.KeyUp,
	"down":   tea.KeyDown,
	"left":   tea.KeyLeft,
	"right":  tea.KeyRight,
	"home":   tea.KeyHome,
	"end":    tea.KeyEnd,
	"pgup":   tea.KeyPgUp,
	"pgdown": tea.KeyPgDown,
	"enter":  tea.KeyEnter,
	"space":  tea.KeySpace,
	"esc":    tea.KeyEscape,
	"tab":    tea.KeyTab,
}

// ParseKey turns a key name ("down", "<enter>") or a single character into a
// key press.
func ParseKey(name string) (tea.KeyPressMsg, error) {
	token := strings.ToLower(strings.Trim(strings.TrimSpace(name), "<>"))
	if code, ok := namedKeys[token]; ok {
		msg := tea.KeyPressMsg{Code: code}
		if code == tea.KeySpace {
			msg.Text = " "
		}
		return msg, nil
	}
	raw := strings.TrimSpace(name)
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		return tea.KeyPressMsg{Code: r, Text: raw}, nil
	}
	return tea.KeyPressMsg{}, fmt.Errorf("unknown key %q", name)
}

// ApplyKeys feeds key presses to m before it is shown or snapshotted. Commands
// the model returns are dropped; Snapshot finishes any layout they would
// have resumed.
func ApplyKeys(m Model, keys []string) error {
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		msg, err := ParseKey(k)
		if err != nil {
			return err
		}
		m.Update(msg)
	}
	return nil
}

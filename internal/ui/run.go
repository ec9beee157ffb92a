package ui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

// Model is implemented by ListModel and TreeModel.
type Model interface {
	tea.Model
	// Content renders the current frame without touching the terminal.
	Content() string
	// Snapshot completes pending layout work and returns the frame.
	Snapshot() (string, error)
	// Chosen returns the items picked before the program quit.
	Chosen() []datasource.Item
	Close()
}

var (
	_ Model = (*ListModel)(nil)
	_ Model = (*TreeModel)(nil)
)

// Run starts a Bubble Tea program for m and returns the chosen items once
// it exits. m is closed on return.
func Run(m Model, opts ...tea.ProgramOption) ([]datasource.Item, error) {
	defer m.Close()
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("run program: %w", err)
	}
	if fm, ok := final.(Model); ok && fm != nil {
		return fm.Chosen(), nil
	}
	return m.Chosen(), nil
}

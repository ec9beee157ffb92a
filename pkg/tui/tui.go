// Package tui runs the kvlist list and tree views for host applications.
package tui

import (
	"io"
	"os"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/kvlist/internal/ui"
	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/settings"
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// DetectTerminalSize returns the best-effort terminal width and height by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS environment variable.
// If detection fails completely, returns generous defaults (120, 24) so
// snapshots in CI stay readable.
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 24
}

// NewModel builds the view cfg.Mode selects over src, with StartKeys applied.
func NewModel(src datasource.Source, cfg Config) (ui.Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	theme := ui.NewTheme(cfg.Palette, cfg.NoColor)
	log := cfg.Logger
	if log.GetSink() == nil {
		log = cfg.List.Logger
	}

	var m ui.Model
	if cfg.Mode == settings.ModeTree {
		tc := cfg.Tree
		if log.GetSink() != nil {
			tc.Logger = log.WithName("tree")
		}
		tm, err := ui.NewTreeModel(ui.TreeOptions{
			Source: src,
			Tree:   tc,
			Theme:  theme,
			Title:  cfg.Title,
			Width:  cfg.Width,
			Height: cfg.Height,
		})
		if err != nil {
			return nil, err
		}
		m = tm
	} else {
		lm, err := ui.NewListModel(ui.ListOptions{
			Source:     src,
			Engine:     cfg.List,
			TitleField: cfg.TitleField,
			BodyField:  cfg.BodyField,
			TileWidth:  cfg.TileWidth,
			Theme:      theme,
			Title:      cfg.Title,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		m = lm
	}

	m.Init()
	if err := ui.ApplyKeys(m, cfg.StartKeys); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// Run starts the interactive view and returns the items the user chose.
// Host applications can pass optional tea.ProgramOption values to control IO.
func Run(src datasource.Source, cfg Config, opts ...tea.ProgramOption) ([]datasource.Item, error) {
	m, err := NewModel(src, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		opts = append(opts, tea.WithWindowSize(cfg.Width, cfg.Height))
	}
	return ui.Run(m, opts...)
}

// RenderSnapshot lays out the view without a terminal and returns the frame.
// Variable-size passes are completed before rendering.
func RenderSnapshot(src datasource.Source, cfg Config) (string, error) {
	m, err := NewModel(src, cfg)
	if err != nil {
		return "", err
	}
	defer m.Close()
	return m.Snapshot()
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}

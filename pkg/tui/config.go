package tui

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvlist/internal/config"
	"github.com/oakwood-commons/kvlist/pkg/list"
	"github.com/oakwood-commons/kvlist/pkg/settings"
	"github.com/oakwood-commons/kvlist/pkg/treelist"
)

// defaultTileWidth is the tile width used when a tiled list does not set one.
const defaultTileWidth = 24

// Palette is a named set of lipgloss color strings.
type Palette = config.Palette

// Config holds host-provided settings for running a list or tree view.
type Config struct {
	Mode    settings.Mode
	Title   string
	Width   int
	Height  int
	NoColor bool

	// List configures the engine in list mode. DataSource, CellFactory and
	// Logger are set by Run.
	List list.Config
	// Tree configures the navigator in tree mode.
	Tree treelist.Config

	TitleField string
	BodyField  string // markdown, shown in variable-size lists
	TileWidth  int

	Palette Palette
	// StartKeys are pressed before the view is shown, e.g. "down", "enter".
	StartKeys []string

	Logger logr.Logger
}

// DefaultConfig returns a baseline config with the same defaults as the CLI.
func DefaultConfig() Config {
	f, err := config.Default()
	if err != nil {
		return Config{
			Mode:       settings.ModeList,
			List:       list.DefaultConfig(),
			Tree:       treelist.DefaultConfig(),
			TitleField: "title",
			BodyField:  "body",
			TileWidth:  defaultTileWidth,
		}
	}
	cfg, err := FromFile(f)
	if err != nil {
		return Config{Mode: settings.ModeList, List: list.DefaultConfig(), Tree: treelist.DefaultConfig()}
	}
	return cfg
}

// FromFile converts a merged configuration file.
func FromFile(f config.File) (Config, error) {
	if err := f.Validate(); err != nil {
		return Config{}, err
	}
	lc, err := f.ListConfig()
	if err != nil {
		return Config{}, err
	}
	pal, _ := f.Palette()
	return Config{
		Mode:       settings.Mode(f.Mode),
		List:       lc,
		Tree:       f.TreeConfig(),
		TitleField: f.Data.TitleField,
		BodyField:  f.Data.BodyField,
		TileWidth:  defaultTileWidth,
		Palette:    pal,
	}, nil
}

func (c Config) validate() error {
	switch c.Mode {
	case settings.ModeList, settings.ModeTree, "":
		return nil
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
}

// Package config loads the kvlist configuration file. The embedded
// default_config.yaml is the single source of defaults; a user file in YAML or
// TOML is merged on top of it.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvlist/internal/limiter"
	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/list"
	"github.com/oakwood-commons/kvlist/pkg/loader"
	"github.com/oakwood-commons/kvlist/pkg/treelist"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     File
	embeddedConfigErr  error
)

// File is the on-disk configuration.
type File struct {
	Mode  string `yaml:"mode" toml:"mode"`
	List  List   `yaml:"list" toml:"list"`
	Tree  Tree   `yaml:"tree" toml:"tree"`
	Data  Data   `yaml:"data" toml:"data"`
	Theme Theme  `yaml:"theme" toml:"theme"`
}

// List configures the virtualized list engine. Durations use
// time.ParseDuration syntax.
type List struct {
	Fixed         bool   `yaml:"fixed" toml:"fixed"`
	Tiled         bool   `yaml:"tiled" toml:"tiled"`
	Recycle       bool   `yaml:"recycle" toml:"recycle"`
	RenderMargin  int    `yaml:"render_margin" toml:"render_margin"`
	Spacing       int    `yaml:"spacing" toml:"spacing"`
	SliceMinItems int    `yaml:"slice_min_items" toml:"slice_min_items"`
	SliceBudget   string `yaml:"slice_budget" toml:"slice_budget"`
	ResumeDelay   string `yaml:"resume_delay" toml:"resume_delay"`
	Selectable    string `yaml:"selectable" toml:"selectable"`
}

// Tree configures the drill-down navigator.
type Tree struct {
	ParentField string           `yaml:"parent_field" toml:"parent_field"`
	ColumnWidth int              `yaml:"column_width" toml:"column_width"`
	Classes     treelist.Classes `yaml:"classes" toml:"classes"`
}

// Data configures how records are loaded, shown, ordered and limited.
type Data struct {
	Key        string `yaml:"key" toml:"key"`
	TitleField string `yaml:"title_field" toml:"title_field"`
	// BodyField holds markdown shown under the title in variable-size lists.
	BodyField     string `yaml:"body_field" toml:"body_field"`
	Collection    string `yaml:"collection" toml:"collection"`
	ChildrenField string `yaml:"children_field" toml:"children_field"`
	// Sort is a CEL expression evaluated against each item (bound to `_`) to
	// produce its sort key. Empty sorts by Key.
	Sort   string `yaml:"sort" toml:"sort"`
	Limit  int    `yaml:"limit" toml:"limit"`
	Offset int    `yaml:"offset" toml:"offset"`
	Tail   int    `yaml:"tail" toml:"tail"`
}

// Theme selects a palette. Colors are lipgloss color strings: ANSI numbers
// ("81") or hex ("#5fd7ff").
type Theme struct {
	Preset  string             `yaml:"preset" toml:"preset"`
	Presets map[string]Palette `yaml:"presets" toml:"presets"`
}

// Palette is one named color set.
type Palette struct {
	Text       string `yaml:"text" toml:"text"`
	Muted      string `yaml:"muted" toml:"muted"`
	Accent     string `yaml:"accent" toml:"accent"`
	SelectedFG string `yaml:"selected_fg" toml:"selected_fg"`
	SelectedBG string `yaml:"selected_bg" toml:"selected_bg"`
	ActiveFG   string `yaml:"active_fg" toml:"active_fg"`
	ActiveBG   string `yaml:"active_bg" toml:"active_bg"`
	Border     string `yaml:"border" toml:"border"`
	Status     string `yaml:"status" toml:"status"`
	Error      string `yaml:"error" toml:"error"`
}

func (p Palette) withFallback(base Palette) Palette {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Palette{
		Text:       pick(p.Text, base.Text),
		Muted:      pick(p.Muted, base.Muted),
		Accent:     pick(p.Accent, base.Accent),
		SelectedFG: pick(p.SelectedFG, base.SelectedFG),
		SelectedBG: pick(p.SelectedBG, base.SelectedBG),
		ActiveFG:   pick(p.ActiveFG, base.ActiveFG),
		ActiveBG:   pick(p.ActiveBG, base.ActiveBG),
		Border:     pick(p.Border, base.Border),
		Status:     pick(p.Status, base.Status),
		Error:      pick(p.Error, base.Error),
	}
}

// DefaultConfigYAML returns a copy of the embedded default config.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default parses and returns the embedded defaults.
func Default() (File, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = errors.New("embedded default config is empty")
			return
		}
		if err := decodeYAML(embeddedDefaultConfig, &embeddedConfig); err != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", err)
		}
	})
	return embeddedConfig.clone(), embeddedConfigErr
}

func (f File) clone() File {
	out := f
	if f.Theme.Presets != nil {
		out.Theme.Presets = make(map[string]Palette, len(f.Theme.Presets))
		for k, v := range f.Theme.Presets {
			out.Theme.Presets[k] = v
		}
	}
	return out
}

// Load returns the defaults with the file at path merged on top. An empty
// path returns the defaults. Files ending in .toml are decoded as TOML,
// anything else as YAML. Unknown keys are rejected.
func Load(path string) (File, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Merge(cfg, data, formatOf(path))
}

// Merge decodes data in the given format ("yaml" or "toml") over base.
func Merge(base File, data []byte, format string) (File, error) {
	cfg := base.clone()
	// Preset maps are replaced element-wise by the decoders, so partial
	// palettes are completed from the base afterwards.
	basePresets := cfg.Theme.Presets
	cfg.Theme.Presets = nil

	var err error
	switch format {
	case "toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg)
	case "yaml", "":
		err = decodeYAML(data, &cfg)
	default:
		return base, fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return base, fmt.Errorf("decode config: %w", err)
	}

	merged := make(map[string]Palette, len(basePresets)+len(cfg.Theme.Presets))
	for k, v := range basePresets {
		merged[k] = v
	}
	for k, v := range cfg.Theme.Presets {
		fallback, ok := basePresets[k]
		if !ok {
			fallback = basePresets["dark"]
		}
		merged[k] = v.withFallback(fallback)
	}
	cfg.Theme.Presets = merged
	return cfg, nil
}

func decodeYAML(data []byte, out *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// Validate reports every invalid setting at once.
func (f File) Validate() error {
	var errs []error
	switch f.Mode {
	case "list", "tree":
	default:
		errs = append(errs, fmt.Errorf("mode must be list or tree, got %q", f.Mode))
	}
	if lc, err := f.ListConfig(); err != nil {
		errs = append(errs, err)
	} else if err := lc.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := f.TreeConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := f.Limiter().Validate(); err != nil {
		errs = append(errs, err)
	}
	if f.Data.Key == "" {
		errs = append(errs, errors.New("data.key is required"))
	}
	if _, ok := f.Palette(); !ok {
		errs = append(errs, fmt.Errorf("theme preset %q not found (have %s)",
			f.Theme.Preset, strings.Join(f.PresetNames(), ", ")))
	}
	return errors.Join(errs...)
}

// ListConfig converts the list section. DataSource, CellFactory, Sorter and
// Logger are left for the caller.
func (f File) ListConfig() (list.Config, error) {
	cfg := list.DefaultConfig()
	cfg.FixedSize = f.List.Fixed
	cfg.Tiled = f.List.Tiled
	cfg.Recycle = f.List.Recycle
	cfg.RenderMargin = f.List.RenderMargin
	cfg.Spacing = f.List.Spacing
	cfg.SliceMinItems = f.List.SliceMinItems

	var errs []error
	if f.List.SliceBudget != "" {
		d, err := time.ParseDuration(f.List.SliceBudget)
		if err != nil {
			errs = append(errs, fmt.Errorf("list.slice_budget: %w", err))
		}
		cfg.SliceBudget = d
	}
	if f.List.ResumeDelay != "" {
		d, err := time.ParseDuration(f.List.ResumeDelay)
		if err != nil {
			errs = append(errs, fmt.Errorf("list.resume_delay: %w", err))
		}
		cfg.ResumeDelay = d
	}
	mode, err := list.ParseSelectMode(f.List.Selectable)
	if err != nil {
		errs = append(errs, fmt.Errorf("list.selectable: %w", err))
	}
	cfg.Selectable = mode
	return cfg, errors.Join(errs...)
}

// TreeConfig converts the tree section. Key and title fields come from data.
func (f File) TreeConfig() treelist.Config {
	cfg := treelist.DefaultConfig()
	if f.Data.Key != "" {
		cfg.Key = f.Data.Key
	}
	if f.Tree.ParentField != "" {
		cfg.ParentField = f.Tree.ParentField
	}
	if f.Data.TitleField != "" {
		cfg.TitleField = f.Data.TitleField
	}
	cfg.ColumnWidth = f.Tree.ColumnWidth
	cfg.Classes = f.Tree.Classes
	return cfg
}

// Limiter converts the data limits.
func (f File) Limiter() limiter.Config {
	return limiter.Config{Limit: f.Data.Limit, Offset: f.Data.Offset, Tail: f.Data.Tail}
}

// LoaderOptions converts the data section for the record loader.
func (f File) LoaderOptions() loader.Options {
	return loader.Options{
		Key:           f.Data.Key,
		Collection:    f.Data.Collection,
		ChildrenField: f.Data.ChildrenField,
		ParentField:   f.Tree.ParentField,
	}
}

// Sorter compiles data.sort. It returns nil when no expression is set.
func (f File) Sorter() (datasource.Sorter, error) {
	if strings.TrimSpace(f.Data.Sort) == "" {
		return nil, nil
	}
	s, err := datasource.NewExprSorter(f.Data.Sort)
	if err != nil {
		return nil, fmt.Errorf("data.sort: %w", err)
	}
	return s, nil
}

// Palette returns the selected preset.
func (f File) Palette() (Palette, bool) {
	p, ok := f.Theme.Presets[f.Theme.Preset]
	return p, ok
}

// PresetNames lists the available presets in sorted order.
func (f File) PresetNames() []string {
	names := make([]string, 0, len(f.Theme.Presets))
	for k := range f.Theme.Presets {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Marshal encodes f as "yaml" or "toml".
func (f File) Marshal(format string) ([]byte, error) {
	switch format {
	case "yaml", "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "toml":
		return toml.Marshal(f)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

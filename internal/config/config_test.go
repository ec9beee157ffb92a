package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvlist/pkg/list"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "list", cfg.Mode)
	assert.Equal(t, "id", cfg.Data.Key)
	assert.Equal(t, []string{"dark", "light", "mono"}, cfg.PresetNames())

	lc, err := cfg.ListConfig()
	require.NoError(t, err)
	def := list.DefaultConfig()
	assert.Equal(t, def.FixedSize, lc.FixedSize)
	assert.Equal(t, def.Recycle, lc.Recycle)
	assert.Equal(t, def.SliceMinItems, lc.SliceMinItems)
	assert.Equal(t, def.SliceBudget, lc.SliceBudget)
	assert.Equal(t, def.ResumeDelay, lc.ResumeDelay)
	assert.Equal(t, list.SelectSingle, lc.Selectable)

	tc := cfg.TreeConfig()
	assert.Equal(t, 24, tc.ColumnWidth)
	assert.Equal(t, "browserNodeActive", tc.Classes.NodeActive)
}

func TestDefaultReturnsCopies(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	a.Theme.Presets["dark"] = Palette{}
	a.Mode = "tree"

	b, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "list", b.Mode)
	assert.NotEmpty(t, b.Theme.Presets["dark"].Accent)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	def, _ := Default()
	assert.Equal(t, def, cfg)
}

func TestLoadYAMLMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, "kvlist.yaml", `
mode: tree
list:
  fixed: false
  slice_budget: 20ms
tree:
  column_width: 30
data:
  key: name
  sort: "-_.size"
theme:
  preset: custom
  presets:
    custom:
      accent: "#ff8800"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "tree", cfg.Mode)
	assert.False(t, cfg.List.Fixed)
	assert.True(t, cfg.List.Recycle, "untouched keys keep their defaults")
	assert.Equal(t, "100ms", cfg.List.ResumeDelay)
	assert.Equal(t, 30, cfg.Tree.ColumnWidth)
	assert.Equal(t, "name", cfg.TreeConfig().Key)

	lc, err := cfg.ListConfig()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, lc.SliceBudget)

	p, ok := cfg.Palette()
	require.True(t, ok)
	assert.Equal(t, "#ff8800", p.Accent)
	assert.Equal(t, cfg.Theme.Presets["dark"].Text, p.Text, "new presets are completed from dark")

	sorter, err := cfg.Sorter()
	require.NoError(t, err)
	require.NotNil(t, sorter)
	assert.Negative(t, sorter(map[string]interface{}{"size": 5}, map[string]interface{}{"size": 1}))
}

func TestLoadYAMLPartialPreset(t *testing.T) {
	path := writeConfig(t, "kvlist.yml", `
theme:
  presets:
    light:
      accent: "200"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	def, _ := Default()

	light := cfg.Theme.Presets["light"]
	assert.Equal(t, "200", light.Accent)
	assert.Equal(t, def.Theme.Presets["light"].Text, light.Text)
	assert.Equal(t, def.Theme.Presets["dark"], cfg.Theme.Presets["dark"])
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "kvlist.toml", `
mode = "tree"

[list]
tiled = true
render_margin = 3

[data]
limit = 5

[tree.classes]
node_active = "open"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "tree", cfg.Mode)
	assert.True(t, cfg.List.Tiled)
	assert.True(t, cfg.List.Fixed)
	assert.Equal(t, 3, cfg.List.RenderMargin)
	assert.Equal(t, 5, cfg.Limiter().Limit)
	assert.Equal(t, "open", cfg.TreeConfig().Classes.NodeActive)
	assert.Equal(t, "browserNode", cfg.TreeConfig().Classes.Node)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "yaml", file: "c.yaml", body: "list:\n  bogus: 1\n"},
		{name: "toml", file: "c.toml", body: "[list]\nbogus = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "decode config")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeUnsupportedFormat(t *testing.T) {
	def, _ := Default()
	_, err := Merge(def, []byte("x"), "ini")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*File)
		want   string
	}{
		{name: "mode", mutate: func(f *File) { f.Mode = "grid" }, want: "mode must be list or tree"},
		{name: "budget", mutate: func(f *File) { f.List.SliceBudget = "soon" }, want: "list.slice_budget"},
		{name: "delay", mutate: func(f *File) { f.List.ResumeDelay = "-5ms" }, want: "resume delay must be non-negative"},
		{name: "min items", mutate: func(f *File) { f.List.SliceMinItems = 0 }, want: "slice min items"},
		{name: "selectable", mutate: func(f *File) { f.List.Selectable = "some" }, want: "list.selectable"},
		{name: "tiled variable", mutate: func(f *File) { f.List.Tiled = true; f.List.Fixed = false }, want: "tiled layout requires fixed-size cells"},
		{name: "column width", mutate: func(f *File) { f.Tree.ColumnWidth = 0 }, want: "column width must be positive"},
		{name: "parent is key", mutate: func(f *File) { f.Tree.ParentField = "id" }, want: "must differ from the key field"},
		{name: "limit and tail", mutate: func(f *File) { f.Data.Limit = 1; f.Data.Tail = 1 }, want: "mutually exclusive"},
		{name: "preset", mutate: func(f *File) { f.Theme.Preset = "neon" }, want: `theme preset "neon" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(&cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg, _ := Default()
	cfg.Mode = ""
	cfg.Tree.ColumnWidth = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode must be")
	assert.Contains(t, err.Error(), "column width")
}

func TestSorterEmptyAndInvalid(t *testing.T) {
	cfg, _ := Default()
	s, err := cfg.Sorter()
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.Data.Sort = "_.("
	_, err = cfg.Sorter()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.sort")
}

func TestLoaderOptions(t *testing.T) {
	cfg, _ := Default()
	cfg.Data.ChildrenField = "children"
	opts := cfg.LoaderOptions()
	assert.Equal(t, "id", opts.Key)
	assert.Equal(t, "children", opts.ChildrenField)
	assert.Equal(t, "parent", opts.ParentField)
}

func TestMarshalRoundTrip(t *testing.T) {
	def, _ := Default()
	for _, format := range []string{"yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			data, err := def.Marshal(format)
			require.NoError(t, err)
			got, err := Merge(File{}, data, format)
			require.NoError(t, err)
			assert.Equal(t, def, got)
		})
	}

	_, err := def.Marshal("xml")
	require.Error(t, err)
}

func TestDefaultConfigYAMLIsCopy(t *testing.T) {
	a := DefaultConfigYAML()
	require.NotEmpty(t, a)
	a[0] = 'X'
	assert.NotEqual(t, a[0], DefaultConfigYAML()[0])
}

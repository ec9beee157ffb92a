package cmd

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

const sampleYAML = `
- id: a
  title: Animals
  rank: 1
- id: b
  title: Birds
  parent: a
  rank: 3
  body: Feathered *friends*
- id: c
  title: Plants
  rank: 2
`

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringArray" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func resetRootCmdState(t *testing.T) {
	t.Helper()
	resetFlags(rootCmd)
	startKeys = nil
	rootCmd.SetArgs(nil)

	origPiped, origReader := stdinIsPiped, stdinReader
	stdinIsPiped = func() bool { return false }
	t.Cleanup(func() {
		stdinIsPiped, stdinReader = origPiped, origReader
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	// Isolate from the user's config.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetRootCmdState(t)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func snapshotLines(t *testing.T, args ...string) []string {
	t.Helper()
	out, err := runCLI(t, append([]string{"--snapshot", "--no-color", "--width", "30", "--height", "6"}, args...)...)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}

func TestCLI_NoInputShowsHelp(t *testing.T) {
	out, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "kvlist [file]")
	assert.Contains(t, out, "Examples:")
}

func TestCLI_SnapshotList(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	lines := snapshotLines(t, path)
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "items.yaml  1/3"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "> Animals"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "  Birds"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "  Plants"), lines[3])
}

func TestCLI_SnapshotNoColorHasNoANSI(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	out, err := runCLI(t, path, "--snapshot", "--no-color", "--width", "30", "--height", "6")
	require.NoError(t, err)
	assert.NotContains(t, out, "\x1b[")
}

func TestCLI_SortExpression(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	lines := snapshotLines(t, path, "--sort", "-_.rank")
	assert.True(t, strings.HasPrefix(lines[1], "> Birds"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "  Plants"), lines[2])

	_, err := runCLI(t, path, "--snapshot", "--sort", "_.(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.sort")
}

func TestCLI_VariableHeightBodies(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	lines := snapshotLines(t, path, "--variable", "--title", "Zoo")
	assert.True(t, strings.HasPrefix(lines[0], "Zoo  1/3"), lines[0])
	assert.Contains(t, strings.Join(lines, "\n"), "  Feathered friends")
}

func TestCLI_TiledSnapshot(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	lines := snapshotLines(t, path, "--tiled", "--width", "60", "--press", "right")
	assert.True(t, strings.HasPrefix(lines[0], "items.yaml  2/3"), lines[0])
	assert.Contains(t, lines[2], "Animals")
	assert.Contains(t, lines[2], "Birds")
}

func TestCLI_TreeMode(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	lines := snapshotLines(t, path, "--mode", "tree", "--column-width", "12", "--press", "right")
	assert.True(t, strings.HasPrefix(lines[0], "items.yaml › Animals"), lines[0])
	assert.Contains(t, lines[1], "> Birds")
}

func TestCLI_Outline(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	out, err := runCLI(t, path, "--outline")
	require.NoError(t, err)
	assert.Equal(t, "items.yaml\n├── Animals\n│   └── Birds\n└── Plants\n", out)
}

func TestCLI_UnknownStartKey(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	_, err := runCLI(t, path, "--snapshot", "--press", "warp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")
}

func TestCLI_Limiting(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	lines := snapshotLines(t, path, "--limit", "2")
	assert.True(t, strings.HasPrefix(lines[0], "items.yaml  1/2"), lines[0])

	lines = snapshotLines(t, path, "--tail", "1")
	assert.True(t, strings.HasPrefix(lines[1], "> Plants"), lines[1])

	lines = snapshotLines(t, path, "--offset", "1")
	assert.True(t, strings.HasPrefix(lines[1], "> Birds"), lines[1])

	_, err := runCLI(t, path, "--snapshot", "--limit", "1", "--tail", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestCLI_ReadsPipedStdin(t *testing.T) {
	resetRootCmdState(t)
	stdinIsPiped = func() bool { return true }
	stdinReader = func() io.Reader {
		return strings.NewReader("{\"id\":\"x\",\"title\":\"Xylophone\"}\n{\"id\":\"y\",\"title\":\"Yak\"}\n")
	}
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--snapshot", "--no-color", "--width", "30", "--height", "5"})
	require.NoError(t, Execute())
	lines := strings.Split(buf.String(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "kvlist  1/2"), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "  Yak"), lines[2])
}

func TestCLI_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`create table users (id text primary key, name text, age integer);
		insert into users values ('u1', 'Ada', 36), ('u2', 'Brian', 52), ('u3', 'Cleo', 28);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	lines := snapshotLines(t, "--sqlite", dbPath, "--query", "select id, name as title, age from users", "--sort", "_.age")
	assert.True(t, strings.HasPrefix(lines[0], "app.db  1/3"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "> Cleo"), lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "  Brian"), lines[3])
}

func TestCLI_InputConflicts(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "query without sqlite", args: []string{"--query", "select 1"}, want: "--query requires --sqlite"},
		{name: "sqlite without query", args: []string{"--sqlite", "x.db"}, want: "--sqlite requires --query"},
		{name: "sqlite and file", args: []string{path, "--sqlite", "x.db", "--query", "select 1"}, want: "cannot be combined"},
		{name: "bad mode", args: []string{path, "--mode", "grid"}, want: "invalid configuration"},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "nope.yaml")}, want: "nope.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, append(tt.args, "--snapshot")...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCLI_ConfigFileSetsMode(t *testing.T) {
	path := writeFile(t, "items.yaml", sampleYAML)
	cfgPath := writeFile(t, "kvlist.toml", "mode = \"tree\"\n[tree]\ncolumn_width = 12\n")
	lines := snapshotLines(t, path, "--config", cfgPath)
	assert.Contains(t, lines[1], "> Animals ›│")
}

func TestCLI_ConfigFromXDG(t *testing.T) {
	resetRootCmdState(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "kvlist"), 0o755))
	want := filepath.Join(xdg, "kvlist", "config.yaml")
	require.NoError(t, os.WriteFile(want, []byte("mode: tree\n"), 0o600))

	assert.Equal(t, want, resolveConfigPath(""))
	assert.Equal(t, "/explicit.yaml", resolveConfigPath("/explicit.yaml"))
}

func TestConfigSubcommands(t *testing.T) {
	out, err := runCLI(t, "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "mode: list")
	assert.Contains(t, out, "slice_budget: 50ms")

	out, err = runCLI(t, "config", "get", "-o", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "[list]")

	_, err = runCLI(t, "config", "get", "-o", "xml")
	require.Error(t, err)

	out, err = runCLI(t, "config", "default")
	require.NoError(t, err)
	assert.Contains(t, out, "# kvlist default configuration.")

	out, err = runCLI(t, "config", "themes")
	require.NoError(t, err)
	assert.Contains(t, out, "(default: dark)")
	assert.Contains(t, out, " - mono")

	out, err = runCLI(t, "config", "validate")
	require.NoError(t, err)
	assert.Equal(t, "built-in defaults: ok\n", out)

	bad := writeFile(t, "bad.yaml", "list:\n  slice_min_items: 0\n")
	_, err = runCLI(t, "config", "validate", "--config", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	unknown := writeFile(t, "unknown.yaml", "colour: red\n")
	_, err = runCLI(t, "config", "get", "--config", unknown)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "kvlist v0.0.0-nightly"), out)
}

func TestPrintItems(t *testing.T) {
	items := []datasource.Item{{"id": "a", "n": 1}, {"id": "b"}}
	tests := []struct {
		format string
		want   string
	}{
		{format: "json", want: "{\"id\":\"a\",\"n\":1}\n{\"id\":\"b\"}\n"},
		{format: "yaml", want: "id: a\nn: 1\n---\nid: b\n"},
		{format: "none", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printItems(&buf, items, tt.format))
			assert.Equal(t, tt.want, buf.String())
		})
	}
	require.Error(t, printItems(io.Discard, items, "csv"))
}

package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDataDetectsFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []interface{}
	}{
		{
			name:  "json array",
			input: `[{"id": "a"}, {"id": "b"}]`,
			want:  []interface{}{[]interface{}{map[string]interface{}{"id": "a"}, map[string]interface{}{"id": "b"}}},
		},
		{
			name:  "ndjson",
			input: "{\"id\": \"a\"}\n\n{\"id\": \"b\"}\n",
			want:  []interface{}{map[string]interface{}{"id": "a"}, map[string]interface{}{"id": "b"}},
		},
		{
			name:  "ndjson keeps non-json lines as strings",
			input: "{\"id\": \"a\"}\nprogress 50%\n{\"id\": \"b\"}",
			want:  []interface{}{map[string]interface{}{"id": "a"}, "progress 50%", map[string]interface{}{"id": "b"}},
		},
		{
			name:  "crlf ndjson",
			input: "{\"id\": \"a\"}\r\n{\"id\": \"b\"}\r\n",
			want:  []interface{}{map[string]interface{}{"id": "a"}, map[string]interface{}{"id": "b"}},
		},
		{
			name:  "yaml list",
			input: "- id: a\n  title: Alpha\n- id: b\n",
			want: []interface{}{[]interface{}{
				map[string]interface{}{"id": "a", "title": "Alpha"},
				map[string]interface{}{"id": "b"},
			}},
		},
		{
			name:  "multi-document yaml",
			input: "id: a\n---\nid: b\n---\n",
			want:  []interface{}{map[string]interface{}{"id": "a"}, map[string]interface{}{"id": "b"}},
		},
		{
			name:  "toml tables",
			input: "[[items]]\nid = \"a\"\n\n[[items]]\nid = \"b\"\n",
			want: []interface{}{map[string]interface{}{"items": []interface{}{
				map[string]interface{}{"id": "a"},
				map[string]interface{}{"id": "b"},
			}}},
		},
		{
			name:  "flow yaml that is not json",
			input: `{invalid}`,
			want:  []interface{}{map[string]interface{}{"invalid": nil}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadData(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDataErrors(t *testing.T) {
	_, err := LoadData("  \n ")
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = LoadData("[1, 2")
	require.Error(t, err)
}

func TestIsLikelyTOML(t *testing.T) {
	tests := map[string]bool{
		"[server]\nport = 80":           true,
		"[[items]]\nid = 1":             true,
		"name = \"x\"\nsize = 2":        true,
		"[1, 2, 3]":                     false,
		"name: x\nsize: 2":              false,
		"items:\n  [a]\n":               false,
		"# comment only\nkey: value\n": false,
	}
	for input, want := range tests {
		assert.Equal(t, want, isLikelyTOML(input), input)
	}
}

func TestIsLikelyNDJSON(t *testing.T) {
	assert.True(t, isLikelyNDJSON([]string{`{"a":1}`, `{"a":2}`}))
	assert.False(t, isLikelyNDJSON([]string{`{"a":1}`}), "one line is plain JSON")
	assert.False(t, isLikelyNDJSON([]string{"- a", "- b", `{"a":1}`}))
}

func TestLoadFileUsesExtension(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	// A single JSON line would otherwise be read as one document either way;
	// .jsonl must still yield one document per line.
	docs, err := LoadFile(write("one.jsonl", `{"id": "a"}`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{map[string]interface{}{"id": "a"}}, docs)

	// key = value in a .yaml file is a YAML scalar, not TOML.
	docs, err = LoadFile(write("odd.yaml", "title: a = b\n"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{map[string]interface{}{"title": "a = b"}}, docs)

	// An unparsable .json falls through to detection.
	docs, err = LoadFile(write("records.json", "- id: a\n"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{[]interface{}{map[string]interface{}{"id": "a"}}}, docs)

	_, err = LoadFile(write("empty.toml", "\n"))
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoadReader(t *testing.T) {
	docs, err := LoadReader(strings.NewReader("id = \"a\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{map[string]interface{}{"id": "a"}}, docs)
}

package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

func keys(t *testing.T, records []datasource.Item, key string) []string {
	t.Helper()
	out := make([]string, 0, len(records))
	for _, r := range records {
		id, ok := datasource.IDOf(r, key)
		require.True(t, ok, "record %v has no %q", r, key)
		out = append(out, id)
	}
	return out
}

func TestRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
		want  []string
	}{
		{
			name:  "array of objects",
			input: `[{"id": "a"}, {"id": "b"}]`,
			want:  []string{"a", "b"},
		},
		{
			name:  "missing ids use position",
			input: `[{"id": "a"}, {"name": "x"}]`,
			want:  []string{"a", "1"},
		},
		{
			name:  "ndjson documents",
			input: "{\"id\": 1}\n{\"id\": 2}\nplain",
			want:  []string{"1", "2", "2"},
		},
		{
			name:  "single list field",
			input: `{"total": 2, "items": [{"id": "x"}, {"id": "y"}]}`,
			want:  []string{"x", "y"},
		},
		{
			name:  "named collection",
			input: `{"a": [{"id": 1}], "b": [{"id": 2}, {"id": 3}]}`,
			opts:  Options{Collection: "b"},
			want:  []string{"2", "3"},
		},
		{
			name: "keyed collection",
			input: `zeta:
  title: last
alpha:
  title: first`,
			want: []string{"alpha", "zeta"},
		},
		{
			name:  "single object",
			input: `{"id": "only", "count": 3}`,
			want:  []string{"only"},
		},
		{
			name:  "custom key",
			input: `[{"name": "n1"}, {"name": "n2"}]`,
			opts:  Options{Key: "name"},
			want:  []string{"n1", "n2"},
		},
		{
			name:  "scalars",
			input: `[10, 20]`,
			want:  []string{"0", "1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadRecords(tt.input, tt.opts)
			require.NoError(t, err)
			key := tt.opts.Key
			if key == "" {
				key = "id"
			}
			assert.Equal(t, tt.want, keys(t, got, key))
		})
	}
}

func TestRecordsWrapScalars(t *testing.T) {
	got, err := LoadRecords(`[10, "x"]`, Options{})
	require.NoError(t, err)
	assert.Equal(t, []datasource.Item{
		{"id": "0", "value": float64(10)},
		{"id": "1", "value": "x"},
	}, got)
}

func TestRecordsDoNotModifyDocuments(t *testing.T) {
	doc := map[string]interface{}{"name": "x"}
	got, err := Records([]interface{}{[]interface{}{doc}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "0", got[0]["id"])
	assert.NotContains(t, doc, "id")
}

func TestRecordsCollectionErrors(t *testing.T) {
	_, err := LoadRecords(`{"items": []}`, Options{Collection: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `collection field "missing" not found`)

	_, err = LoadRecords(`{"items": 3}`, Options{Collection: "items"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a list")
}

func TestRecordsFlattenChildren(t *testing.T) {
	input := `
- id: root
  title: Root
  children:
    - id: a
      children:
        - title: leaf
    - id: b
`
	got, err := LoadRecords(input, Options{ChildrenField: "children"})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a", "a.0", "b"}, keys(t, got, "id"))

	byID := map[string]datasource.Item{}
	for _, r := range got {
		byID[r["id"].(string)] = r
		assert.NotContains(t, r, "children")
	}
	assert.NotContains(t, byID["root"], "parent")
	assert.Equal(t, "root", byID["a"]["parent"])
	assert.Equal(t, "a", byID["a.0"]["parent"])
	assert.Equal(t, "leaf", byID["a.0"]["title"])
}

func TestLoadReaderRecords(t *testing.T) {
	got, err := LoadReaderRecords(strings.NewReader(`[{"id": 1}]`), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, keys(t, got, "id"))

	_, err = LoadReaderRecords(strings.NewReader("  "), Options{})
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestLoadFileRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[rows]]\nid = \"r1\"\n\n[[rows]]\nid = \"r2\"\n"), 0o644))

	got, err := LoadFileRecords(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, keys(t, got, "id"))

	_, err = LoadFileRecords(filepath.Join(t.TempDir(), "missing.json"), Options{})
	require.Error(t, err)
}

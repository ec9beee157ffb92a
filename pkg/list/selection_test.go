package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

func TestParseSelectMode(t *testing.T) {
	for in, want := range map[string]SelectMode{
		"":         SelectNone,
		"none":     SelectNone,
		"Single":   SelectSingle,
		" multi ":  SelectMulti,
		"multiple": SelectMulti,
	} {
		got, err := ParseSelectMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSelectMode("some")
	require.Error(t, err)
	assert.Equal(t, "multi", SelectMulti.String())
}

func TestSingleSelectionReplaces(t *testing.T) {
	ds := datasource.NewMemory("id", items(3)...)
	s := NewSelection(ds, SelectSingle)
	defer s.Close()

	assert.True(t, s.Select("1"))
	assert.True(t, s.Select("2"))
	assert.Equal(t, []string{"2"}, s.Selected())
	assert.False(t, s.Select("nope"))
	assert.Equal(t, 1, s.Len())
}

func TestMultiSelectionToggleAndRemove(t *testing.T) {
	ds := datasource.NewMemory("id", items(4)...)
	s := NewSelection(ds, SelectMulti)
	defer s.Close()

	assert.True(t, s.Toggle("3"))
	assert.True(t, s.Toggle("1"))
	assert.True(t, s.Toggle("0"))
	assert.False(t, s.Toggle("1"))
	assert.Equal(t, []string{"0", "3"}, s.Selected())

	ds.Remove("3")
	assert.False(t, s.IsSelected("3"))
	assert.Equal(t, []string{"0"}, s.Selected())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestSelectNoneIgnoresSelect(t *testing.T) {
	s := NewSelection(datasource.NewMemory("id", items(2)...), SelectNone)
	assert.False(t, s.Select("0"))
	assert.Equal(t, 0, s.Len())
}

func TestClosedSelectionStopsListening(t *testing.T) {
	ds := datasource.NewMemory("id", items(2)...)
	s := NewSelection(ds, SelectMulti)
	require.True(t, s.Select("1"))
	s.Close()

	ds.Remove("1")
	assert.True(t, s.IsSelected("1"))
}

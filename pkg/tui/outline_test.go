package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/settings"
)

func TestOutline(t *testing.T) {
	src := datasource.NewMemory("id",
		datasource.Item{"id": "1", "title": "Animals"},
		datasource.Item{"id": "2", "title": "Birds", "parent": "1"},
		datasource.Item{"id": "3", "title": "Robin", "parent": "2"},
		datasource.Item{"id": "4", "title": "Plants"},
		datasource.Item{"id": "5", "title": "Orphan", "parent": "missing"},
	)
	out, err := Outline(src, testConfig(settings.ModeTree))
	require.NoError(t, err)
	want := "Test\n" +
		"├── Animals\n" +
		"│   └── Birds\n" +
		"│       └── Robin\n" +
		"└── Plants\n"
	assert.Equal(t, want, out)
}

func TestOutlineEmpty(t *testing.T) {
	out, err := Outline(datasource.NewMemory("id"), testConfig(settings.ModeTree))
	require.NoError(t, err)
	assert.Equal(t, "Test\n", out)
}

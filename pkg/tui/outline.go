package tui

import (
	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/treelist"
)

// Outline builds the tree cfg.Tree describes over src and prints it as an
// indented outline headed by cfg.Title. Items waiting for a missing parent
// are left out.
func Outline(src datasource.Source, cfg Config) (string, error) {
	tl, err := treelist.New(cfg.Tree, treelist.NewMemorySurface())
	if err != nil {
		return "", err
	}
	defer tl.Close()
	tl.SetDataSource(src)

	title := cfg.Title
	if title == "" {
		title = "kvlist"
	}
	out := treeprint.NewWithRoot(title)
	addOutlineNodes(out, tl.Root().Children)
	return out.String(), nil
}

func addOutlineNodes(branch treeprint.Tree, nodes []*treelist.Node) {
	for _, n := range nodes {
		if n.HasChildren() {
			addOutlineNodes(branch.AddBranch(n.Title), n.Children)
			continue
		}
		branch.AddNode(n.Title)
	}
}

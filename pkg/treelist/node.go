package treelist

import "github.com/oakwood-commons/kvlist/pkg/datasource"

// Node is the tree's own record for one source item. The source item is
// referenced, never modified.
type Node struct {
	Key   string
	Title string
	Depth int
	// ID is the node's element id on the surface.
	ID string

	Item   datasource.Item
	Parent *Node
	// Group is the column the node is listed in.
	Group *Group
	// ChildGroup lists the children; created with the first child.
	ChildGroup *Group
	Children   []*Node
}

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Ancestors returns the path from the root down to n's parent.
func (n *Node) Ancestors() []*Node {
	var path []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Group is one column of sibling nodes.
type Group struct {
	ID    string
	Depth int
	// Owner is the node whose children the group lists; nil for the root group.
	Owner *Node
	Items []*Node
}

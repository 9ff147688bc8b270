package content

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
)

// NodeKind distinguishes the category root from locations below it.
type NodeKind string

const (
	KindCategory NodeKind = "category"
	KindLocation NodeKind = "location"
)

// Node is a location in a category tree. Children and parent are ids into
// the owning Tree.
type Node struct {
	ID           string    `json:"id"`
	ParentID     string    `json:"parent_id,omitempty"`
	Name         string    `json:"name"`
	Kind         NodeKind  `json:"kind"`
	Condition    string    `json:"condition,omitempty"` // entry gate
	IsChannel    bool      `json:"is_channel,omitempty"`
	Descriptions []Variant `json:"descriptions,omitempty"`
	Children     []string  `json:"children,omitempty"`
	Items        []Item    `json:"items,omitempty"`
}

// Item finds an item on the node by id.
func (n *Node) Item(id string) (*Item, bool) {
	for i := range n.Items {
		if n.Items[i].ID == id {
			return &n.Items[i], true
		}
	}
	return nil, false
}

// Tree is an arena of nodes for one category. The root id equals the category name.
type Tree struct {
	Category string
	RootID   string
	nodes    map[string]*Node
	order    []string
}

// NewTree creates a tree holding only its category root.
func NewTree(category, description string) *Tree {
	root := &Node{ID: category, Name: category, Kind: KindCategory}
	if description != "" {
		root.Descriptions = []Variant{{Order: 1, Description: description}}
	}
	return &Tree{
		Category: category,
		RootID:   category,
		nodes:    map[string]*Node{category: root},
		order:    []string{category},
	}
}

// Add inserts a location under parentID. Item ids default to "<node>/<name>".
func (t *Tree) Add(parentID string, n Node) (*Node, error) {
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("parent %q: %w", parentID, engineerr.ErrContentNotFound)
	}
	if n.ID == "" {
		return nil, fmt.Errorf("node under %q has no id", parentID)
	}
	if _, dup := t.nodes[n.ID]; dup {
		return nil, fmt.Errorf("duplicate node id %q", n.ID)
	}
	if n.Kind == "" {
		n.Kind = KindLocation
	}
	n.ParentID = parentID
	n.Children = nil
	for i := range n.Items {
		if n.Items[i].ID == "" {
			n.Items[i].ID = n.ID + "/" + n.Items[i].Name
		}
		if n.Items[i].Type == "" {
			n.Items[i].Type = TypeOther
		}
		sortVariants(n.Items[i].Variants)
	}
	sortVariants(n.Descriptions)

	node := &n
	t.nodes[n.ID] = node
	t.order = append(t.order, n.ID)
	parent.Children = append(parent.Children, n.ID)
	return node, nil
}

// sortVariants orders variants by Order, keeping authoring order for ties.
// Unnumbered variants take their position.
func sortVariants(vs []Variant) {
	for i := range vs {
		if vs[i].Order == 0 {
			vs[i].Order = i + 1
		}
	}
	slices.SortStableFunc(vs, func(a, b Variant) int { return a.Order - b.Order })
}

// Root returns the category node.
func (t *Tree) Root() *Node {
	return t.nodes[t.RootID]
}

// Node looks up a node by id.
func (t *Tree) Node(id string) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, engineerr.ErrContentNotFound)
	}
	return n, nil
}

// Parent returns the parent of id. The root has none.
func (t *Tree) Parent(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	if !ok || n.ParentID == "" {
		return nil, false
	}
	p, ok := t.nodes[n.ParentID]
	return p, ok
}

// Children returns the child nodes of id in authoring order.
func (t *Tree) Children(id string) []*Node {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		out = append(out, t.nodes[cid])
	}
	return out
}

// Path returns the nodes from the root down to id.
func (t *Tree) Path(id string) []*Node {
	var path []*Node
	for cur, ok := t.nodes[id]; ok; cur, ok = t.nodes[cur.ParentID] {
		path = append(path, cur)
		if cur.ParentID == "" {
			break
		}
	}
	slices.Reverse(path)
	return path
}

// Item looks up an item on a node.
func (t *Tree) Item(nodeID, itemID string) (*Node, *Item, error) {
	n, err := t.Node(nodeID)
	if err != nil {
		return nil, nil, err
	}
	it, ok := n.Item(itemID)
	if !ok {
		return n, nil, fmt.Errorf("item %q at %q: %w", itemID, nodeID, engineerr.ErrContentNotFound)
	}
	return n, it, nil
}

// Len is the number of nodes including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node in insertion order.
func (t *Tree) Walk(fn func(*Node) error) error {
	for _, id := range t.order {
		if err := fn(t.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

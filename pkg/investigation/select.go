package investigation

import (
	"github.com/jwebster45206/inquest-engine/pkg/conditionals"
	"github.com/jwebster45206/inquest-engine/pkg/content"
)

// ActionKind is the kind of button a scene offers.
type ActionKind string

const (
	ActionMove ActionKind = "move"
	ActionBack ActionKind = "back"
	ActionItem ActionKind = "item"
)

// Action is one visible choice at a node. Disabled actions are still shown.
type Action struct {
	Kind     ActionKind `json:"kind"`
	TargetID string     `json:"target_id"`
	Label    string     `json:"label"`
	Enabled  bool       `json:"enabled"`
	Reason   string     `json:"reason,omitempty"`
}

// parseCondition drops malformed clauses; the engine logs them when acting.
func parseCondition(raw string) conditionals.Set {
	set, _ := conditionals.Parse(raw)
	return set
}

func evalVariant(v *content.Variant, item *content.Item, p conditionals.PlayerView, w conditionals.WorldView) conditionals.Result {
	w.CurrentItemID = item.ID
	return conditionals.EvaluateAll(parseCondition(v.Condition), p, w)
}

// SelectVariant returns the first variant, by order, whose condition leaves
// it enabled. An item with none is inert.
func SelectVariant(item *content.Item, p conditionals.PlayerView, w conditionals.WorldView) (*content.Variant, bool) {
	for i := range item.Variants {
		v := &item.Variants[i]
		if evalVariant(v, item, p, w).Enabled {
			return v, true
		}
	}
	return nil, false
}

// itemAction reports an item's button. The item is shown if any variant is
// visible and enabled if SelectVariant would find one.
func itemAction(item *content.Item, p conditionals.PlayerView, w conditionals.WorldView) (Action, bool) {
	a := Action{Kind: ActionItem, TargetID: item.ID, Label: item.Name}
	visible := false
	for i := range item.Variants {
		res := evalVariant(&item.Variants[i], item, p, w)
		if res.Enabled {
			a.Enabled = true
			a.Reason = ""
			return a, true
		}
		if res.Visible && !visible {
			visible = true
			a.Reason = res.Reason
		}
	}
	return a, visible
}

// childHidden reports whether every variant of every item at the node is
// invisible. A node without variants is never hidden this way.
func childHidden(n *content.Node, p conditionals.PlayerView, w conditionals.WorldView) bool {
	total := 0
	for i := range n.Items {
		item := &n.Items[i]
		for j := range item.Variants {
			total++
			if evalVariant(&item.Variants[j], item, p, w).Visible {
				return false
			}
		}
	}
	return total > 0
}

// Visibility lists the actions available at a node: a back action when the
// node has a parent, then children, then items.
func Visibility(tree *content.Tree, node *content.Node, p conditionals.PlayerView, w conditionals.WorldView) []Action {
	var actions []Action
	if parent, ok := tree.Parent(node.ID); ok {
		actions = append(actions, Action{Kind: ActionBack, TargetID: parent.ID, Label: parent.Name, Enabled: true})
	}

	for _, child := range tree.Children(node.ID) {
		gate := conditionals.EvaluateAll(parseCondition(child.Condition), p, w)
		if !gate.Visible || childHidden(child, p, w) {
			continue
		}
		actions = append(actions, Action{
			Kind:     ActionMove,
			TargetID: child.ID,
			Label:    child.Name,
			Enabled:  gate.Enabled,
			Reason:   gate.Reason,
		})
	}

	for i := range node.Items {
		if a, ok := itemAction(&node.Items[i], p, w); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Describe returns the first enabled description variant of a node.
func Describe(node *content.Node, p conditionals.PlayerView, w conditionals.WorldView) string {
	for _, v := range node.Descriptions {
		if conditionals.EvaluateAll(parseCondition(v.Condition), p, w).Enabled {
			return v.Description
		}
	}
	return ""
}

package command

import "fmt"

// validateNode recursively enforces the §3 invariants.
func validateNode(n *Node) error {
	if n == nil {
		return fmt.Errorf("command: nil node")
	}

	switch n.Kind {
	case KindCommand:
		hasHandler := n.HandlerRef != ""
		hasChain := len(n.ChainedHandlers) > 0
		if hasHandler == hasChain {
			// both set or both unset
			if hasHandler && hasChain {
				return fmt.Errorf("command %q: has both handlerRef and chainedHandlers", n.Name)
			}
			return fmt.Errorf("command %q: needs a handlerRef or chainedHandlers", n.Name)
		}
	case KindGroup:
		if n.HandlerRef != "" || len(n.ChainedHandlers) > 0 {
			return fmt.Errorf("group %q: groups must not declare a handler", n.Name)
		}
		if len(n.Children) == 0 {
			return fmt.Errorf("group %q: groups need at least one child", n.Name)
		}
	default:
		return fmt.Errorf("node %q: unknown kind %q", n.Name, n.Kind)
	}

	if err := checkSiblingNameCollisions(n.Children); err != nil {
		return fmt.Errorf("command %q: %w", n.Name, err)
	}

	for _, child := range n.Children {
		if err := validateNode(child); err != nil {
			return err
		}
	}
	return nil
}

// checkSiblingNameCollisions verifies that every name and alias among
// siblings is unique after alias expansion.
func checkSiblingNameCollisions(children []*Node) error {
	seen := make(map[string]string, len(children)*2)
	for _, c := range children {
		if prior, ok := seen[c.Name]; ok {
			return fmt.Errorf("duplicate sibling name %q (also used by %q)", c.Name, prior)
		}
		seen[c.Name] = c.Name
		for alias := range c.Aliases {
			if prior, ok := seen[alias]; ok {
				return fmt.Errorf("alias %q of %q collides with %q", alias, c.Name, prior)
			}
			seen[alias] = c.Name
		}
	}
	return nil
}

// Prepare produces a post-processed tree with inherited options
// propagated to children and alias links materialized (§4.A). Prepare
// is idempotent: calling it again on an already-prepared node is a
// no-op.
func Prepare(root *Node) (*Node, error) {
	if root == nil {
		return nil, fmt.Errorf("command: cannot prepare a nil tree")
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	prepare(root, nil, nil)
	return root, nil
}

func prepare(n *Node, parent *Node, inherited []OptionSpec) {
	if n.prepared {
		return
	}
	n.parent = parent

	// Inherited options are appended after the node's own so a node's
	// own declaration of the same name always wins during validation.
	if len(inherited) > 0 {
		merged := make([]OptionSpec, 0, len(n.Options)+len(inherited))
		merged = append(merged, n.Options...)
		own := make(map[string]struct{}, len(n.Options))
		for _, o := range n.Options {
			own[o.Name] = struct{}{}
		}
		for _, o := range inherited {
			if _, dup := own[o.Name]; !dup {
				merged = append(merged, o)
			}
		}
		n.Options = merged
	}

	if n.Aliases == nil {
		n.Aliases = map[string]struct{}{}
	}

	n.prepared = true

	for _, child := range n.Children {
		prepare(child, n, n.Options)
	}
}

// Parent returns the node's parent in a prepared tree, or nil at the
// root or before Prepare has run.
func (n *Node) Parent() *Node { return n.parent }

// Resolve walks path (a sequence of names, aliases allowed) from root
// and returns the matching node, or an error naming the first
// unresolvable segment.
func Resolve(root *Node, path []string) (*Node, error) {
	current := root
	for i, segment := range path {
		child := findChild(current, segment)
		if child == nil {
			return nil, fmt.Errorf("command: no such subcommand %q under %q (path so far: %v)", segment, current.Name, path[:i])
		}
		current = child
	}
	return current, nil
}

func findChild(n *Node, nameOrAlias string) *Node {
	for _, c := range n.Children {
		if c.Name == nameOrAlias {
			return c
		}
		if _, ok := c.Aliases[nameOrAlias]; ok {
			return c
		}
	}
	return nil
}

// Path returns the sequence of node names from root to n, inclusive,
// using n's Parent() links from a prepared tree.
func Path(n *Node) []string {
	var rev []string
	for cur := n; cur != nil; cur = cur.parent {
		rev = append(rev, cur.Name)
	}
	out := make([]string, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}

// Package xmltree provides an in-memory element tree for hierarchical XML
// configuration exports, with parent back-references, pre-order traversal,
// and deep cloning.
package xmltree

// Attr is a single element attribute. Attribute order from the source
// document is preserved through clone and serialization; lookup is by name.
type Attr struct {
	Name  string
	Value string
}

// Node is a single element in the tree. Each Node is exclusively owned by its
// parent; the root has no parent. The parent reference is non-owning and is
// maintained by Append and the decoder.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node

	parent *Node
}

// New constructs a Node with the given tag and attributes.
func New(tag string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs}
}

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Attr returns the value of the named attribute and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].Value, true
		}
	}
	return "", false
}

// Name returns the node's "name" attribute, or "" when absent.
func (n *Node) Name() string {
	v, _ := n.Attr("name")
	return v
}

// SetAttr appends an attribute, replacing an existing one with the same name.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Append attaches child as the last child of n and records n as its parent.
func (n *Node) Append(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// Child returns the first direct child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// HasChild reports whether any direct child has the given tag.
func (n *Node) HasChild(tag string) bool {
	return n.Child(tag) != nil
}

// ResolvePath walks direct children by tag, one segment at a time, starting
// at n. It returns nil as soon as a segment has no matching child. Empty
// segments are skipped.
func (n *Node) ResolvePath(path []string) *Node {
	current := n
	for _, seg := range path {
		if seg == "" {
			continue
		}
		next := current.Child(seg)
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// Walk visits n and all descendants in pre-order. Returning false from fn
// stops the walk.
func (n *Node) Walk(fn func(*Node) bool) {
	n.walk(fn)
}

func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first node in pre-order (including n itself) for which
// pred returns true, or nil.
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if pred(node) {
			found = node
			return false
		}
		return true
	})
	return found
}

// Contains reports whether target is n or a descendant of n, following
// parent references.
func (n *Node) Contains(target *Node) bool {
	for cur := target; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

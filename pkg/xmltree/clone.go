package xmltree

import "slices"

// Clone returns a deep copy of the subtree rooted at n. Attributes, text,
// and all descendants are copied recursively; the copy has no parent and
// shares no structure with the original.
func (n *Node) Clone() *Node {
	c := &Node{
		Tag:   n.Tag,
		Attrs: slices.Clone(n.Attrs),
		Text:  n.Text,
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			cc := child.Clone()
			cc.parent = c
			c.Children[i] = cc
		}
	}
	return c
}

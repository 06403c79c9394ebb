package xmltree

import (
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Fingerprint returns a stable content digest for the subtree rooted at n.
// Two subtrees have equal fingerprints iff they have the same tags, attribute
// sets, text payloads, and child order at every level. Attribute order does
// not affect the fingerprint; child order does.
func Fingerprint(n *Node) digest.Digest {
	var b strings.Builder
	canonicalize(&b, n)
	return digest.FromString(b.String())
}

// canonicalize appends a length-prefix-free canonical form of the subtree.
// Field separators use characters invalid in XML names so no crafted tag or
// attribute value can collide with the structure markers.
func canonicalize(b *strings.Builder, n *Node) {
	b.WriteString("<")
	b.WriteString(n.Tag)

	attrs := make([]Attr, len(n.Attrs))
	copy(attrs, n.Attrs)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	for _, a := range attrs {
		b.WriteString("\x00")
		b.WriteString(a.Name)
		b.WriteString("\x01")
		b.WriteString(a.Value)
	}

	b.WriteString("\x02")
	b.WriteString(strings.TrimSpace(n.Text))

	for _, c := range n.Children {
		canonicalize(b, c)
	}
	b.WriteString(">")
}

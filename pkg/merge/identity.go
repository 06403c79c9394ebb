// Package merge implements the deduplication and parent-resolution engine
// for hierarchical configuration exports. Nodes carrying a Properties child
// are the unit of identity: the engine decides whether each one already
// exists in the base tree and, if not, where to attach it.
package merge

import "github.com/npstools/npsmerge/pkg/xmltree"

// Schema tags with fixed meaning in NPS-style exports.
const (
	_propertiesTag = "Properties"
	_ipAddressTag  = "IP_Address"
	_childrenTag   = "Children"
	_clientsTag    = "Clients"
)

// Key identifies a configuration object across files. Two nodes are the same
// object iff their keys are equal, regardless of attribute or child content.
type Key string

// KeyOf returns the node's identity key: tag and name attribute joined with
// ":". Nodes without a name attribute use the empty name.
func KeyOf(n *xmltree.Node) Key {
	return Key(n.Tag + ":" + n.Name())
}

// Eligible reports whether the node participates in identity tracking and
// placement: true iff it has a direct Properties child. Everything else is
// structural scaffolding and only ever travels as part of an eligible node's
// subtree.
func Eligible(n *xmltree.Node) bool {
	return n.HasChild(_propertiesTag)
}

// HasIPAddress reports whether the node is eligible and its Properties child
// carries a direct IP_Address entry. This is the signal that the node is a
// RADIUS client record.
func HasIPAddress(n *xmltree.Node) bool {
	props := n.Child(_propertiesTag)
	return props != nil && props.HasChild(_ipAddressTag)
}

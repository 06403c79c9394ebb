package merge

import (
	"strings"

	"github.com/npstools/npsmerge/pkg/rules"
	"github.com/npstools/npsmerge/pkg/xmltree"
)

// Rule identifies which step of the placement chain produced an attachment
// point. Useful for verbose logging and for testing the chain's ordering.
type Rule int

// Placement rules, in decision order. Each is a bias, not a proof: the export
// schema fixes where each node kind belongs, but the candidate itself does
// not say so, so placement is inferred from tag identity, content signals,
// and structural precedent. First match wins.
const (
	RuleKnownContainer Rule = iota
	RuleClientsPath
	RuleClientsSearch
	RuleProfilePattern
	RuleSiblingTag
	RuleGenericContainer
	RuleRoot
)

var _ruleNames = map[Rule]string{
	RuleKnownContainer:   "known-container",
	RuleClientsPath:      "clients-path",
	RuleClientsSearch:    "clients-search",
	RuleProfilePattern:   "profile-pattern",
	RuleSiblingTag:       "sibling-tag",
	RuleGenericContainer: "generic-container",
	RuleRoot:             "root-fallback",
}

func (r Rule) String() string {
	if s, ok := _ruleNames[r]; ok {
		return s
	}
	return "unknown"
}

// Resolver chooses the base-tree subtree a candidate node must be attached
// under, honoring the hierarchy conventions captured in its ruleset.
type Resolver struct {
	rules rules.Ruleset
}

// NewResolver returns a Resolver using the given ruleset.
func NewResolver(rs rules.Ruleset) *Resolver {
	return &Resolver{rules: rs}
}

// Resolve returns the node in base that candidate should be appended under,
// and the rule that selected it. It never fails: when no rule produces a
// container the base root itself is the attachment point, a degraded but
// safe outcome preferred over aborting the merge.
func (r *Resolver) Resolve(base, candidate *xmltree.Node) (*xmltree.Node, Rule) {
	// 1. Exact tag match in the known-container table.
	if path, ok := r.rules.Containers[candidate.Tag]; ok {
		if n := base.ResolvePath(path); n != nil {
			return n, RuleKnownContainer
		}
	}

	// 2. IP_Address in Properties marks a RADIUS client record.
	if HasIPAddress(candidate) {
		if n := base.ResolvePath(r.rules.ClientsPath); n != nil {
			return n, RuleClientsPath
		}
		if n := findClientsContainer(base); n != nil {
			return n, RuleClientsSearch
		}
	}

	// 3. Profile-like tag names map to the profiles container.
	if r.rules.MatchesProfilePattern(candidate.Tag) {
		if path := r.rules.ProfilePath(); path != nil {
			if n := base.ResolvePath(path); n != nil {
				return n, RuleProfilePattern
			}
		}
	}

	// 4. Place next to an existing node with the same tag.
	if parent := findSiblingParent(base, candidate.Tag); parent != nil {
		return parent, RuleSiblingTag
	}

	// 5. Any Children container, preferring one holding related tags.
	if n := findGenericContainer(base, candidate.Tag); n != nil {
		return n, RuleGenericContainer
	}

	// 6. Nothing matched; attach at the root rather than dropping the node.
	return base, RuleRoot
}

// findClientsContainer searches the whole base for a Clients node holding a
// Children child and returns that Children node.
func findClientsContainer(base *xmltree.Node) *xmltree.Node {
	clients := base.Find(func(n *xmltree.Node) bool {
		return n.Tag == _clientsTag && n.HasChild(_childrenTag)
	})
	if clients == nil {
		return nil
	}
	return clients.Child(_childrenTag)
}

// findSiblingParent returns the parent of the first pre-order node whose tag
// matches. The base root itself has no parent and cannot match.
func findSiblingParent(base *xmltree.Node, tag string) *xmltree.Node {
	match := base.Find(func(n *xmltree.Node) bool {
		return n.Tag == tag && n.Parent() != nil
	})
	if match == nil {
		return nil
	}
	return match.Parent()
}

// findGenericContainer returns the first pre-order Children node whose direct
// children include the candidate tag or a tag sharing its trailing "_" token,
// falling back to the first Children node found at all.
func findGenericContainer(base *xmltree.Node, tag string) *xmltree.Node {
	token := trailingToken(tag)

	var first *xmltree.Node
	var preferred *xmltree.Node
	base.Walk(func(n *xmltree.Node) bool {
		if n.Tag != _childrenTag {
			return true
		}
		if first == nil {
			first = n
		}
		for _, c := range n.Children {
			if c.Tag == tag || trailingToken(c.Tag) == token {
				preferred = n
				return false
			}
		}
		return true
	})

	if preferred != nil {
		return preferred
	}
	return first
}

// trailingToken returns the last "_"-separated segment of a tag.
func trailingToken(tag string) string {
	if i := strings.LastIndex(tag, "_"); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

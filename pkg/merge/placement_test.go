package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npstools/npsmerge/pkg/rules"
	"github.com/npstools/npsmerge/pkg/xmltree"
)

// _npsBase is a trimmed NPS export skeleton covering the fixed container
// paths the default ruleset points at.
const _npsBase = `
<Root>
  <Children>
    <Microsoft_Internet_Authentication_Service>
      <Children>
        <RadiusProfiles name="Profiles">
          <Properties/>
          <Children>
            <Staff_Profile name="Staff"><Properties/></Staff_Profile>
          </Children>
        </RadiusProfiles>
        <NetworkPolicy name="Policies">
          <Properties/>
          <Children/>
        </NetworkPolicy>
        <Protocols>
          <Children>
            <Microsoft_Radius_Protocol>
              <Children>
                <Clients>
                  <Children/>
                </Clients>
              </Children>
            </Microsoft_Radius_Protocol>
          </Children>
        </Protocols>
      </Children>
    </Microsoft_Internet_Authentication_Service>
  </Children>
</Root>`

func parseBase(t *testing.T, doc string) *xmltree.Node {
	t.Helper()
	root, err := xmltree.ParseString(doc)
	require.NoError(t, err)
	return root
}

func newClient(name, ip string) *xmltree.Node {
	c := xmltree.New("Client", xmltree.Attr{Name: "name", Value: name})
	props := xmltree.New("Properties")
	addr := xmltree.New("IP_Address")
	addr.Text = ip
	props.Append(addr)
	c.Append(props)
	return c
}

func newEligible(tag, name string) *xmltree.Node {
	n := xmltree.New(tag, xmltree.Attr{Name: "name", Value: name})
	n.Append(xmltree.New("Properties"))
	return n
}

func TestResolveChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		base       string
		candidate  *xmltree.Node
		wantRule   Rule
		wantParent func(t *testing.T, base, parent *xmltree.Node)
	}{
		{
			name:      "known container by exact tag",
			base:      _npsBase,
			candidate: newEligible("NetworkPolicy", "Deny-All"),
			wantRule:  RuleKnownContainer,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				policy := base.Find(func(n *xmltree.Node) bool { return n.Tag == "NetworkPolicy" })
				assert.Same(t, policy.Child("Children"), parent)
			},
		},
		{
			name:      "client record via fixed clients path",
			base:      _npsBase,
			candidate: newClient("ap1", "10.0.0.1"),
			wantRule:  RuleClientsPath,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				clients := base.Find(func(n *xmltree.Node) bool { return n.Tag == "Clients" })
				assert.Same(t, clients.Child("Children"), parent)
			},
		},
		{
			name: "client record via tree-wide clients search",
			base: `
<Root>
  <Stuff>
    <Clients>
      <Children/>
    </Clients>
  </Stuff>
</Root>`,
			candidate: newClient("ap2", "10.0.0.2"),
			wantRule:  RuleClientsSearch,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				clients := base.Find(func(n *xmltree.Node) bool { return n.Tag == "Clients" })
				assert.Same(t, clients.Child("Children"), parent)
			},
		},
		{
			name:      "profile-like tag via name pattern",
			base:      _npsBase,
			candidate: newEligible("Campus_Infrastructure", "Campus"),
			wantRule:  RuleProfilePattern,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				profiles := base.Find(func(n *xmltree.Node) bool { return n.Tag == "RadiusProfiles" })
				assert.Same(t, profiles.Child("Children"), parent)
			},
		},
		{
			name:      "sibling by tag",
			base:      _npsBase,
			candidate: newEligible("Staff_Profile", "Staff-2"),
			wantRule:  RuleSiblingTag,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				existing := base.Find(func(n *xmltree.Node) bool { return n.Tag == "Staff_Profile" })
				assert.Same(t, existing.Parent(), parent)
			},
		},
		{
			name: "generic container preferring shared trailing token",
			base: `
<Root>
  <Children>
    <Unrelated/>
  </Children>
  <Section>
    <Children>
      <Legacy_Widget><Properties/></Legacy_Widget>
    </Children>
  </Section>
</Root>`,
			candidate: newEligible("Modern_Widget", "W"),
			wantRule:  RuleGenericContainer,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				require.NotNil(t, parent.Child("Legacy_Widget"))
			},
		},
		{
			name: "generic container falls back to first Children",
			base: `
<Root>
  <Children>
    <Unrelated/>
  </Children>
</Root>`,
			candidate: newEligible("Widget", "W"),
			wantRule:  RuleGenericContainer,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				assert.Same(t, base.Child("Children"), parent)
			},
		},
		{
			name:      "root fallback when nothing matches",
			base:      `<Root><Other/></Root>`,
			candidate: newClient("orphan", "1.2.3.4"),
			wantRule:  RuleRoot,
			wantParent: func(t *testing.T, base, parent *xmltree.Node) {
				t.Helper()
				assert.Same(t, base, parent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base := parseBase(t, tt.base)
			resolver := NewResolver(rules.Default())

			parent, rule := resolver.Resolve(base, tt.candidate)
			require.NotNil(t, parent)
			assert.Equal(t, tt.wantRule, rule)
			tt.wantParent(t, base, parent)
		})
	}
}

func TestResolveContainerTableWinsOverPattern(t *testing.T) {
	t.Parallel()

	// "Wireless_Controller" matches both a container entry and the
	// "Controller" suffix pattern; the exact-tag table must win.
	rs, err := rules.ParseString(`
container "Wireless_Controller" "Hardware/Children"
container "Profiles" "Profiles/Children"
clients "Clients/Children"
profiles container="Profiles" {
    suffix "Controller"
}
`)
	require.NoError(t, err)

	base := parseBase(t, `
<Root>
  <Hardware>
    <Children/>
  </Hardware>
  <Profiles>
    <Children/>
  </Profiles>
</Root>`)

	parent, rule := NewResolver(rs).Resolve(base, newEligible("Wireless_Controller", "wc1"))
	assert.Equal(t, RuleKnownContainer, rule)
	assert.Same(t, base.Child("Hardware").Child("Children"), parent)

	// A pattern-only tag still lands in the profiles container.
	parent, rule = NewResolver(rs).Resolve(base, newEligible("Backup_Controller", "bc1"))
	assert.Equal(t, RuleProfilePattern, rule)
	assert.Same(t, base.Child("Profiles").Child("Children"), parent)
}

func TestResolveUnresolvableKnownPathFallsThrough(t *testing.T) {
	t.Parallel()

	// Tag is in the table but the base lacks the path; later rules apply.
	base := parseBase(t, `
<Root>
  <Children>
    <NetworkPolicy name="Existing"><Properties/></NetworkPolicy>
  </Children>
</Root>`)

	parent, rule := NewResolver(rules.Default()).Resolve(base, newEligible("NetworkPolicy", "New"))
	assert.Equal(t, RuleSiblingTag, rule)
	assert.Same(t, base.Child("Children"), parent)
}

func TestRuleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "known-container", RuleKnownContainer.String())
	assert.Equal(t, "root-fallback", RuleRoot.String())
	assert.Equal(t, "unknown", Rule(99).String())
}

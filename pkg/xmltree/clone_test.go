package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneDeepCopies(t *testing.T) {
	t.Parallel()

	orig := buildFixture()
	clone := orig.Clone()

	// Structure and content match at every level.
	var origTags, cloneTags []string
	orig.Walk(func(n *Node) bool { origTags = append(origTags, n.Tag); return true })
	clone.Walk(func(n *Node) bool { cloneTags = append(cloneTags, n.Tag); return true })
	assert.Equal(t, origTags, cloneTags)

	ip := clone.Find(func(n *Node) bool { return n.Tag == "IP_Address" })
	require.NotNil(t, ip)
	assert.Equal(t, "1.2.3.4", ip.Text)

	profile := clone.Find(func(n *Node) bool { return n.Tag == "Profile" })
	require.NotNil(t, profile)
	assert.Equal(t, []Attr{{Name: "name", Value: "A"}}, profile.Attrs)
}

func TestCloneNoSharing(t *testing.T) {
	t.Parallel()

	orig := buildFixture()
	clone := orig.Clone()

	// Mutating the clone leaves the original untouched, and vice versa.
	cloneProfile := clone.Find(func(n *Node) bool { return n.Tag == "Profile" })
	require.NotNil(t, cloneProfile)
	cloneProfile.SetAttr("name", "mutated")
	cloneProfile.Append(New("Extra"))

	origProfile := orig.Find(func(n *Node) bool { return n.Tag == "Profile" })
	require.NotNil(t, origProfile)
	assert.Equal(t, "A", origProfile.Name())
	assert.Nil(t, origProfile.Child("Extra"))
}

func TestCloneParentRefs(t *testing.T) {
	t.Parallel()

	clone := buildFixture().Clone()

	assert.Nil(t, clone.Parent())
	ip := clone.Find(func(n *Node) bool { return n.Tag == "IP_Address" })
	require.NotNil(t, ip)

	// Parent chain of the clone stays inside the clone.
	for cur := ip; cur != nil; cur = cur.Parent() {
		assert.True(t, clone.Contains(cur))
	}
}

func TestCloneDeepNesting(t *testing.T) {
	t.Parallel()

	// Five levels below the eligible node; every level must survive.
	root := New("L0")
	cur := root
	for _, tag := range []string{"L1", "L2", "L3", "L4", "L5"} {
		next := New(tag)
		next.Text = tag + "-text"
		cur.Append(next)
		cur = next
	}

	clone := root.Clone()
	deep := clone.ResolvePath([]string{"L1", "L2", "L3", "L4", "L5"})
	require.NotNil(t, deep)
	assert.Equal(t, "L5-text", deep.Text)
}

package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := func() *Node {
		n := New("Client", Attr{Name: "name", Value: "X"}, Attr{Name: "id", Value: "1"})
		props := New("Properties")
		ip := New("IP_Address")
		ip.Text = "1.2.3.4"
		props.Append(ip)
		n.Append(props)
		return n
	}

	tests := []struct {
		name   string
		mutate func(*Node)
		equal  bool
	}{
		{
			name:   "identical trees",
			mutate: func(*Node) {},
			equal:  true,
		},
		{
			name: "attribute order ignored",
			mutate: func(n *Node) {
				n.Attrs[0], n.Attrs[1] = n.Attrs[1], n.Attrs[0]
			},
			equal: true,
		},
		{
			name: "attribute value differs",
			mutate: func(n *Node) {
				n.SetAttr("id", "2")
			},
			equal: false,
		},
		{
			name: "nested text differs",
			mutate: func(n *Node) {
				n.Child("Properties").Child("IP_Address").Text = "5.6.7.8"
			},
			equal: false,
		},
		{
			name: "extra descendant differs",
			mutate: func(n *Node) {
				n.Child("Properties").Append(New("Shared_Secret"))
			},
			equal: false,
		},
		{
			name: "surrounding text whitespace ignored",
			mutate: func(n *Node) {
				n.Child("Properties").Child("IP_Address").Text = "  1.2.3.4\n"
			},
			equal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, b := base(), base()
			tt.mutate(b)
			if tt.equal {
				assert.Equal(t, Fingerprint(a), Fingerprint(b))
			} else {
				assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
			}
		})
	}
}

func TestFingerprintChildOrderMatters(t *testing.T) {
	t.Parallel()

	a := New("Properties")
	a.Append(New("First"))
	a.Append(New("Second"))

	b := New("Properties")
	b.Append(New("Second"))
	b.Append(New("First"))

	require.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

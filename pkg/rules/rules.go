// Package rules loads placement rulesets from KDL documents. A ruleset tells
// the placement resolver which container path each known tag belongs under,
// where RADIUS client records live, and which name patterns identify
// network-profile-like objects.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// Sentinel errors for ruleset parse failures.
var (
	ErrUnknownNode    = errors.New("unknown rule node")
	ErrMissingField   = errors.New("missing required field")
	ErrExtraArgs      = errors.New("too many arguments")
	ErrTypeMismatch   = errors.New("argument type mismatch")
	ErrDuplicateTag   = errors.New("duplicate container tag")
	ErrEmptyPath      = errors.New("empty container path")
	ErrNoClientsPath  = errors.New("ruleset missing clients path")
	ErrUnknownProfile = errors.New("profiles container not in container table")
)

//go:embed default.kdl
var _defaultKDL []byte

// Ruleset holds the placement tables consulted by the resolver.
type Ruleset struct {
	// Containers maps a candidate tag to the absolute tag path of the
	// container it belongs under, walked from the document root.
	Containers map[string][]string
	// ContainerOrder lists container tags in document order, for display.
	ContainerOrder []string
	// ClientsPath is the container path for RADIUS client records
	// (candidates carrying an IP_Address property).
	ClientsPath []string
	// ProfileContainer names the Containers entry used for candidates
	// matched by the name patterns below.
	ProfileContainer string
	// ProfileSuffixes and ProfileContains are the tag name patterns that
	// mark a candidate as a network-profile-like object.
	ProfileSuffixes []string
	ProfileContains []string
}

// ProfilePath returns the container path for name-pattern matches, or nil if
// the ruleset defines none.
func (rs Ruleset) ProfilePath() []string {
	return rs.Containers[rs.ProfileContainer]
}

// MatchesProfilePattern reports whether the tag matches any profile suffix or
// substring pattern.
func (rs Ruleset) MatchesProfilePattern(tag string) bool {
	for _, s := range rs.ProfileSuffixes {
		if strings.HasSuffix(tag, s) {
			return true
		}
	}
	for _, s := range rs.ProfileContains {
		if strings.Contains(tag, s) {
			return true
		}
	}
	return false
}

// Validate checks internal consistency of the ruleset.
func (rs Ruleset) Validate() error {
	for tag, path := range rs.Containers {
		if len(path) == 0 {
			return fmt.Errorf("container %q: %w", tag, ErrEmptyPath)
		}
	}
	if len(rs.ClientsPath) == 0 {
		return ErrNoClientsPath
	}
	if rs.ProfileContainer != "" {
		if _, ok := rs.Containers[rs.ProfileContainer]; !ok {
			return fmt.Errorf("profiles container %q: %w", rs.ProfileContainer, ErrUnknownProfile)
		}
	}
	return nil
}

var _defaultOnce = sync.OnceValue(func() Ruleset {
	rs, err := Parse(bytes.NewReader(_defaultKDL), "default.kdl")
	if err != nil {
		panic(fmt.Sprintf("rules: embedded default.kdl invalid: %v", err))
	}
	return rs
})

// Default returns the compiled-in ruleset for Windows NPS exports.
func Default() Ruleset {
	return _defaultOnce()
}

// ParseFile reads and parses a ruleset from the KDL file at path.
func ParseFile(path string) (rs Ruleset, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	return Parse(f, path)
}

// ParseString parses a KDL ruleset document from a string.
func ParseString(content string) (Ruleset, error) {
	return Parse(strings.NewReader(content), "<string>")
}

// Parse parses a KDL ruleset document from the reader.
func Parse(r io.Reader, filename string) (Ruleset, error) {
	doc, err := kdl.Parse(r)
	if err != nil {
		return Ruleset{}, fmt.Errorf("parsing %s: %w", filename, err)
	}

	rs := Ruleset{Containers: make(map[string][]string)}

	for _, node := range doc.Nodes {
		switch name := node.Name.ValueString(); name {
		case "container":
			if err := applyContainer(&rs, node, filename); err != nil {
				return Ruleset{}, err
			}
		case "clients":
			path, err := requireStringArg(node, filename, "clients")
			if err != nil {
				return Ruleset{}, err
			}
			rs.ClientsPath = splitPath(path)
		case "profiles":
			if err := applyProfiles(&rs, node, filename); err != nil {
				return Ruleset{}, err
			}
		default:
			return Ruleset{}, fmt.Errorf("%s: %w: %q", filename, ErrUnknownNode, name)
		}
	}

	if err := rs.Validate(); err != nil {
		return Ruleset{}, fmt.Errorf("%s: %w", filename, err)
	}
	return rs, nil
}

func applyContainer(rs *Ruleset, node *document.Node, filename string) error {
	args, err := stringArgs2(node, filename, "container")
	if err != nil {
		return err
	}
	tag, path := args[0], args[1]
	if _, exists := rs.Containers[tag]; exists {
		return fmt.Errorf("%s: %w: %q", filename, ErrDuplicateTag, tag)
	}
	rs.Containers[tag] = splitPath(path)
	rs.ContainerOrder = append(rs.ContainerOrder, tag)
	return nil
}

func applyProfiles(rs *Ruleset, node *document.Node, filename string) error {
	container, err := stringProp(node, "container")
	if err != nil {
		return fmt.Errorf("%s: profiles: %w", filename, err)
	}
	rs.ProfileContainer = container

	for _, child := range node.Children {
		switch name := child.Name.ValueString(); name {
		case "suffix":
			v, err := requireStringArg(child, filename, "suffix")
			if err != nil {
				return err
			}
			rs.ProfileSuffixes = append(rs.ProfileSuffixes, v)
		case "contains":
			v, err := requireStringArg(child, filename, "contains")
			if err != nil {
				return err
			}
			rs.ProfileContains = append(rs.ProfileContains, v)
		default:
			return fmt.Errorf("%s: profiles: %w: %q", filename, ErrUnknownNode, name)
		}
	}
	return nil
}

// splitPath breaks a slash-separated tag path into segments, dropping empties.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// stringArgs2 extracts exactly two string arguments from a node.
func stringArgs2(node *document.Node, filename, field string) ([2]string, error) {
	switch {
	case len(node.Arguments) < 2:
		return [2]string{}, fmt.Errorf(
			"%s: %s requires exactly two arguments, got %d: %w",
			filename, field, len(node.Arguments), ErrMissingField,
		)
	case len(node.Arguments) > 2:
		return [2]string{}, fmt.Errorf(
			"%s: %s requires exactly two arguments, got %d: %w",
			filename, field, len(node.Arguments), ErrExtraArgs,
		)
	}
	first, err := stringArg(node, 0)
	if err != nil {
		return [2]string{}, fmt.Errorf("%s: %s first argument: %w", filename, field, err)
	}
	second, err := stringArg(node, 1)
	if err != nil {
		return [2]string{}, fmt.Errorf("%s: %s second argument: %w", filename, field, err)
	}
	return [2]string{first, second}, nil
}

// requireStringArg extracts the first string argument, wrapping errors with context.
func requireStringArg(node *document.Node, filename, field string) (string, error) {
	v, err := stringArg(node, 0)
	if err != nil {
		return "", fmt.Errorf("%s: %q requires a string value: %w", filename, field, err)
	}
	return v, nil
}

// stringArg returns the string value at the given argument index, or an error.
func stringArg(node *document.Node, idx int) (string, error) {
	if idx >= len(node.Arguments) {
		return "", fmt.Errorf("argument %d: %w", idx, ErrMissingField)
	}
	v, ok := node.Arguments[idx].ResolvedValue().(string)
	if !ok {
		return "", fmt.Errorf("argument %d: not a string: %w", idx, ErrTypeMismatch)
	}
	return v, nil
}

// stringProp reads a required string property from a node.
func stringProp(node *document.Node, key string) (string, error) {
	v, ok := node.Properties[key]
	if !ok {
		return "", fmt.Errorf("property %q: %w", key, ErrMissingField)
	}
	s, ok := v.ResolvedValue().(string)
	if !ok {
		return "", fmt.Errorf("property %q: not a string: %w", key, ErrTypeMismatch)
	}
	return s, nil
}
